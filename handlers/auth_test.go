package handlers

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tcmng/tcmng-server/internal/models"
)

func TestHashAccountBody_HashesPasswordAndDefaultsRole(t *testing.T) {
	body, err := hashAccountBody(map[string]interface{}{
		"fullName": "Jo Smith",
		"password": "s3cret",
	})
	require.NoError(t, err)

	hashed, ok := body["password"].(string)
	require.True(t, ok)
	require.NotEqual(t, "s3cret", hashed)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(hashed), []byte("s3cret")))
	require.Equal(t, models.RoleUser, body["role"])
}

func TestHashAccountBody_KeepsExplicitRole(t *testing.T) {
	body, err := hashAccountBody(map[string]interface{}{"role": models.RoleAdmin})
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, body["role"])
	_, hasPassword := body["password"]
	require.False(t, hasPassword)
}
