package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tcmng/tcmng-server/internal/config"
	"github.com/tcmng/tcmng-server/internal/images"
)

// Mount must register the whole surface without route conflicts; gin panics
// at registration time when parameter names collide.
func TestMount_RegistersRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// the driver connects lazily, no server is needed to register routes
	client, err := mongo.Connect(context.Background(),
		options.Client().ApplyURI("mongodb://localhost:27017"))
	require.NoError(t, err)
	db := client.Database("tcmng_test")

	cfg := &config.Config{}
	cfg.JWT.Secret = "routes-test-secret"
	cfg.JWT.AccessTokenTTL = time.Minute

	r := gin.New()
	require.NotPanics(t, func() {
		Mount(r, db, images.NewDiskStore(t.TempDir()), cfg)
	})

	want := []string{
		"POST /api/v1/auth/login",
		"POST /api/v1/auth/signup",
		"GET /api/v1/users",
		"GET /api/v1/users/getMe",
		"PUT /api/v1/users/changeMyPassword",
		"PUT /api/v1/users/changePassword/:id",
		"GET /api/v1/users/students/:id",
		"POST /api/v1/users/students",
		"POST /api/v1/users/students/:id/results",
		"DELETE /api/v1/users/:id",
		"GET /api/v1/universities",
		"PUT /api/v1/courses/:id",
		"GET /api/v1/faculties/:facultyId",
		"POST /api/v1/faculties/:facultyId/years",
		"PUT /api/v1/faculties/:facultyId/years/:id",
		"DELETE /api/v1/faculties/:facultyId/years/:id",
		"POST /api/v1/studentCourseRecords",
		"PUT /api/v1/studentCourseRecords/:id",
	}
	registered := map[string]bool{}
	for _, route := range r.Routes() {
		registered[route.Method+" "+route.Path] = true
	}
	for _, key := range want {
		require.True(t, registered[key], "missing route %s", key)
	}
}
