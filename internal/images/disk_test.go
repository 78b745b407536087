package images

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFolder_Pluralizes(t *testing.T) {
	require.Equal(t, "users", Folder("user"))
	require.Equal(t, "faculties", Folder("faculty"))
	require.Equal(t, "universities", Folder("University"))
}

func TestNewFilename_ExtensionFollowsContentType(t *testing.T) {
	require.True(t, strings.HasSuffix(NewFilename("image/png"), ".png"))
	require.True(t, strings.HasSuffix(NewFilename("image/jpeg"), ".jpeg"))
	require.True(t, strings.HasSuffix(NewFilename("image/webp"), ".jpeg"))
	require.NotEqual(t, NewFilename("image/png"), NewFilename("image/png"))
}

func TestDiskStore_SaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	s := NewDiskStore(dir)
	ctx := context.Background()

	err := s.Save(ctx, "user", "a.jpeg", strings.NewReader("img-bytes"), 9, "image/jpeg")
	require.NoError(t, err)

	path := filepath.Join(dir, "images", "users", "a.jpeg")
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "img-bytes", string(b))

	require.NoError(t, s.Delete(ctx, "user", "a.jpeg"))
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestDiskStore_DeleteMissingFileIsNotAnError(t *testing.T) {
	s := NewDiskStore(t.TempDir())
	require.NoError(t, s.Delete(context.Background(), "user", "ghost.jpeg"))
}
