package images

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tcmng/tcmng-server/pkg/logger"
)

// DiskStore writes images under <root>/images/<plural(resource)>/<filename>.
type DiskStore struct {
	root string
}

// NewDiskStore creates a disk-backed store rooted at dir (e.g. "uploads").
func NewDiskStore(dir string) *DiskStore {
	return &DiskStore{root: dir}
}

func (s *DiskStore) path(resource, filename string) string {
	return filepath.Join(s.root, "images", Folder(resource), filename)
}

func (s *DiskStore) Save(ctx context.Context, resource, filename string, r io.Reader, size int64, contentType string) error {
	path := s.path(resource, filename)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create upload folder: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create image file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("write image file: %w", err)
	}
	return nil
}

func (s *DiskStore) Delete(ctx context.Context, resource, filename string) error {
	path := s.path(resource, filename)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			logger.Warnf("no such image or directory: %s", path)
			return nil
		}
		return err
	}
	return nil
}
