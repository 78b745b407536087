// Package images persists uploaded resource images. Files live under a
// pluralized per-resource folder with generated unique names; handlers only
// ever see filenames, never bytes.
package images

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gertd/go-pluralize"
	"github.com/google/uuid"
)

// Store abstracts where image files live (local disk or object storage).
type Store interface {
	// Save writes the image bytes for the named resource under filename.
	Save(ctx context.Context, resource, filename string, r io.Reader, size int64, contentType string) error
	// Delete removes the file. Deleting a file that does not exist is not
	// an error; cleanup runs on error paths and must not mask them.
	Delete(ctx context.Context, resource, filename string) error
}

var plural = pluralize.NewClient()

// Folder derives the storage folder for a resource name ("user" -> "users").
func Folder(resource string) string {
	return strings.ToLower(plural.Plural(resource))
}

// NewFilename generates a unique image filename with the extension derived
// from the content type (jpeg unless the upload is a png).
func NewFilename(contentType string) string {
	ext := "jpeg"
	if contentType == "image/png" {
		ext = "png"
	}
	return fmt.Sprintf("%s-%d.%s", uuid.NewString(), time.Now().UnixMilli(), ext)
}
