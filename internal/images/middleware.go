package images

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tcmng/tcmng-server/internal/apperr"
)

const uploadedKey = "uploadedImages"

// UploadSingle accepts an optional multipart image in form field, stores it,
// and records the generated filename so the body filter can inject it under
// the same field name. Requests without a file pass through untouched.
func UploadSingle(store Store, resource, field string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ct := c.ContentType()
		if !strings.HasPrefix(ct, "multipart/form-data") {
			c.Next()
			return
		}
		file, header, err := c.Request.FormFile(field)
		if err != nil {
			if err == http.ErrMissingFile {
				c.Next()
				return
			}
			apperr.Abort(c, apperr.BadRequest("invalid upload: %v", err))
			return
		}
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		if !strings.HasPrefix(contentType, "image/") {
			apperr.Abort(c, apperr.BadRequest("Only Images allowed"))
			return
		}

		filename := NewFilename(contentType)
		if err := store.Save(c.Request.Context(), resource, filename, file, header.Size, contentType); err != nil {
			apperr.Abort(c, apperr.Internal("failed to store image: %v", err))
			return
		}

		SetUploaded(c, field, filename)
		c.Next()
	}
}

// SetUploaded records a stored filename for a body field.
func SetUploaded(c *gin.Context, field, filename string) {
	m := Uploaded(c)
	if m == nil {
		m = map[string]string{}
	}
	m[field] = filename
	c.Set(uploadedKey, m)
}

// Uploaded returns the filenames stored for this request, keyed by body
// field, or nil.
func Uploaded(c *gin.Context) map[string]string {
	if v, ok := c.Get(uploadedKey); ok {
		if m, ok := v.(map[string]string); ok {
			return m
		}
	}
	return nil
}
