package resource

import (
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tcmng/tcmng-server/internal/images"
)

// getBody reads the request body as a generic map and applies the
// resource's allow/deny field lists. Explicit JSON nulls are kept as nil
// entries so updates can distinguish "remove this field" from "absent".
// Filenames stored by the upload middleware are merged in before filtering.
func (h *Handler) getBody(c *gin.Context) (map[string]interface{}, error) {
	raw, err := readBody(c)
	if err != nil {
		return nil, err
	}
	for field, filename := range images.Uploaded(c) {
		raw[field] = filename
	}
	return h.filterBody(raw), nil
}

func readBody(c *gin.Context) (map[string]interface{}, error) {
	ct := c.ContentType()
	if strings.HasPrefix(ct, "multipart/form-data") || ct == "application/x-www-form-urlencoded" {
		body := map[string]interface{}{}
		if err := c.Request.ParseMultipartForm(32 << 20); err != nil && err != io.EOF {
			// urlencoded bodies land in PostForm via ParseForm below
			if err := c.Request.ParseForm(); err != nil {
				return nil, err
			}
		}
		for key, values := range c.Request.PostForm {
			if len(values) > 0 {
				body[key] = values[0]
			}
		}
		return body, nil
	}

	body := map[string]interface{}{}
	if err := c.ShouldBindJSON(&body); err != nil {
		if err == io.EOF {
			return map[string]interface{}{}, nil
		}
		return nil, err
	}
	return body, nil
}

// filterBody applies the parsed BodyFields convention: a non-empty allow
// list keeps exactly those fields; otherwise the deny list removes its
// fields; with neither, the body passes through unchanged.
func (h *Handler) filterBody(body map[string]interface{}) map[string]interface{} {
	if len(h.include) > 0 {
		out := make(map[string]interface{}, len(h.include))
		for _, field := range h.include {
			if v, ok := body[field]; ok {
				out[field] = v
			}
		}
		return out
	}
	if len(h.exclude) > 0 {
		out := make(map[string]interface{}, len(body))
		for key, v := range body {
			if !contains(h.exclude, key) {
				out[key] = v
			}
		}
		return out
	}
	return body
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
