package resource

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tcmng/tcmng-server/internal/apperr"
	"github.com/tcmng/tcmng-server/pkg/logger"
)

// extractImageNames collects filenames referenced by the declared photo
// columns of a deleted document. String columns yield one name, array
// columns many; any other non-absent type means the schema and the route
// declaration disagree, which is a 500-class error.
func extractImageNames(doc bson.M, photoColumns []string, id string) ([]string, error) {
	var names []string
	for _, column := range photoColumns {
		value, ok := doc[column]
		if !ok || value == nil {
			continue
		}
		switch v := value.(type) {
		case string:
			names = append(names, v)
		case primitive.A:
			for _, item := range v {
				s, ok := item.(string)
				if !ok {
					return nil, apperr.Internal("An error occurred while deleting photos for this id %s", id)
				}
				names = append(names, s)
			}
		default:
			return nil, apperr.Internal("An error occurred while deleting photos for this id %s", id)
		}
	}
	return names, nil
}

// deleteImages removes the given files from the resource's image folder.
func (h *Handler) deleteImages(ctx context.Context, names []string) error {
	for _, name := range names {
		if err := h.store.Delete(ctx, h.res.Name, name); err != nil {
			return err
		}
	}
	return nil
}

// cleanupReplacedImage deletes the document's current image file when the
// filtered body replaces the image field with a different value. When the
// document does not exist the freshly uploaded file is removed so it is not
// orphaned, and the NotFound is returned.
func (h *Handler) cleanupReplacedImage(c *gin.Context, body map[string]interface{}, imageKey string, id primitive.ObjectID) error {
	newValue, present := body[imageKey]
	if !present {
		return nil
	}
	newName, _ := newValue.(string)

	ctx := c.Request.Context()
	var doc bson.M
	err := h.col.FindOne(ctx, bson.M{"_id": id},
		options.FindOne().SetProjection(bson.D{{Key: imageKey, Value: 1}})).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			if newName != "" {
				if derr := h.store.Delete(ctx, h.res.Name, newName); derr != nil {
					logger.Warnf("failed to remove orphaned upload %s: %v", newName, derr)
				}
			}
			return h.errNoDoc(id.Hex(), false)
		}
		return err
	}

	current, _ := doc[imageKey].(string)
	if current != "" && current != newName {
		if err := h.store.Delete(ctx, h.res.Name, current); err != nil {
			return apperr.Internal("failed to delete previous image: %v", err)
		}
	}
	return nil
}
