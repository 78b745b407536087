package resource

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// populate performs a one-level reference join: the ObjectID stored under
// p.Path is replaced with the referenced document from p.From. Unresolvable
// references keep their raw identifier.
func (h *Handler) populate(ctx context.Context, docs []bson.M, p *Populate) error {
	if p == nil || len(docs) == 0 || h.embedded() {
		return nil
	}

	seen := map[primitive.ObjectID]bool{}
	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, doc := range docs {
		if oid, ok := doc[p.Path].(primitive.ObjectID); ok && !seen[oid] {
			seen[oid] = true
			ids = append(ids, oid)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	opt := options.Find()
	if proj := parseProjection(p.Select); len(proj) > 0 {
		opt.SetProjection(proj)
	}
	cur, err := h.db.Collection(p.From).Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opt)
	if err != nil {
		return err
	}
	refs := []bson.M{}
	if err := cur.All(ctx, &refs); err != nil {
		return err
	}

	byID := make(map[primitive.ObjectID]bson.M, len(refs))
	for _, ref := range refs {
		if oid, ok := ref["_id"].(primitive.ObjectID); ok {
			byID[oid] = ref
		}
	}
	for _, doc := range docs {
		if oid, ok := doc[p.Path].(primitive.ObjectID); ok {
			if ref, ok := byID[oid]; ok {
				doc[p.Path] = ref
			}
		}
	}
	return nil
}
