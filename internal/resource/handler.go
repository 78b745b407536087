package resource

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tcmng/tcmng-server/internal/apperr"
	"github.com/tcmng/tcmng-server/internal/models"
	"github.com/tcmng/tcmng-server/internal/query"
)

// Options is the per-route options bag for the generic handlers.
type Options struct {
	// Select overrides the resource's default selection mask.
	Select string
	// AddSelect appends fields to the effective mask.
	AddSelect string
	// Populate overrides the resource's default reference join.
	Populate *Populate
	// ImageKey is the body field carrying the image filename on updates
	// (default "image").
	ImageKey string
	// Transform reshapes the filtered body before a create is persisted
	// (defaulting fields, hashing credentials). Replaces the store-side
	// save hooks document ODMs provide.
	Transform func(body map[string]interface{}) (map[string]interface{}, error)
	// Sanitize reshapes the created document before serialization; when nil
	// the version/update-timestamp/soft-delete markers are stripped.
	Sanitize func(bson.M) bson.M
	// Filter contributes a route-level pre-filter to list queries.
	Filter func(c *gin.Context) bson.M
}

// the array-filter placeholder used for embedded positional updates
const arrayFilterName = "d"

func (h *Handler) objectID(c *gin.Context, param string) (primitive.ObjectID, bool) {
	raw := c.Param(param)
	oid, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		apperr.Abort(c, apperr.BadRequest("Invalid id format: %s", raw))
		return primitive.NilObjectID, false
	}
	return oid, true
}

// parentIDParam is the path parameter naming the parent document of an
// embedded operation, e.g. "facultyId".
func (h *Handler) parentIDParam() string { return h.res.Name + "Id" }

// List runs the query feature pipeline over the resource and responds with
// {results, paginationResult, data}. An empty result set is a success.
func (h *Handler) List(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		base := h.baseFilter()
		if opts.Filter != nil {
			for k, v := range opts.Filter(c) {
				base[k] = v
			}
		}

		total, err := h.col.CountDocuments(ctx, base)
		if err != nil {
			apperr.Abort(c, err)
			return
		}

		f := query.New(c.Request.URL.Query(), base).
			Paginate(total).
			Filter().
			Search(h.res.SearchFields...).
			LimitFields(h.selection(opts)).
			Sort(h.res.DefaultSort)

		cur, err := h.col.Find(ctx, f.Criteria(), f.FindOptions())
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		docs := []bson.M{}
		if err := cur.All(ctx, &docs); err != nil {
			apperr.Abort(c, err)
			return
		}

		if err := h.populate(ctx, docs, h.effectivePopulate(opts)); err != nil {
			apperr.Abort(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"results":          len(docs),
			"paginationResult": f.Pagination(),
			"data":             docs,
		})
	}
}

// GetOne fetches a document by identifier with selection and population
// applied.
func (h *Handler) GetOne(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id, ok := h.objectID(c, "id")
		if !ok {
			return
		}

		filter := h.baseFilter()
		filter["_id"] = id

		var doc bson.M
		err := h.col.FindOne(ctx, filter,
			options.FindOne().SetProjection(h.selection(opts))).Decode(&doc)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				apperr.Abort(c, h.errNoDoc(id.Hex(), false))
				return
			}
			apperr.Abort(c, err)
			return
		}

		if err := h.populate(ctx, []bson.M{doc}, h.effectivePopulate(opts)); err != nil {
			apperr.Abort(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": doc})
	}
}

// CreateOne inserts a new document, or appends a new element to the parent's
// embedded array when the resource declares an embedded path.
func (h *Handler) CreateOne(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := h.getBody(c)
		if err != nil {
			apperr.Abort(c, apperr.BadRequest("invalid request body: %v", err))
			return
		}
		if opts.Transform != nil {
			if body, err = opts.Transform(body); err != nil {
				apperr.Abort(c, err)
				return
			}
		}
		if h.embedded() {
			h.createEmbedded(c, body, opts)
			return
		}

		now := time.Now().UTC()
		doc := bson.M{}
		for k, v := range body {
			doc[k] = v
		}
		doc["_id"] = primitive.NewObjectID()
		doc["createdAt"] = now
		doc["updatedAt"] = now

		if _, err := h.col.InsertOne(c.Request.Context(), doc); err != nil {
			apperr.Abort(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"data": sanitizeCreated(doc, opts.Sanitize)})
	}
}

func (h *Handler) createEmbedded(c *gin.Context, body map[string]interface{}, opts Options) {
	ctx := c.Request.Context()
	parentID, ok := h.objectID(c, h.parentIDParam())
	if !ok {
		return
	}

	sub := bson.M{}
	for k, v := range body {
		sub[k] = v
	}
	sub["_id"] = primitive.NewObjectID()

	opt := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.D{{Key: h.res.EmbeddedPath, Value: 1}})

	var parent bson.M
	err := h.col.FindOneAndUpdate(ctx, bson.M{"_id": parentID},
		bson.M{"$push": bson.M{h.res.EmbeddedPath: sub}}, opt).Decode(&parent)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			apperr.Abort(c, h.errNoDoc(parentID.Hex(), false))
			return
		}
		apperr.Abort(c, err)
		return
	}

	created := h.lastEmbedded(parent)
	if created == nil {
		created = sub
	}
	if opts.Sanitize != nil {
		created = opts.Sanitize(created)
	}
	c.JSON(http.StatusCreated, gin.H{"data": created})
}

// UpdateOne builds a set/unset operation from the filtered body and applies
// it, rejecting empty operations before the store is touched. The embedded
// variant targets one array element through an identifier array-filter and
// reports a nested NotFound when the element is missing inside an existing
// parent.
func (h *Handler) UpdateOne(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.embedded() {
			h.updateEmbedded(c, opts)
			return
		}
		ctx := c.Request.Context()
		id, ok := h.objectID(c, "id")
		if !ok {
			return
		}
		body, err := h.getBody(c)
		if err != nil {
			apperr.Abort(c, apperr.BadRequest("invalid request body: %v", err))
			return
		}

		imageKey := opts.ImageKey
		if imageKey == "" {
			imageKey = "image"
		}
		if err := h.cleanupReplacedImage(c, body, imageKey, id); err != nil {
			apperr.Abort(c, err)
			return
		}

		op := BuildUpdateOp(body, "")
		if op.Empty() {
			apperr.Abort(c, apperr.BadRequest("No data provided to update"))
			return
		}
		op.Stamp(time.Now().UTC())

		opt := options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(h.selection(opts))

		var doc bson.M
		err = h.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, op.Document(), opt).Decode(&doc)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				apperr.Abort(c, h.errNoDoc(id.Hex(), false))
				return
			}
			apperr.Abort(c, err)
			return
		}

		if err := h.populate(ctx, []bson.M{doc}, h.effectivePopulate(opts)); err != nil {
			apperr.Abort(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": doc})
	}
}

func (h *Handler) updateEmbedded(c *gin.Context, opts Options) {
	ctx := c.Request.Context()
	id, ok := h.objectID(c, "id")
	if !ok {
		return
	}
	parentID, ok := h.objectID(c, h.parentIDParam())
	if !ok {
		return
	}
	body, err := h.getBody(c)
	if err != nil {
		apperr.Abort(c, apperr.BadRequest("invalid request body: %v", err))
		return
	}

	op := BuildUpdateOp(body, h.res.EmbeddedPath+".$["+arrayFilterName+"].")
	if op.Empty() {
		apperr.Abort(c, apperr.BadRequest("No data provided to update"))
		return
	}
	op.Stamp(time.Now().UTC())

	opt := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{arrayFilterName + "._id": id}},
		}).
		SetProjection(bson.D{{Key: h.res.EmbeddedPath, Value: 1}})

	var parent bson.M
	err = h.col.FindOneAndUpdate(ctx, bson.M{"_id": parentID}, op.Document(), opt).Decode(&parent)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			apperr.Abort(c, h.errNoDoc(parentID.Hex(), false))
			return
		}
		apperr.Abort(c, err)
		return
	}

	// an absent positional match is a silent no-op on the parent; detect it
	element := h.embeddedByID(parent, id)
	if element == nil {
		apperr.Abort(c, h.errNoDoc(id.Hex(), true))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": element})
}

// DeleteOne hard-deletes a document and removes every image file referenced
// by the declared photo columns. The embedded variant pulls the matching
// array element, distinguishing a missing parent from a missing element.
func (h *Handler) DeleteOne(photoColumns ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.embedded() {
			h.deleteEmbedded(c)
			return
		}
		ctx := c.Request.Context()
		id, ok := h.objectID(c, "id")
		if !ok {
			return
		}

		var doc bson.M
		err := h.col.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&doc)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				apperr.Abort(c, h.errNoDoc(id.Hex(), false))
				return
			}
			apperr.Abort(c, err)
			return
		}

		names, err := extractImageNames(doc, photoColumns, id.Hex())
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		if err := h.deleteImages(ctx, names); err != nil {
			apperr.Abort(c, apperr.Internal("An error occurred while deleting photos for this id %s", id.Hex()))
			return
		}

		c.Status(http.StatusNoContent)
	}
}

func (h *Handler) deleteEmbedded(c *gin.Context) {
	ctx := c.Request.Context()
	id, ok := h.objectID(c, "id")
	if !ok {
		return
	}
	parentID, ok := h.objectID(c, h.parentIDParam())
	if !ok {
		return
	}

	res, err := h.col.UpdateOne(ctx, bson.M{"_id": parentID},
		bson.M{"$pull": bson.M{h.res.EmbeddedPath: bson.M{"_id": id}}})
	if err != nil {
		apperr.Abort(c, err)
		return
	}
	if res.MatchedCount == 0 {
		apperr.Abort(c, h.errNoDoc(parentID.Hex(), false))
		return
	}
	if res.ModifiedCount == 0 {
		apperr.Abort(c, h.errNoDoc(id.Hex(), true))
		return
	}

	c.Status(http.StatusNoContent)
}

// SoftDeleteOne verifies existence, then marks the document deleted with the
// acting principal recorded. Top-level resources only.
func (h *Handler) SoftDeleteOne() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id, ok := h.objectID(c, "id")
		if !ok {
			return
		}

		filter := bson.M{"_id": id, "deleted": bson.M{"$ne": true}}
		err := h.col.FindOne(ctx, filter,
			options.FindOne().SetProjection(bson.D{{Key: "_id", Value: 1}})).Err()
		if err != nil {
			if err == mongo.ErrNoDocuments {
				apperr.Abort(c, h.errNoDoc(id.Hex(), false))
				return
			}
			apperr.Abort(c, err)
			return
		}

		now := time.Now().UTC()
		update := bson.M{"$set": bson.M{
			"deleted":   true,
			"deletedAt": now,
			"deletedBy": actingUserID(c),
		}}
		if _, err := h.col.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
			apperr.Abort(c, err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}

func (h *Handler) effectivePopulate(opts Options) *Populate {
	if opts.Populate != nil {
		return opts.Populate
	}
	return h.res.Populate
}

func (h *Handler) lastEmbedded(parent bson.M) bson.M {
	arr, ok := parent[h.res.EmbeddedPath].(bson.A)
	if !ok || len(arr) == 0 {
		return nil
	}
	m, _ := arr[len(arr)-1].(bson.M)
	return m
}

func (h *Handler) embeddedByID(parent bson.M, id primitive.ObjectID) bson.M {
	arr, ok := parent[h.res.EmbeddedPath].(bson.A)
	if !ok {
		return nil
	}
	for _, item := range arr {
		m, ok := item.(bson.M)
		if !ok {
			continue
		}
		if oid, ok := m["_id"].(primitive.ObjectID); ok && oid == id {
			return m
		}
	}
	return nil
}

func sanitizeCreated(doc bson.M, sanitize func(bson.M) bson.M) bson.M {
	if sanitize != nil {
		return sanitize(doc)
	}
	out := bson.M{}
	for k, v := range doc {
		switch k {
		case "updatedAt", "deleted", "deletedAt", "deletedBy", "password":
			continue
		}
		out[k] = v
	}
	return out
}

// actingUserID returns the authenticated principal's identifier, empty when
// the request is unauthenticated.
func actingUserID(c *gin.Context) string {
	if v, ok := c.Get("user"); ok {
		if u, ok := v.(*models.User); ok {
			return u.ID.Hex()
		}
	}
	return ""
}
