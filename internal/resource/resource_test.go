package resource

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParseProjection(t *testing.T) {
	require.Equal(t,
		bson.D{{Key: "updatedAt", Value: 0}, {Key: "deleted", Value: 0}},
		parseProjection("-updatedAt -deleted"))

	// inclusion wins over exclusion since the store forbids mixing
	require.Equal(t,
		bson.D{{Key: "name", Value: 1}, {Key: "image", Value: 1}},
		parseProjection("name -password image"))

	require.Nil(t, parseProjection(""))
}

func TestSelection_DefaultsAndOverrides(t *testing.T) {
	h := newTestHandler(Resource{Name: "course"})

	require.Equal(t, parseProjection(defaultSelect), h.selection(Options{}))
	require.Equal(t,
		bson.D{{Key: "name", Value: 1}},
		h.selection(Options{Select: "name"}))

	h = newTestHandler(Resource{Name: "user", Select: "-password"})
	require.Equal(t,
		bson.D{{Key: "password", Value: 0}},
		h.selection(Options{}))
	require.Equal(t,
		bson.D{{Key: "password", Value: 0}, {Key: "emailOTP", Value: 0}},
		h.selection(Options{AddSelect: "-emailOTP"}))
}

func TestSelection_EmbeddedSelectsPathOnly(t *testing.T) {
	h := newTestHandler(Resource{Name: "faculty", EmbeddedPath: "years", Select: "-image"})
	require.Equal(t, bson.D{{Key: "years", Value: 1}}, h.selection(Options{Select: "name"}))
}

func TestErrNoDoc_Messages(t *testing.T) {
	h := newTestHandler(Resource{Name: "user"})
	err := h.errNoDoc("abc123", false)
	require.Equal(t, http.StatusNotFound, err.Code)
	require.Equal(t, "No user found with ID abc123", err.Message)

	h = newTestHandler(Resource{Name: "faculty", EmbeddedPath: "years"})
	err = h.errNoDoc("abc123", true)
	require.Equal(t, "No year found with ID abc123 in this faculty", err.Message)

	// parent misses use the plain form even on embedded resources
	err = h.errNoDoc("abc123", false)
	require.Equal(t, "No faculty found with ID abc123", err.Message)
}

func TestBaseFilter_SoftDelete(t *testing.T) {
	h := newTestHandler(Resource{Name: "user", SoftDelete: true})
	require.Equal(t, bson.M{"deleted": bson.M{"$ne": true}}, h.baseFilter())

	h = newTestHandler(Resource{Name: "course"})
	require.Empty(t, h.baseFilter())
}

func TestLastEmbeddedAndEmbeddedByID(t *testing.T) {
	h := newTestHandler(Resource{Name: "faculty", EmbeddedPath: "years"})

	first := primitive.NewObjectID()
	second := primitive.NewObjectID()
	parent := bson.M{"years": bson.A{
		bson.M{"_id": first, "number": 1},
		bson.M{"_id": second, "number": 2},
	}}

	last := h.lastEmbedded(parent)
	require.NotNil(t, last)
	require.Equal(t, second, last["_id"])

	found := h.embeddedByID(parent, first)
	require.NotNil(t, found)
	require.Equal(t, 1, found["number"])

	require.Nil(t, h.embeddedByID(parent, primitive.NewObjectID()))
	require.Nil(t, h.lastEmbedded(bson.M{"years": bson.A{}}))
}

func TestSanitizeCreated(t *testing.T) {
	doc := bson.M{"_id": "x", "name": "n", "updatedAt": "t", "deleted": false, "password": "p"}

	out := sanitizeCreated(doc, nil)
	require.Equal(t, bson.M{"_id": "x", "name": "n"}, out)

	out = sanitizeCreated(doc, func(d bson.M) bson.M { return bson.M{"only": d["name"]} })
	require.Equal(t, bson.M{"only": "n"}, out)
}
