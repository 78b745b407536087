package resource

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestBuildUpdateOp_SetAndUnset(t *testing.T) {
	op := BuildUpdateOp(map[string]interface{}{"a": 1, "b": nil}, "")

	require.Equal(t, bson.M{"a": 1}, op.Set)
	require.Equal(t, bson.M{"b": ""}, op.Unset)
	require.False(t, op.Empty())

	doc := op.Document()
	require.Equal(t, bson.M{"a": 1}, doc["$set"])
	require.Equal(t, bson.M{"b": ""}, doc["$unset"])
}

func TestBuildUpdateOp_EmptyBodyIsEmptyOp(t *testing.T) {
	op := BuildUpdateOp(map[string]interface{}{}, "")

	require.True(t, op.Empty())
	require.Empty(t, op.Document())
}

func TestBuildUpdateOp_EmbeddedPrefix(t *testing.T) {
	op := BuildUpdateOp(map[string]interface{}{"number": 3, "note": nil}, "years.$[d].")

	require.Equal(t, bson.M{"years.$[d].number": 3}, op.Set)
	require.Equal(t, bson.M{"years.$[d].note": ""}, op.Unset)
}

func TestUpdateOp_StampSetsUpdatedAt(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	op := BuildUpdateOp(map[string]interface{}{"name": "x"}, "")
	op.Stamp(now)
	require.Equal(t, bson.M{"name": "x", "updatedAt": now}, op.Set)

	// unset-only bodies still refresh the timestamp through $set
	op = BuildUpdateOp(map[string]interface{}{"note": nil}, "")
	op.Stamp(now)
	doc := op.Document()
	require.Equal(t, bson.M{"updatedAt": now}, doc["$set"])
	require.Equal(t, bson.M{"note": ""}, doc["$unset"])
}

func TestUpdateOp_StampIgnoresEmbeddedPrefix(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	op := BuildUpdateOp(map[string]interface{}{"number": 3}, "years.$[d].")
	op.Stamp(now)

	// the timestamp targets the parent document, not the array element
	require.Equal(t, now, op.Set["updatedAt"])
	require.NotContains(t, op.Set, "years.$[d].updatedAt")
}

func TestUpdateOp_DocumentOmitsEmptyClauses(t *testing.T) {
	op := BuildUpdateOp(map[string]interface{}{"a": "x"}, "")
	doc := op.Document()
	require.Contains(t, doc, "$set")
	require.NotContains(t, doc, "$unset")

	op = BuildUpdateOp(map[string]interface{}{"a": nil}, "")
	doc = op.Document()
	require.Contains(t, doc, "$unset")
	require.NotContains(t, doc, "$set")
}
