package resource

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// UpdateOp is a typed partial-update built from a filtered request body:
// present non-null fields become $set instructions, explicit nulls become
// $unset. An op with neither is invalid and must be rejected before it
// reaches the store.
type UpdateOp struct {
	Set   bson.M
	Unset bson.M
}

// BuildUpdateOp derives the op from body. prefix scopes keys for embedded
// targets (e.g. "years.$[d]."); empty for top-level documents.
func BuildUpdateOp(body map[string]interface{}, prefix string) UpdateOp {
	op := UpdateOp{Set: bson.M{}, Unset: bson.M{}}
	for key, value := range body {
		if value == nil {
			op.Unset[prefix+key] = ""
		} else {
			op.Set[prefix+key] = value
		}
	}
	return op
}

// Stamp records the update time on the document root. Embedded targets call
// this too: the timestamp lives on the parent, never on the prefixed path.
// Call after the Empty check so a bodyless request still rejects.
func (op UpdateOp) Stamp(now time.Time) {
	op.Set["updatedAt"] = now
}

// Empty reports whether the op carries no instructions at all.
func (op UpdateOp) Empty() bool {
	return len(op.Set) == 0 && len(op.Unset) == 0
}

// Document renders the op as a store update document, omitting empty clauses.
func (op UpdateOp) Document() bson.M {
	doc := bson.M{}
	if len(op.Set) > 0 {
		doc["$set"] = op.Set
	}
	if len(op.Unset) > 0 {
		doc["$unset"] = op.Unset
	}
	return doc
}
