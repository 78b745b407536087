// Package resource implements the generic CRUD handlers shared by every
// collection: list/get/create/update/delete plus soft delete, with the same
// five operations transparently retargeting an embedded sub-document array
// when the resource declares one.
package resource

import (
	"strings"

	"github.com/gertd/go-pluralize"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tcmng/tcmng-server/internal/apperr"
	"github.com/tcmng/tcmng-server/internal/images"
)

// fields stripped from create responses unless a sanitizer is supplied
const defaultSelect = "-updatedAt -deleted -deletedAt -deletedBy"

var plural = pluralize.NewClient()

// Populate describes a one-level reference join: the value of Path is looked
// up by _id in the From collection and replaced with the referenced document
// (optionally projected by Select).
type Populate struct {
	Path   string
	From   string
	Select string
}

// Resource configures one collection for the generic handlers.
type Resource struct {
	// Name is the singular resource name; it derives error messages, the
	// parent-id path parameter and the image folder.
	Name string
	// Collection is the Mongo collection name.
	Collection string
	// Select is the default field-selection mask ("a -b" syntax).
	Select string
	// Populate is the default reference join applied to reads.
	Populate *Populate
	// EmbeddedPath, when set, switches create/update/delete to operate on
	// the sub-document array stored under this field of a parent document.
	EmbeddedPath string
	// BodyFields is a space-separated allow/deny list applied to request
	// bodies ("-x" denies x; any unprefixed name makes it an allow-list).
	BodyFields string
	// SearchFields are the text fields the search parameter matches.
	SearchFields []string
	// SoftDelete excludes marked documents from reads and enables
	// SoftDeleteOne.
	SoftDelete bool
	// DefaultSort overrides the most-recent-first default ordering.
	DefaultSort bson.D
}

// Handler binds a Resource to its collection and image store.
type Handler struct {
	db      *mongo.Database
	col     *mongo.Collection
	res     Resource
	store   images.Store
	include []string
	exclude []string
}

// New builds a Handler. The body-field convention is parsed once here, not
// per request.
func New(db *mongo.Database, res Resource, store images.Store) *Handler {
	include, exclude := parseFieldList(res.BodyFields)
	return &Handler{
		db:      db,
		col:     db.Collection(res.Collection),
		res:     res,
		store:   store,
		include: include,
		exclude: exclude,
	}
}

func (h *Handler) embedded() bool { return h.res.EmbeddedPath != "" }

// errNoDoc builds the NotFound for a missing document, or for a missing
// element inside an existing parent when embedded is true.
func (h *Handler) errNoDoc(id string, embeddedDoc bool) *apperr.Error {
	if h.embedded() && embeddedDoc {
		return apperr.NotFound("No %s found with ID %s in this %s",
			plural.Singular(h.res.EmbeddedPath), id, h.res.Name)
	}
	return apperr.NotFound("No %s found with ID %s", h.res.Name, id)
}

// baseFilter is the route-independent read filter (soft-delete exclusion).
func (h *Handler) baseFilter() bson.M {
	if h.res.SoftDelete {
		return bson.M{"deleted": bson.M{"$ne": true}}
	}
	return bson.M{}
}

// selection resolves the effective projection: embedded resources always
// select just the embedded path; otherwise per-call select overrides the
// resource default, which overrides the global default, and AddSelect
// appends.
func (h *Handler) selection(opts Options) bson.D {
	if h.embedded() {
		return bson.D{{Key: h.res.EmbeddedPath, Value: 1}}
	}
	sel := opts.Select
	if sel == "" {
		sel = h.res.Select
	}
	if sel == "" {
		sel = defaultSelect
	}
	if opts.AddSelect != "" {
		sel += " " + opts.AddSelect
	}
	return parseProjection(sel)
}

// parseFieldList splits a space-separated field convention into an explicit
// allow list and deny list.
func parseFieldList(spec string) (include, exclude []string) {
	for _, field := range strings.Fields(spec) {
		if strings.HasPrefix(field, "-") {
			exclude = append(exclude, field[1:])
		} else {
			include = append(include, field)
		}
	}
	return include, exclude
}

// parseProjection turns an "a -b" selection mask into a Mongo projection.
// An inclusion list wins over exclusions since the store forbids mixing.
func parseProjection(spec string) bson.D {
	var include, exclude bson.D
	for _, field := range strings.Fields(spec) {
		if strings.HasPrefix(field, "-") {
			exclude = append(exclude, bson.E{Key: field[1:], Value: 0})
		} else {
			include = append(include, bson.E{Key: field, Value: 1})
		}
	}
	if len(include) > 0 {
		return include
	}
	return exclude
}
