// Package query turns raw request query parameters into a MongoDB filter,
// projection, sort and pagination metadata. Stages mirror the list contract:
// Paginate -> Filter -> Search -> LimitFields -> Sort, in that order, because
// later stages mutate the same criteria document earlier stages populated.
package query

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// reserved query keys consumed by the pipeline itself
var reservedKeys = map[string]bool{
	"page":   true,
	"sort":   true,
	"limit":  true,
	"fields": true,
	"search": true,
}

var rangeOps = map[string]string{
	"gte": "$gte",
	"gt":  "$gt",
	"lte": "$lte",
	"lt":  "$lt",
}

const (
	defaultPage  = 1
	defaultLimit = 50
)

// PaginationResult carries paging metadata for list responses. Next is set
// only when page*limit < total; Previous only when page > 1.
type PaginationResult struct {
	CurrentPage   int `json:"currentPage"`
	Limit         int `json:"limit"`
	NumberOfPages int `json:"numberOfPages"`
	Next          int `json:"next,omitempty"`
	Previous      int `json:"previous,omitempty"`
}

// Features accumulates the query state across stages.
type Features struct {
	raw        url.Values
	criteria   bson.M
	projection bson.D
	sort       bson.D
	skip       int64
	limit      int64
	pagination PaginationResult
}

// New starts a pipeline over raw request parameters. base is the route-level
// pre-filter (soft-delete exclusion, ownership scoping); it is copied so the
// caller's map is never mutated.
func New(raw url.Values, base bson.M) *Features {
	criteria := bson.M{}
	for k, v := range base {
		criteria[k] = v
	}
	return &Features{
		raw:      raw,
		criteria: criteria,
		skip:     0,
		limit:    defaultLimit,
	}
}

// Paginate reads page/limit, computes skip and fills the pagination metadata
// from the given total document count.
func (f *Features) Paginate(total int64) *Features {
	page := positiveInt(f.raw.Get("page"), defaultPage)
	limit := positiveInt(f.raw.Get("limit"), defaultLimit)

	f.skip = int64(page-1) * int64(limit)
	f.limit = int64(limit)

	pages := int(total) / limit
	if int(total)%limit != 0 {
		pages++
	}
	f.pagination = PaginationResult{
		CurrentPage:   page,
		Limit:         limit,
		NumberOfPages: pages,
	}
	if int64(page)*int64(limit) < total {
		f.pagination.Next = page + 1
	}
	if page > 1 {
		f.pagination.Previous = page - 1
	}
	return f
}

// Filter folds the remaining query parameters into the criteria document.
// Keys shaped field[gte|gt|lte|lt] become range conditions; anything else is
// an equality match. A malformed bracket suffix is kept as a literal key.
func (f *Features) Filter() *Features {
	for key, values := range f.raw {
		if reservedKeys[key] || len(values) == 0 {
			continue
		}
		if field, op, ok := splitRangeKey(key); ok {
			cond, exists := f.criteria[field].(bson.M)
			if !exists {
				cond = bson.M{}
			}
			cond[op] = rangeValue(values[0])
			f.criteria[field] = cond
			continue
		}
		if len(values) > 1 {
			var in []interface{}
			for _, v := range values {
				in = append(in, equalityValues(v)...)
			}
			f.criteria[key] = bson.M{"$in": in}
			continue
		}
		f.criteria[key] = equalityCriterion(values[0])
	}
	return f
}

// Search broadens the criteria with a case-insensitive OR over the given
// text fields when a search term is present.
func (f *Features) Search(fields ...string) *Features {
	term := f.raw.Get("search")
	if term == "" || len(fields) == 0 {
		return f
	}
	or := make([]bson.M, len(fields))
	pattern := regexp.QuoteMeta(term)
	for i, field := range fields {
		or[i] = bson.M{field: bson.M{"$regex": pattern, "$options": "i"}}
	}
	f.criteria["$or"] = or
	return f
}

// LimitFields replaces the projection with the comma-separated fields
// parameter when present; otherwise def stands.
func (f *Features) LimitFields(def bson.D) *Features {
	f.projection = def
	raw := f.raw.Get("fields")
	if raw == "" {
		return f
	}
	var include, exclude bson.D
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		if strings.HasPrefix(field, "-") {
			exclude = append(exclude, bson.E{Key: field[1:], Value: 0})
		} else {
			include = append(include, bson.E{Key: field, Value: 1})
		}
	}
	// an explicit include list wins; Mongo forbids mixing the two forms
	if len(include) > 0 {
		f.projection = include
	} else if len(exclude) > 0 {
		f.projection = exclude
	}
	return f
}

// Sort applies the comma-separated sort parameter ("-" prefix descends).
// Without a parameter the default ordering is most-recent-first.
func (f *Features) Sort(def bson.D) *Features {
	raw := f.raw.Get("sort")
	if raw == "" {
		if len(def) > 0 {
			f.sort = def
		} else {
			f.sort = bson.D{{Key: "createdAt", Value: -1}}
		}
		return f
	}
	var sort bson.D
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		if strings.HasPrefix(field, "-") {
			sort = append(sort, bson.E{Key: field[1:], Value: -1})
		} else {
			sort = append(sort, bson.E{Key: field, Value: 1})
		}
	}
	if len(sort) == 0 {
		sort = bson.D{{Key: "createdAt", Value: -1}}
	}
	f.sort = sort
	return f
}

// Criteria returns the assembled filter document.
func (f *Features) Criteria() bson.M { return f.criteria }

// Pagination returns the metadata computed by Paginate.
func (f *Features) Pagination() PaginationResult { return f.pagination }

// Projection returns the active projection, nil when unset.
func (f *Features) Projection() bson.D { return f.projection }

// FindOptions renders skip/limit/sort/projection as driver options.
func (f *Features) FindOptions() *options.FindOptions {
	opts := options.Find().SetSkip(f.skip).SetLimit(f.limit)
	if len(f.sort) > 0 {
		opts.SetSort(f.sort)
	}
	if len(f.projection) > 0 {
		opts.SetProjection(f.projection)
	}
	return opts
}

func positiveInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}

// splitRangeKey recognizes "field[op]" where op is a known range operator.
func splitRangeKey(key string) (field, op string, ok bool) {
	open := strings.IndexByte(key, '[')
	if open <= 0 || !strings.HasSuffix(key, "]") {
		return "", "", false
	}
	mongoOp, known := rangeOps[key[open+1:len(key)-1]]
	if !known {
		return "", "", false
	}
	return key[:open], mongoOp, true
}

// rangeValue casts numeric-looking values so range filters compare as
// numbers rather than lexicographically.
func rangeValue(raw string) interface{} {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if fv, err := strconv.ParseFloat(raw, 64); err == nil {
		return fv
	}
	return raw
}

// equalityCriterion builds the match for an equality key. Digit strings must
// keep matching string-typed fields (nationalId, accountNumber, phone), so a
// numeric-looking value matches both its string and numeric forms.
func equalityCriterion(raw string) interface{} {
	values := equalityValues(raw)
	if len(values) == 1 {
		return values[0]
	}
	return bson.M{"$in": values}
}

// equalityValues lists the typed interpretations of one raw value: 24-char
// hex strings become ObjectIDs so reference fields match; numeric-looking
// values yield both the string and the parsed number.
func equalityValues(raw string) []interface{} {
	if len(raw) == 24 {
		if oid, err := primitive.ObjectIDFromHex(raw); err == nil {
			return []interface{}{oid}
		}
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return []interface{}{raw, n}
	}
	if fv, err := strconv.ParseFloat(raw, 64); err == nil {
		return []interface{}{raw, fv}
	}
	return []interface{}{raw}
}
