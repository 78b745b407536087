package query

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestPaginate_Defaults(t *testing.T) {
	f := New(url.Values{}, nil).Paginate(120)

	p := f.Pagination()
	require.Equal(t, 1, p.CurrentPage)
	require.Equal(t, 50, p.Limit)
	require.Equal(t, 3, p.NumberOfPages)
	require.Equal(t, 2, p.Next)
	require.Zero(t, p.Previous)
	require.Equal(t, int64(0), f.skip)
}

func TestPaginate_SkipMath(t *testing.T) {
	raw := url.Values{"page": {"4"}, "limit": {"15"}}
	f := New(raw, nil).Paginate(100)

	require.Equal(t, int64(45), f.skip)
	require.Equal(t, int64(15), f.limit)
}

func TestPaginate_MiddlePageScenario(t *testing.T) {
	// 25 documents, page 2 of 10: items 11-20, pages 1..3
	raw := url.Values{"page": {"2"}, "limit": {"10"}, "sort": {"-createdAt"}}
	f := New(raw, nil).Paginate(25)

	p := f.Pagination()
	require.Equal(t, PaginationResult{CurrentPage: 2, Limit: 10, NumberOfPages: 3, Next: 3, Previous: 1}, p)
	require.Equal(t, int64(10), f.skip)
}

func TestPaginate_LastPageHasNoNext(t *testing.T) {
	raw := url.Values{"page": {"3"}, "limit": {"10"}}
	p := New(raw, nil).Paginate(25).Pagination()

	require.Zero(t, p.Next)
	require.Equal(t, 2, p.Previous)
}

func TestPaginate_InvalidValuesFallBack(t *testing.T) {
	raw := url.Values{"page": {"-2"}, "limit": {"abc"}}
	p := New(raw, nil).Paginate(10).Pagination()

	require.Equal(t, 1, p.CurrentPage)
	require.Equal(t, 50, p.Limit)
}

func TestFilter_RangeOperators(t *testing.T) {
	raw := url.Values{"year[gte]": {"2"}, "year[lte]": {"4"}, "score[gt]": {"12.5"}}
	c := New(raw, nil).Filter().Criteria()

	require.Equal(t, bson.M{"$gte": int64(2), "$lte": int64(4)}, c["year"])
	require.Equal(t, bson.M{"$gt": 12.5}, c["score"])
}

func TestFilter_EqualityAndReservedKeys(t *testing.T) {
	raw := url.Values{
		"role":  {"student"},
		"page":  {"2"},
		"sort":  {"-name"},
		"limit": {"5"},
	}
	c := New(raw, nil).Filter().Criteria()

	require.Equal(t, "student", c["role"])
	require.NotContains(t, c, "page")
	require.NotContains(t, c, "sort")
	require.NotContains(t, c, "limit")
}

func TestFilter_MalformedOperatorIsLiteralKey(t *testing.T) {
	raw := url.Values{"year[between]": {"3"}, "name[": {"x"}}
	c := New(raw, nil).Filter().Criteria()

	require.Equal(t, bson.M{"$in": []interface{}{"3", int64(3)}}, c["year[between]"])
	require.Equal(t, "x", c["name["])
}

func TestFilter_DigitStringMatchesStringTypedFields(t *testing.T) {
	// nationalId, accountNumber and phone are stored as strings; an equality
	// filter on them must not lose the string form to numeric casting
	raw := url.Values{"nationalId": {"29805120123456"}, "score": {"12.5"}}
	c := New(raw, nil).Filter().Criteria()

	require.Equal(t,
		bson.M{"$in": []interface{}{"29805120123456", int64(29805120123456)}},
		c["nationalId"])
	require.Equal(t, bson.M{"$in": []interface{}{"12.5", 12.5}}, c["score"])
}

func TestFilter_MultiValueKeepsBothForms(t *testing.T) {
	raw := url.Values{"year": {"2", "3"}}
	c := New(raw, nil).Filter().Criteria()

	require.Equal(t,
		bson.M{"$in": []interface{}{"2", int64(2), "3", int64(3)}},
		c["year"])
}

func TestFilter_MergesBaseFilter(t *testing.T) {
	base := bson.M{"deleted": bson.M{"$ne": true}}
	raw := url.Values{"role": {"student"}}
	c := New(raw, base).Filter().Criteria()

	require.Equal(t, bson.M{"$ne": true}, c["deleted"])
	require.Equal(t, "student", c["role"])
}

func TestFilter_ObjectIDValues(t *testing.T) {
	oid := primitive.NewObjectID()
	raw := url.Values{"faculty": {oid.Hex()}}
	c := New(raw, nil).Filter().Criteria()

	require.Equal(t, oid, c["faculty"])
}

func TestSearch_BuildsCaseInsensitiveOr(t *testing.T) {
	raw := url.Values{"search": {"math"}}
	c := New(raw, nil).Filter().Search("name", "nickname").Criteria()

	or, ok := c["$or"].([]bson.M)
	require.True(t, ok)
	require.Len(t, or, 2)
	require.Equal(t, bson.M{"$regex": "math", "$options": "i"}, or[0]["name"])
	require.Equal(t, bson.M{"$regex": "math", "$options": "i"}, or[1]["nickname"])
}

func TestSearch_AbsentTermLeavesCriteria(t *testing.T) {
	c := New(url.Values{}, nil).Search("name").Criteria()
	require.NotContains(t, c, "$or")
}

func TestSearch_TermIsEscaped(t *testing.T) {
	raw := url.Values{"search": {"a.b*"}}
	c := New(raw, nil).Search("name").Criteria()

	or := c["$or"].([]bson.M)
	require.Equal(t, bson.M{"$regex": `a\.b\*`, "$options": "i"}, or[0]["name"])
}

func TestLimitFields_OverridesDefault(t *testing.T) {
	def := bson.D{{Key: "password", Value: 0}}
	raw := url.Values{"fields": {"name,email"}}
	f := New(raw, nil).LimitFields(def)

	require.Equal(t, bson.D{{Key: "name", Value: 1}, {Key: "email", Value: 1}}, f.Projection())
}

func TestLimitFields_KeepsDefaultWithoutParam(t *testing.T) {
	def := bson.D{{Key: "password", Value: 0}}
	f := New(url.Values{}, nil).LimitFields(def)

	require.Equal(t, def, f.Projection())
}

func TestLimitFields_ExclusionList(t *testing.T) {
	raw := url.Values{"fields": {"-password,-emailOTP"}}
	f := New(raw, nil).LimitFields(nil)

	require.Equal(t, bson.D{{Key: "password", Value: 0}, {Key: "emailOTP", Value: 0}}, f.Projection())
}

func TestSort_ParamAndDefault(t *testing.T) {
	raw := url.Values{"sort": {"-createdAt,name"}}
	f := New(raw, nil).Sort(nil)
	require.Equal(t, bson.D{{Key: "createdAt", Value: -1}, {Key: "name", Value: 1}}, f.sort)

	f = New(url.Values{}, nil).Sort(nil)
	require.Equal(t, bson.D{{Key: "createdAt", Value: -1}}, f.sort)

	def := bson.D{{Key: "name", Value: 1}}
	f = New(url.Values{}, nil).Sort(def)
	require.Equal(t, def, f.sort)
}

func TestFindOptions_CarriesAllDimensions(t *testing.T) {
	raw := url.Values{"page": {"2"}, "limit": {"10"}, "sort": {"-name"}, "fields": {"name"}}
	f := New(raw, nil).Paginate(25).Filter().Search("name").LimitFields(nil).Sort(nil)

	opts := f.FindOptions()
	require.Equal(t, int64(10), *opts.Skip)
	require.Equal(t, int64(10), *opts.Limit)
	require.NotNil(t, opts.Sort)
	require.NotNil(t, opts.Projection)
}
