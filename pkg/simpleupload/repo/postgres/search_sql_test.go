package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tendant/simple-upload/pkg/simpleupload"
)

func TestBuildSearchWhereEmpty(t *testing.T) {
	where, args := buildSearchWhere(simpleupload.SearchFilter{}.Normalize(), time.Now())
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestBuildSearchWhereFilenameQuery(t *testing.T) {
	filter := simpleupload.SearchFilter{Query: "report"}.Normalize()
	where, args := buildSearchWhere(filter, time.Now())

	assert.Equal(t, "WHERE (original_filename ILIKE $1 OR mime_type ILIKE $1)", where)
	assert.Equal(t, []interface{}{"%report%"}, args)
}

func TestBuildSearchWhereContentQuery(t *testing.T) {
	filter := simpleupload.SearchFilter{Query: "budget", Scope: simpleupload.ScopeContent}.Normalize()
	where, args := buildSearchWhere(filter, time.Now())

	assert.Equal(t, "WHERE text_content ILIKE $1", where)
	assert.Equal(t, []interface{}{"%budget%"}, args)
}

func TestBuildSearchWhereEscapesLikeMetacharacters(t *testing.T) {
	filter := simpleupload.SearchFilter{Query: `50%_\done`}.Normalize()
	_, args := buildSearchWhere(filter, time.Now())

	assert.Equal(t, []interface{}{`%50\%\_\\done%`}, args)
}

func TestBuildSearchWhereDateBucket(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
	filter := simpleupload.SearchFilter{DateBucket: simpleupload.DateWeek}.Normalize()
	where, args := buildSearchWhere(filter, now)

	assert.Equal(t, "WHERE uploaded_at >= $1", where)
	assert.Equal(t, []interface{}{now.AddDate(0, 0, -7)}, args)
}

func TestBuildSearchWhereExplicitDateRange(t *testing.T) {
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 30, 23, 59, 59, 0, time.UTC)
	filter := simpleupload.SearchFilter{DateFrom: &from, DateTo: &to}.Normalize()
	where, args := buildSearchWhere(filter, time.Now())

	assert.Equal(t, "WHERE uploaded_at >= $1 AND uploaded_at <= $2", where)
	assert.Equal(t, []interface{}{from, to}, args)
}

func TestBuildSearchWhereSizeBuckets(t *testing.T) {
	now := time.Now()

	where, args := buildSearchWhere(simpleupload.SearchFilter{SizeBucket: simpleupload.SizeSmall}.Normalize(), now)
	assert.Equal(t, "WHERE size_bytes < $1", where)
	assert.Equal(t, []interface{}{simpleupload.SmallMaxBytes}, args)

	where, args = buildSearchWhere(simpleupload.SearchFilter{SizeBucket: simpleupload.SizeMedium}.Normalize(), now)
	assert.Equal(t, "WHERE size_bytes >= $1 AND size_bytes < $2", where)
	assert.Equal(t, []interface{}{simpleupload.SmallMaxBytes, simpleupload.MediumMaxBytes}, args)

	where, args = buildSearchWhere(simpleupload.SearchFilter{SizeBucket: simpleupload.SizeLarge}.Normalize(), now)
	assert.Equal(t, "WHERE size_bytes >= $1", where)
	assert.Equal(t, []interface{}{simpleupload.MediumMaxBytes}, args)
}

func TestBuildSearchWhereCategoryPrefix(t *testing.T) {
	filter := simpleupload.SearchFilter{Category: simpleupload.CategoryImage}.Normalize()
	where, args := buildSearchWhere(filter, time.Now())

	assert.Equal(t, "WHERE (LOWER(mime_type) LIKE $1)", where)
	assert.Equal(t, []interface{}{"image/%"}, args)
}

func TestBuildSearchWhereCategoryDocument(t *testing.T) {
	filter := simpleupload.SearchFilter{Category: simpleupload.CategoryDocument}.Normalize()
	where, args := buildSearchWhere(filter, time.Now())

	// Prefix plus exact list, minus the spreadsheet and code carve-outs.
	assert.Contains(t, where, "LOWER(mime_type) LIKE $1")
	assert.Contains(t, where, "LOWER(mime_type) = ANY($2)")
	assert.Contains(t, where, "AND NOT (LOWER(mime_type) = ANY($3))")
	assert.Len(t, args, 3)
	assert.Equal(t, "text/%", args[0])
}

func TestBuildSearchWhereCategoryOtherNegates(t *testing.T) {
	filter := simpleupload.SearchFilter{Category: simpleupload.CategoryOther}.Normalize()
	where, _ := buildSearchWhere(filter, time.Now())

	assert.Contains(t, where, "WHERE NOT (")
}

func TestBuildSearchWhereCombined(t *testing.T) {
	filter := simpleupload.SearchFilter{
		Query:      "report",
		Category:   simpleupload.CategoryImage,
		DateBucket: simpleupload.DateMonth,
		SizeBucket: simpleupload.SizeSmall,
	}.Normalize()
	where, args := buildSearchWhere(filter, time.Now())

	assert.Equal(t,
		"WHERE (original_filename ILIKE $1 OR mime_type ILIKE $1)"+
			" AND (LOWER(mime_type) LIKE $2)"+
			" AND uploaded_at >= $3 AND size_bytes < $4",
		where)
	assert.Len(t, args, 4)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `plain`, escapeLike(`plain`))
	assert.Equal(t, `100\%`, escapeLike(`100%`))
	assert.Equal(t, `a\_b`, escapeLike(`a_b`))
	assert.Equal(t, `c:\\dir`, escapeLike(`c:\dir`))
}
