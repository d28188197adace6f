package simpleupload_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/tendant/simple-upload/pkg/simpleupload"
)

func TestSearchFilterNormalize(t *testing.T) {
	t.Run("short query is dropped", func(t *testing.T) {
		n := simpleupload.SearchFilter{Query: "a"}.Normalize()
		assert.Empty(t, n.Query)
	})

	t.Run("whitespace-only query is dropped", func(t *testing.T) {
		n := simpleupload.SearchFilter{Query: "   "}.Normalize()
		assert.Empty(t, n.Query)
	})

	t.Run("two characters survive", func(t *testing.T) {
		n := simpleupload.SearchFilter{Query: " ab "}.Normalize()
		assert.Equal(t, "ab", n.Query)
	})

	t.Run("default scope is filename", func(t *testing.T) {
		n := simpleupload.SearchFilter{}.Normalize()
		assert.Equal(t, simpleupload.ScopeFilename, n.Scope)
	})

	t.Run("unknown scope falls back to filename", func(t *testing.T) {
		n := simpleupload.SearchFilter{Scope: "metadata"}.Normalize()
		assert.Equal(t, simpleupload.ScopeFilename, n.Scope)
	})

	t.Run("malformed enums are cleared not rejected", func(t *testing.T) {
		n := simpleupload.SearchFilter{
			Category:   "pictures",
			DateBucket: "fortnight",
			SizeBucket: "huge",
		}.Normalize()
		assert.Empty(t, n.Category)
		assert.Empty(t, n.DateBucket)
		assert.Empty(t, n.SizeBucket)
	})

	t.Run("valid enums pass through", func(t *testing.T) {
		n := simpleupload.SearchFilter{
			Scope:      simpleupload.ScopeContent,
			Category:   simpleupload.CategoryImage,
			DateBucket: simpleupload.DateWeek,
			SizeBucket: simpleupload.SizeLarge,
		}.Normalize()
		assert.Equal(t, simpleupload.ScopeContent, n.Scope)
		assert.Equal(t, simpleupload.CategoryImage, n.Category)
		assert.Equal(t, simpleupload.DateWeek, n.DateBucket)
		assert.Equal(t, simpleupload.SizeLarge, n.SizeBucket)
	})
}

func TestDateFloor(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), simpleupload.DateToday.DateFloor(now))
	assert.Equal(t, now.AddDate(0, 0, -7), simpleupload.DateWeek.DateFloor(now))
	assert.Equal(t, now.AddDate(0, 0, -30), simpleupload.DateMonth.DateFloor(now))
	assert.Equal(t, now.AddDate(0, 0, -365), simpleupload.DateYear.DateFloor(now))
}

func TestSizeRange(t *testing.T) {
	min, max := simpleupload.SizeSmall.SizeRange()
	assert.Equal(t, int64(0), min)
	assert.Equal(t, int64(1<<20), max)

	min, max = simpleupload.SizeMedium.SizeRange()
	assert.Equal(t, int64(1<<20), min)
	assert.Equal(t, int64(10<<20), max)

	min, max = simpleupload.SizeLarge.SizeRange()
	assert.Equal(t, int64(10<<20), min)
	assert.Equal(t, int64(0), max)
}

func TestSearchFilterMatches(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
	text := "quarterly revenue summary"
	rec := &simpleupload.FileRecord{
		ID:               uuid.New(),
		OriginalFilename: "Q2-Report.pdf",
		MimeType:         "application/pdf",
		Category:         simpleupload.CategoryDocument,
		SizeBytes:        2 << 20,
		UploadedAt:       now.AddDate(0, 0, -2),
		TextContent:      &text,
	}

	tests := []struct {
		name    string
		filter  simpleupload.SearchFilter
		matches bool
	}{
		{"zero filter matches everything", simpleupload.SearchFilter{}, true},
		{"filename substring case-insensitive", simpleupload.SearchFilter{Query: "q2-report"}, true},
		{"filename scope also matches mime type", simpleupload.SearchFilter{Query: "pdf"}, true},
		{"filename miss", simpleupload.SearchFilter{Query: "invoice"}, false},
		{"content hit", simpleupload.SearchFilter{Query: "Revenue", Scope: simpleupload.ScopeContent}, true},
		{"content miss", simpleupload.SearchFilter{Query: "q2-report", Scope: simpleupload.ScopeContent}, false},
		{"category hit", simpleupload.SearchFilter{Category: simpleupload.CategoryDocument}, true},
		{"category miss", simpleupload.SearchFilter{Category: simpleupload.CategoryImage}, false},
		{"date bucket inside window", simpleupload.SearchFilter{DateBucket: simpleupload.DateWeek}, true},
		{"date bucket outside window", simpleupload.SearchFilter{DateBucket: simpleupload.DateToday}, false},
		{"size bucket hit", simpleupload.SearchFilter{SizeBucket: simpleupload.SizeMedium}, true},
		{"size bucket miss", simpleupload.SearchFilter{SizeBucket: simpleupload.SizeSmall}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.matches, tt.filter.Normalize().Matches(rec, now))
		})
	}

	t.Run("content scope requires text content", func(t *testing.T) {
		noText := *rec
		noText.TextContent = nil
		f := simpleupload.SearchFilter{Query: "revenue", Scope: simpleupload.ScopeContent}.Normalize()
		assert.False(t, f.Matches(&noText, now))
	})

	t.Run("explicit date range bounds", func(t *testing.T) {
		from := now.AddDate(0, 0, -3)
		to := now.AddDate(0, 0, -1)
		f := simpleupload.SearchFilter{DateFrom: &from, DateTo: &to}.Normalize()
		assert.True(t, f.Matches(rec, now))

		tooLate := now.AddDate(0, 0, -1)
		f = simpleupload.SearchFilter{DateFrom: &tooLate}.Normalize()
		assert.False(t, f.Matches(rec, now))
	})
}

func TestCacheKey(t *testing.T) {
	t.Run("canonical across equivalent filters", func(t *testing.T) {
		a := simpleupload.SearchFilter{Query: "Report"}
		b := simpleupload.SearchFilter{Query: "  report ", Scope: "bogus"}
		assert.Equal(t, a.CacheKey(), b.CacheKey())
	})

	t.Run("distinct filters get distinct keys", func(t *testing.T) {
		a := simpleupload.SearchFilter{Query: "report"}
		b := simpleupload.SearchFilter{Query: "report", Category: simpleupload.CategoryImage}
		assert.NotEqual(t, a.CacheKey(), b.CacheKey())
	})

	t.Run("short query keys like empty query", func(t *testing.T) {
		a := simpleupload.SearchFilter{Query: "x"}
		b := simpleupload.SearchFilter{}
		assert.Equal(t, a.CacheKey(), b.CacheKey())
	})
}
