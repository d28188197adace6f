package simpleupload

import (
	"fmt"
	"strings"
	"time"
)

// minQueryLength is the shortest text query the search engine honors;
// anything shorter is treated as no constraint.
const minQueryLength = 2

// SearchFilter is the structured filter for list/search queries. Every field
// is optional; the zero value matches everything. Build one from raw request
// values and call Normalize before handing it to a Repository.
type SearchFilter struct {
	Query      string      `json:"query,omitempty"`
	Scope      SearchScope `json:"scope,omitempty"`
	Category   Category    `json:"category,omitempty"`
	DateBucket DateBucket  `json:"date_bucket,omitempty"`
	DateFrom   *time.Time  `json:"date_from,omitempty"`
	DateTo     *time.Time  `json:"date_to,omitempty"`
	SizeBucket SizeBucket  `json:"size_bucket,omitempty"`
}

// Normalize returns a copy with malformed enum values dropped, short queries
// cleared, and the default scope applied. Malformed values are ignored, not
// errors, so stale clients degrade to broader results instead of failing.
func (f SearchFilter) Normalize() SearchFilter {
	n := f

	n.Query = strings.TrimSpace(n.Query)
	if len(n.Query) < minQueryLength {
		n.Query = ""
	}

	switch n.Scope {
	case ScopeFilename, ScopeContent:
	default:
		n.Scope = ScopeFilename
	}

	if n.Category != "" {
		if c, ok := ParseCategory(string(n.Category)); ok {
			n.Category = c
		} else {
			n.Category = ""
		}
	}

	switch n.DateBucket {
	case DateToday, DateWeek, DateMonth, DateYear:
	default:
		n.DateBucket = ""
	}

	switch n.SizeBucket {
	case SizeSmall, SizeMedium, SizeLarge:
	default:
		n.SizeBucket = ""
	}

	return n
}

// DateFloor resolves a relative date bucket to its inclusive lower bound.
// The today bucket floors to the start of the current day; the others are
// fixed windows back from now.
func (b DateBucket) DateFloor(now time.Time) time.Time {
	switch b {
	case DateToday:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	case DateWeek:
		return now.AddDate(0, 0, -7)
	case DateMonth:
		return now.AddDate(0, 0, -30)
	case DateYear:
		return now.AddDate(0, 0, -365)
	default:
		return time.Time{}
	}
}

// SizeRange returns the [min, max) byte bounds of a size bucket. A zero max
// means unbounded.
func (b SizeBucket) SizeRange() (min, max int64) {
	switch b {
	case SizeSmall:
		return 0, SmallMaxBytes
	case SizeMedium:
		return SmallMaxBytes, MediumMaxBytes
	case SizeLarge:
		return MediumMaxBytes, 0
	default:
		return 0, 0
	}
}

// Matches reports whether a record satisfies every active predicate of the
// (normalized) filter at the given reference time. This is the in-memory
// counterpart of the SQL the postgres repository generates; the two must
// agree.
func (f SearchFilter) Matches(rec *FileRecord, now time.Time) bool {
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		switch f.Scope {
		case ScopeContent:
			if rec.TextContent == nil || !strings.Contains(strings.ToLower(*rec.TextContent), q) {
				return false
			}
		default:
			if !strings.Contains(strings.ToLower(rec.OriginalFilename), q) &&
				!strings.Contains(strings.ToLower(rec.MimeType), q) {
				return false
			}
		}
	}

	if f.Category != "" && !MatchesCategory(rec.MimeType, f.Category) {
		return false
	}

	if f.DateBucket != "" {
		if rec.UploadedAt.Before(f.DateBucket.DateFloor(now)) {
			return false
		}
	}
	if f.DateFrom != nil && rec.UploadedAt.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && rec.UploadedAt.After(*f.DateTo) {
		return false
	}

	if f.SizeBucket != "" {
		min, max := f.SizeBucket.SizeRange()
		if rec.SizeBytes < min {
			return false
		}
		if max > 0 && rec.SizeBytes >= max {
			return false
		}
	}

	return true
}

// CacheKey encodes the normalized filter into a canonical, order-independent
// string: identical queries produce identical keys regardless of how the
// client spelled or omitted parameters.
func (f SearchFilter) CacheKey() string {
	n := f.Normalize()

	from, to := "", ""
	if n.DateFrom != nil {
		from = n.DateFrom.UTC().Format(time.RFC3339)
	}
	if n.DateTo != nil {
		to = n.DateTo.UTC().Format(time.RFC3339)
	}

	return fmt.Sprintf("q=%s|scope=%s|cat=%s|date=%s|from=%s|to=%s|size=%s",
		strings.ToLower(n.Query), n.Scope, n.Category, n.DateBucket, from, to, n.SizeBucket)
}
