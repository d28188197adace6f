package simpleupload

import (
	"time"

	"github.com/google/uuid"
)

// Category is the coarse classification bucket derived from a MIME type.
type Category string

// Category constants (typed).
const (
	CategoryImage       Category = "image"
	CategoryVideo       Category = "video"
	CategoryAudio       Category = "audio"
	CategorySpreadsheet Category = "spreadsheet"
	CategoryCode        Category = "code"
	CategoryDocument    Category = "document"
	CategoryArchive     Category = "archive"
	CategoryOther       Category = "other"
)

// SearchScope selects which field a text query matches against.
type SearchScope string

// Search scope constants (typed).
const (
	ScopeFilename SearchScope = "filename"
	ScopeContent  SearchScope = "content"
)

// DateBucket is a named relative date range for coarse filtering.
type DateBucket string

// Date bucket constants (typed).
const (
	DateToday DateBucket = "today"
	DateWeek  DateBucket = "week"
	DateMonth DateBucket = "month"
	DateYear  DateBucket = "year"
)

// SizeBucket is a named size range for coarse filtering.
type SizeBucket string

// Size bucket constants (typed).
const (
	SizeSmall  SizeBucket = "small"  // < 1 MiB
	SizeMedium SizeBucket = "medium" // 1 MiB <= size < 10 MiB
	SizeLarge  SizeBucket = "large"  // >= 10 MiB
)

// Size bucket boundaries in bytes.
const (
	SmallMaxBytes  int64 = 1 * 1024 * 1024
	MediumMaxBytes int64 = 10 * 1024 * 1024
)

// FileRecord is the persisted metadata entity for one stored file.
//
// StoredName is the opaque, collision-resistant name the bytes live under in
// the blob store; it is never derived from the user-supplied filename beyond
// the lowercased extension. ContentHash is the hex-encoded SHA-256 digest of
// the full content and is the deduplication key.
type FileRecord struct {
	ID               uuid.UUID `json:"id"`
	StoredName       string    `json:"stored_name"`
	OriginalFilename string    `json:"original_filename"`
	MimeType         string    `json:"mime_type"`
	Category         Category  `json:"category"`
	SizeBytes        int64     `json:"size_bytes"`
	ContentHash      string    `json:"content_hash"`
	UploadedAt       time.Time `json:"uploaded_at"`
	TextContent      *string   `json:"text_content,omitempty"`
}
