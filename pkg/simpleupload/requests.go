package simpleupload

import "io"

// Request/Response DTOs

// IngestRequest contains parameters for ingesting an upload
type IngestRequest struct {
	// Reader supplies the raw content. It is consumed fully; the gate hashes
	// the bytes before any storage write.
	Reader io.Reader

	// FileName is the user-supplied original filename.
	FileName string

	// DeclaredMimeType is the content type declared by the caller, if any.
	// It takes precedence over extension-based guessing.
	DeclaredMimeType string

	// TextContent optionally carries an extracted plain-text body for
	// content search.
	TextContent *string
}

// IngestResult is the outcome of an ingest
type IngestResult struct {
	// Record is the canonical record for the content: freshly created, or
	// the pre-existing record when the content was already known.
	Record *FileRecord

	// Duplicate is true when byte-identical content was already stored and
	// no new bytes or record were written.
	Duplicate bool
}
