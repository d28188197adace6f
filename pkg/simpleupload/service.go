package simpleupload

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// Service is the main interface for the upload, search and download
// operations of the content-addressed store.
type Service interface {
	// Ingest hashes the incoming content, short-circuits on known content,
	// and otherwise stores the bytes and persists a new record. Bytes are
	// durably written before the record is committed; a failed commit rolls
	// the written bytes back.
	Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error)

	// GetFile returns the record for an id
	GetFile(ctx context.Context, id uuid.UUID) (*FileRecord, error)

	// DownloadFile returns the stored bytes and the record they belong to.
	// A record whose bytes are missing from the store reports ErrFileNotFound.
	DownloadFile(ctx context.Context, id uuid.UUID) (io.ReadCloser, *FileRecord, error)

	// SearchFiles returns records matching the filter, most recent first
	SearchFiles(ctx context.Context, filter SearchFilter) ([]*FileRecord, error)

	// DeleteFile removes the stored bytes and then the record. Bytes already
	// absent are treated as successfully removed; bytes present but
	// undeletable abort the deletion with the record intact.
	DeleteFile(ctx context.Context, id uuid.UUID) error

	// ReconcileStorageNames renames stored files that do not conform to the
	// UUID naming shape and updates their records. Returns the number of
	// renamed files. Requires a blob store implementing KeyEnumerator.
	ReconcileStorageNames(ctx context.Context) (int, error)
}
