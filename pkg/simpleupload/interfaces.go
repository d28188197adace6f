package simpleupload

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// BlobStore defines the interface for storage backends
type BlobStore interface {
	// Upload writes the full byte stream under the given key. The key must
	// not become visible with partial content.
	Upload(ctx context.Context, key string, reader io.Reader) error

	// Download returns a reader over the stored bytes
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the bytes. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether a key is present in the store
	Exists(ctx context.Context, key string) (bool, error)

	// Meta retrieves storage-level metadata for a key
	Meta(ctx context.Context, key string) (*ObjectMeta, error)
}

// KeyEnumerator is implemented by blob stores that can list and rename keys.
// The reconciliation sweep requires it; object stores without cheap rename
// simply don't implement it.
type KeyEnumerator interface {
	ListKeys(ctx context.Context) ([]string, error)
	Rename(ctx context.Context, oldKey, newKey string) error
}

// Repository defines the interface for file record persistence
type Repository interface {
	CreateFile(ctx context.Context, record *FileRecord) error
	GetFile(ctx context.Context, id uuid.UUID) (*FileRecord, error)
	GetFileByHash(ctx context.Context, contentHash string) (*FileRecord, error)
	GetFileByStoredName(ctx context.Context, storedName string) (*FileRecord, error)
	UpdateStoredName(ctx context.Context, id uuid.UUID, storedName string) error
	DeleteFile(ctx context.Context, id uuid.UUID) error

	// SearchFiles returns records matching the filter, ordered by uploaded_at
	// descending with id descending as the tie-breaker. Relative date buckets
	// are resolved against now.
	SearchFiles(ctx context.Context, filter SearchFilter, now time.Time) ([]*FileRecord, error)
}

// ObjectMeta contains storage-level metadata about a stored object
type ObjectMeta struct {
	Key         string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
}
