package simpleupload

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrFileNotFound indicates a file record was not found
	ErrFileNotFound = errors.New("file not found")

	// ErrObjectNotFound indicates a storage key with no bytes behind it
	ErrObjectNotFound = errors.New("object not found")

	// ErrEmptyUpload indicates an upload with no content
	ErrEmptyUpload = errors.New("empty upload")

	// ErrDuplicateContent indicates content with the same hash already exists
	ErrDuplicateContent = errors.New("duplicate content")

	// ErrStorageNameExhausted indicates the unique-name retry ceiling was hit
	ErrStorageNameExhausted = errors.New("storage name attempts exhausted")

	// ErrInvalidStoredName indicates a storage name outside the expected shape
	ErrInvalidStoredName = errors.New("invalid stored name")

	// ErrReconcileUnsupported indicates the blob store cannot enumerate or rename keys
	ErrReconcileUnsupported = errors.New("storage backend does not support reconciliation")
)

// FileError represents an error related to file record operations
type FileError struct {
	FileID uuid.UUID
	Op     string
	Err    error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("file operation %s failed for file %s: %v", e.Op, e.FileID, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// StorageError represents an error related to blob store operations
type StorageError struct {
	Key string
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// MetadataError represents a failure committing or reading file metadata
type MetadataError struct {
	Op  string
	Err error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("metadata operation %s failed: %v", e.Op, e.Err)
}

func (e *MetadataError) Unwrap() error {
	return e.Err
}
