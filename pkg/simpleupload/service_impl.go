package simpleupload

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// maxNameAttempts bounds the unique-name retry loop. With 128-bit random
// names the loop terminates on the first attempt in practice; the ceiling
// exists so a misbehaving store cannot spin forever.
const maxNameAttempts = 1000

// defaultMimeType is used when neither the caller nor the filename extension
// yields a content type.
const defaultMimeType = "application/octet-stream"

// service implements the Service interface
type service struct {
	repository Repository
	store      BlobStore
	logger     *slog.Logger
	hashes     *hashLock
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithBlobStore sets the blob storage backend
func WithBlobStore(store BlobStore) Option {
	return func(s *service) {
		s.store = store
	}
}

// WithLogger sets the logger for the service
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		hashes: newHashLock(),
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.store == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s, nil
}

func (s *service) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	if req.Reader == nil {
		return nil, ErrEmptyUpload
	}

	data, err := io.ReadAll(req.Reader)
	if err != nil {
		return nil, fmt.Errorf("reading upload content: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyUpload
	}

	sum := sha256.Sum256(data)
	contentHash := hex.EncodeToString(sum[:])

	// Serialize the lookup-then-write sequence per content hash. The unique
	// index on content_hash in the postgres repository is the backstop for
	// multi-process deployments.
	s.hashes.lock(contentHash)
	defer s.hashes.unlock(contentHash)

	existing, err := s.repository.GetFileByHash(ctx, contentHash)
	if err == nil {
		s.logger.Info("duplicate upload short-circuited",
			"content_hash", contentHash, "file_id", existing.ID, "file_name", req.FileName)
		return &IngestResult{Record: existing, Duplicate: true}, nil
	}
	if !errors.Is(err, ErrFileNotFound) {
		return nil, &MetadataError{Op: "lookup_hash", Err: err}
	}

	mimeType := resolveMimeType(req.DeclaredMimeType, req.FileName)

	storedName, err := s.ensureUniqueName(ctx, GenerateStorageName(req.FileName))
	if err != nil {
		return nil, err
	}
	if err := ValidateStoredName(storedName); err != nil {
		return nil, err
	}

	// Bytes first, record second. A record must never point at bytes that
	// were not durably written.
	if err := s.store.Upload(ctx, storedName, bytes.NewReader(data)); err != nil {
		return nil, &StorageError{Key: storedName, Op: "upload", Err: err}
	}

	record := &FileRecord{
		ID:               uuid.New(),
		StoredName:       storedName,
		OriginalFilename: req.FileName,
		MimeType:         mimeType,
		Category:         Classify(mimeType),
		SizeBytes:        int64(len(data)),
		ContentHash:      contentHash,
		UploadedAt:       time.Now().UTC(),
		TextContent:      req.TextContent,
	}

	if err := s.repository.CreateFile(ctx, record); err != nil {
		// Roll back the written bytes so no orphan is left behind.
		if delErr := s.store.Delete(ctx, storedName); delErr != nil {
			s.logger.Error("failed to roll back stored bytes after metadata failure",
				"stored_name", storedName, "error", delErr)
		}

		if errors.Is(err, ErrDuplicateContent) {
			// Lost the race against another process; the winner's record is
			// the canonical one.
			if existing, getErr := s.repository.GetFileByHash(ctx, contentHash); getErr == nil {
				return &IngestResult{Record: existing, Duplicate: true}, nil
			}
		}
		return nil, &MetadataError{Op: "create_file", Err: err}
	}

	s.logger.Info("file ingested",
		"file_id", record.ID, "stored_name", storedName,
		"size_bytes", record.SizeBytes, "category", record.Category)

	return &IngestResult{Record: record, Duplicate: false}, nil
}

func (s *service) GetFile(ctx context.Context, id uuid.UUID) (*FileRecord, error) {
	return s.repository.GetFile(ctx, id)
}

func (s *service) DownloadFile(ctx context.Context, id uuid.UUID) (io.ReadCloser, *FileRecord, error) {
	record, err := s.repository.GetFile(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	reader, err := s.store.Download(ctx, record.StoredName)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			// Record present but bytes missing: the caller sees not-found
			// either way.
			return nil, nil, fmt.Errorf("%w: bytes missing for %s", ErrFileNotFound, record.StoredName)
		}
		return nil, nil, &StorageError{Key: record.StoredName, Op: "download", Err: err}
	}

	return reader, record, nil
}

func (s *service) SearchFiles(ctx context.Context, filter SearchFilter) ([]*FileRecord, error) {
	return s.repository.SearchFiles(ctx, filter.Normalize(), time.Now().UTC())
}

func (s *service) DeleteFile(ctx context.Context, id uuid.UUID) error {
	record, err := s.repository.GetFile(ctx, id)
	if err != nil {
		return err
	}

	// Bytes go first. An absent key is success; a present but undeletable
	// key aborts with the record intact.
	if err := s.store.Delete(ctx, record.StoredName); err != nil {
		return &StorageError{Key: record.StoredName, Op: "delete", Err: err}
	}

	if err := s.repository.DeleteFile(ctx, id); err != nil {
		return &FileError{FileID: id, Op: "delete", Err: err}
	}

	s.logger.Info("file deleted", "file_id", id, "stored_name", record.StoredName)
	return nil
}

func (s *service) ReconcileStorageNames(ctx context.Context) (int, error) {
	enum, ok := s.store.(KeyEnumerator)
	if !ok {
		return 0, ErrReconcileUnsupported
	}

	keys, err := enum.ListKeys(ctx)
	if err != nil {
		return 0, &StorageError{Op: "list_keys", Err: err}
	}

	renamed := 0
	for _, key := range keys {
		if ValidateStoredName(key) == nil {
			continue
		}

		newName, err := s.ensureUniqueName(ctx, GenerateStorageName(key))
		if err != nil {
			return renamed, err
		}

		if err := enum.Rename(ctx, key, newName); err != nil {
			s.logger.Error("failed to rename non-conforming file", "key", key, "error", err)
			continue
		}
		renamed++

		record, err := s.repository.GetFileByStoredName(ctx, key)
		if err != nil {
			if !errors.Is(err, ErrFileNotFound) {
				s.logger.Error("lookup failed during reconciliation", "key", key, "error", err)
			}
			// No record points at this file; the rename alone is enough.
			continue
		}
		if err := s.repository.UpdateStoredName(ctx, record.ID, newName); err != nil {
			s.logger.Error("failed to update record during reconciliation",
				"file_id", record.ID, "key", key, "error", err)
			continue
		}
		s.logger.Info("renamed stored file", "old", key, "new", newName, "file_id", record.ID)
	}

	return renamed, nil
}

// ensureUniqueName verifies a candidate name is free in the store, appending
// a short random suffix and retrying when it is not. Attempts are bounded.
func (s *service) ensureUniqueName(ctx context.Context, candidate string) (string, error) {
	name := candidate
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		exists, err := s.store.Exists(ctx, name)
		if err != nil {
			return "", &StorageError{Key: name, Op: "exists", Err: err}
		}
		if !exists {
			return name, nil
		}
		name = DisambiguateStorageName(candidate)
	}
	return "", fmt.Errorf("%w: %q after %d attempts", ErrStorageNameExhausted, candidate, maxNameAttempts)
}

// resolveMimeType picks the record's MIME type: the declared content type
// wins, then an extension-based guess, then the generic default. The result
// never carries media-type parameters.
func resolveMimeType(declared, fileName string) string {
	if mt := strings.TrimSpace(declared); mt != "" {
		return stripMimeParams(mt)
	}
	if ext := filepath.Ext(fileName); ext != "" {
		if mt := mime.TypeByExtension(strings.ToLower(ext)); mt != "" {
			return stripMimeParams(mt)
		}
	}
	return defaultMimeType
}

func stripMimeParams(mt string) string {
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	return strings.ToLower(strings.TrimSpace(mt))
}
