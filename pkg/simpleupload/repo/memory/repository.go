package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-upload/pkg/simpleupload"
)

// Repository implements simpleupload.Repository using in-memory storage
type Repository struct {
	mu           sync.RWMutex
	files        map[uuid.UUID]*simpleupload.FileRecord
	byHash       map[string]uuid.UUID
	byStoredName map[string]uuid.UUID
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		files:        make(map[uuid.UUID]*simpleupload.FileRecord),
		byHash:       make(map[string]uuid.UUID),
		byStoredName: make(map[string]uuid.UUID),
	}
}

func (r *Repository) CreateFile(ctx context.Context, record *simpleupload.FileRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byHash[record.ContentHash]; exists {
		return simpleupload.ErrDuplicateContent
	}
	// Same guarantee as the stored_name UNIQUE constraint in postgres.
	if _, exists := r.byStoredName[record.StoredName]; exists {
		return fmt.Errorf("duplicate stored name: %s", record.StoredName)
	}

	// Store a copy to avoid external modifications
	recordCopy := *record
	r.files[record.ID] = &recordCopy
	r.byHash[record.ContentHash] = record.ID
	r.byStoredName[record.StoredName] = record.ID

	return nil
}

func (r *Repository) GetFile(ctx context.Context, id uuid.UUID) (*simpleupload.FileRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, exists := r.files[id]
	if !exists {
		return nil, simpleupload.ErrFileNotFound
	}

	recordCopy := *record
	return &recordCopy, nil
}

func (r *Repository) GetFileByHash(ctx context.Context, contentHash string) (*simpleupload.FileRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byHash[contentHash]
	if !exists {
		return nil, simpleupload.ErrFileNotFound
	}

	recordCopy := *r.files[id]
	return &recordCopy, nil
}

func (r *Repository) GetFileByStoredName(ctx context.Context, storedName string) (*simpleupload.FileRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byStoredName[storedName]
	if !exists {
		return nil, simpleupload.ErrFileNotFound
	}

	recordCopy := *r.files[id]
	return &recordCopy, nil
}

func (r *Repository) UpdateStoredName(ctx context.Context, id uuid.UUID, storedName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, exists := r.files[id]
	if !exists {
		return simpleupload.ErrFileNotFound
	}

	delete(r.byStoredName, record.StoredName)
	record.StoredName = storedName
	r.byStoredName[storedName] = id

	return nil
}

func (r *Repository) DeleteFile(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, exists := r.files[id]
	if !exists {
		return simpleupload.ErrFileNotFound
	}

	delete(r.byHash, record.ContentHash)
	delete(r.byStoredName, record.StoredName)
	delete(r.files, id)

	return nil
}

func (r *Repository) SearchFiles(ctx context.Context, filter simpleupload.SearchFilter, now time.Time) ([]*simpleupload.FileRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []*simpleupload.FileRecord{}
	for _, record := range r.files {
		if filter.Matches(record, now) {
			recordCopy := *record
			result = append(result, &recordCopy)
		}
	}

	// uploaded_at descending, id descending as the deterministic tie-breaker
	sort.Slice(result, func(i, j int) bool {
		if !result[i].UploadedAt.Equal(result[j].UploadedAt) {
			return result[i].UploadedAt.After(result[j].UploadedAt)
		}
		return result[i].ID.String() > result[j].ID.String()
	})

	return result, nil
}
