package memory

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/tendant/simple-upload/pkg/simpleupload"
)

// Backend is an in-memory implementation of the simpleupload.BlobStore
// interface, intended for tests and development.
type Backend struct {
	mu      sync.RWMutex
	objects map[string]storedObject
}

type storedObject struct {
	data      []byte
	updatedAt time.Time
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{objects: make(map[string]storedObject)}
}

func (b *Backend) Upload(ctx context.Context, key string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = storedObject{data: data, updatedAt: time.Now()}
	return nil
}

func (b *Backend) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[key]
	if !exists {
		return nil, simpleupload.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (b *Backend) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	return nil
}

func (b *Backend) Exists(ctx context.Context, key string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, exists := b.objects[key]
	return exists, nil
}

func (b *Backend) Meta(ctx context.Context, key string) (*simpleupload.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[key]
	if !exists {
		return nil, simpleupload.ErrObjectNotFound
	}
	return &simpleupload.ObjectMeta{
		Key:       key,
		Size:      int64(len(obj.data)),
		UpdatedAt: obj.updatedAt,
	}, nil
}

func (b *Backend) ListKeys(ctx context.Context) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	keys := make([]string, 0, len(b.objects))
	for key := range b.objects {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (b *Backend) Rename(ctx context.Context, oldKey, newKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	obj, exists := b.objects[oldKey]
	if !exists {
		return simpleupload.ErrObjectNotFound
	}
	b.objects[newKey] = obj
	delete(b.objects, oldKey)
	return nil
}
