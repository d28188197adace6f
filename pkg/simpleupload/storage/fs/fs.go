package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/tendant/simple-upload/pkg/simpleupload"
)

// Backend is a filesystem implementation of the simpleupload.BlobStore
// interface. Writes go to a temporary file in the same directory and are
// renamed into place, so a key never becomes visible with partial content.
type Backend struct {
	baseDir string
}

// Config options for the filesystem backend
type Config struct {
	BaseDir string // Base directory for storing files
}

// New creates a new filesystem storage backend
func New(config Config) (*Backend, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}

	if err := os.MkdirAll(config.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Backend{baseDir: config.BaseDir}, nil
}

// Upload writes the full byte stream under key, atomically with respect to
// partial-write visibility.
func (b *Backend) Upload(ctx context.Context, key string, reader io.Reader) error {
	filePath, err := b.path(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmpPath := fmt.Sprintf("%s.tmp.%s", filePath, uuid.New().String()[:8])
	tmp, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush file: %w", err)
	}

	if err := os.Rename(tmpPath, filePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to finalize file: %w", err)
	}

	return nil
}

// Download opens the stored bytes for key
func (b *Backend) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	filePath, err := b.path(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, simpleupload.ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Delete removes the bytes for key. An absent key is a no-op.
func (b *Backend) Delete(ctx context.Context, key string) error {
	filePath, err := b.path(key)
	if err != nil {
		return err
	}

	if err := os.Remove(filePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}

// Exists reports whether key is present
func (b *Backend) Exists(ctx context.Context, key string) (bool, error) {
	filePath, err := b.path(key)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(filePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat file: %w", err)
	}
	return true, nil
}

// Meta retrieves filesystem-level metadata for key
func (b *Backend) Meta(ctx context.Context, key string) (*simpleupload.ObjectMeta, error) {
	filePath, err := b.path(key)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, simpleupload.ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	contentType := "application/octet-stream"
	if file, err := os.Open(filePath); err == nil {
		defer file.Close()
		buffer := make([]byte, 512)
		if n, err := file.Read(buffer); err == nil || errors.Is(err, io.EOF) {
			contentType = http.DetectContentType(buffer[:n])
		}
	}

	return &simpleupload.ObjectMeta{
		Key:         key,
		Size:        info.Size(),
		ContentType: contentType,
		UpdatedAt:   info.ModTime(),
	}, nil
}

// ListKeys returns every stored key, excluding in-flight temp files
func (b *Backend) ListKeys(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(b.baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read base directory: %w", err)
	}

	var keys []string
	for _, entry := range entries {
		if entry.IsDir() || strings.Contains(entry.Name(), ".tmp.") {
			continue
		}
		keys = append(keys, entry.Name())
	}
	return keys, nil
}

// Rename moves the bytes from oldKey to newKey
func (b *Backend) Rename(ctx context.Context, oldKey, newKey string) error {
	oldPath, err := b.path(oldKey)
	if err != nil {
		return err
	}
	newPath, err := b.path(newKey)
	if err != nil {
		return err
	}

	if err := os.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

// path resolves a key inside the base directory, rejecting traversal
func (b *Backend) path(key string) (string, error) {
	if key == "" || key == "." || key == ".." || key != filepath.Base(key) {
		return "", fmt.Errorf("invalid storage key: %q", key)
	}
	return filepath.Join(b.baseDir, key), nil
}
