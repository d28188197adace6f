package fs_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-upload/pkg/simpleupload"
	fsstorage "github.com/tendant/simple-upload/pkg/simpleupload/storage/fs"
)

func newBackend(t *testing.T) *fsstorage.Backend {
	t.Helper()
	backend, err := fsstorage.New(fsstorage.Config{BaseDir: t.TempDir()})
	require.NoError(t, err)
	return backend
}

func TestNew(t *testing.T) {
	t.Run("empty base dir fails", func(t *testing.T) {
		_, err := fsstorage.New(fsstorage.Config{})
		assert.Error(t, err)
	})

	t.Run("creates missing base dir", func(t *testing.T) {
		dir := t.TempDir() + "/nested/uploads"
		_, err := fsstorage.New(fsstorage.Config{BaseDir: dir})
		assert.NoError(t, err)
	})
}

func TestUploadDownload(t *testing.T) {
	ctx := context.Background()
	backend := newBackend(t)

	require.NoError(t, backend.Upload(ctx, "key1.txt", strings.NewReader("file content")))

	reader, err := backend.Download(ctx, "key1.txt")
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "file content", string(data))
}

func TestUploadOverwrite(t *testing.T) {
	ctx := context.Background()
	backend := newBackend(t)

	require.NoError(t, backend.Upload(ctx, "key1.txt", strings.NewReader("v1")))
	require.NoError(t, backend.Upload(ctx, "key1.txt", strings.NewReader("v2")))

	reader, err := backend.Download(ctx, "key1.txt")
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}

func TestDownloadMissing(t *testing.T) {
	backend := newBackend(t)

	_, err := backend.Download(context.Background(), "missing.txt")
	assert.ErrorIs(t, err, simpleupload.ErrObjectNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	backend := newBackend(t)

	require.NoError(t, backend.Upload(ctx, "key1.txt", strings.NewReader("bytes")))
	require.NoError(t, backend.Delete(ctx, "key1.txt"))

	exists, err := backend.Exists(ctx, "key1.txt")
	require.NoError(t, err)
	assert.False(t, exists)

	// Deleting an already absent key succeeds.
	assert.NoError(t, backend.Delete(ctx, "key1.txt"))
}

func TestExists(t *testing.T) {
	ctx := context.Background()
	backend := newBackend(t)

	exists, err := backend.Exists(ctx, "key1.txt")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, backend.Upload(ctx, "key1.txt", strings.NewReader("bytes")))

	exists, err = backend.Exists(ctx, "key1.txt")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMeta(t *testing.T) {
	ctx := context.Background()
	backend := newBackend(t)

	require.NoError(t, backend.Upload(ctx, "page.html", strings.NewReader("<html><body>hi</body></html>")))

	meta, err := backend.Meta(ctx, "page.html")
	require.NoError(t, err)
	assert.Equal(t, "page.html", meta.Key)
	assert.Equal(t, int64(28), meta.Size)
	assert.Contains(t, meta.ContentType, "text/html")
	assert.False(t, meta.UpdatedAt.IsZero())

	_, err = backend.Meta(ctx, "missing.txt")
	assert.ErrorIs(t, err, simpleupload.ErrObjectNotFound)
}

func TestListKeys(t *testing.T) {
	ctx := context.Background()
	backend := newBackend(t)

	require.NoError(t, backend.Upload(ctx, "a.txt", strings.NewReader("a")))
	require.NoError(t, backend.Upload(ctx, "b.txt", strings.NewReader("b")))

	keys, err := backend.ListKeys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.txt", "b.txt"}, keys)
}

func TestRename(t *testing.T) {
	ctx := context.Background()
	backend := newBackend(t)

	require.NoError(t, backend.Upload(ctx, "old.txt", strings.NewReader("payload")))
	require.NoError(t, backend.Rename(ctx, "old.txt", "new.txt"))

	exists, err := backend.Exists(ctx, "old.txt")
	require.NoError(t, err)
	assert.False(t, exists)

	reader, err := backend.Download(ctx, "new.txt")
	require.NoError(t, err)
	defer reader.Close()
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestPathTraversalRejected(t *testing.T) {
	ctx := context.Background()
	backend := newBackend(t)

	for _, key := range []string{"", "../escape.txt", "sub/dir.txt", "..", "a/../../b"} {
		assert.Error(t, backend.Upload(ctx, key, strings.NewReader("x")), key)
		_, err := backend.Download(ctx, key)
		assert.Error(t, err, key)
	}
}
