package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cachetcache/service/internal/logger"
)

func TestDirBucketThroughGateway(t *testing.T) {
	root := t.TempDir()
	bucket, err := NewDirBucket(root)
	require.NoError(t, err)

	gw := NewGateway(NativeBackend{}, logger.Discard())
	ctx := WithBucket(context.Background(), bucket)
	key := "visits/v1/follow_up/abc.png"

	require.NoError(t, gw.Upload(ctx, key, strings.NewReader("png-bytes"), 9, "image/png"))
	assert.FileExists(t, filepath.Join(root, "visits", "v1", "follow_up", "abc.png"))

	obj, err := gw.Fetch(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "image/png", obj.ContentType)
	assert.EqualValues(t, 9, obj.Size)
	assert.NotEmpty(t, obj.ETag)
	assert.Equal(t, []byte("png-bytes"), readAll(t, obj))

	require.NoError(t, gw.Remove(ctx, key))
	_, err = gw.Fetch(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, gw.Remove(ctx, key))
}

func TestDirBucketRejectsEscapingKeys(t *testing.T) {
	root := t.TempDir()
	bucket, err := NewDirBucket(root)
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"../outside.txt", "/etc/passwd", ".meta/x.json"} {
		err := bucket.Put(ctx, key, strings.NewReader("x"), 1, HTTPMetadata{})
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}

	_, err = os.Stat(filepath.Join(filepath.Dir(root), "outside.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestDirBucketDirectoryIsNotAnObject(t *testing.T) {
	bucket, err := NewDirBucket(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, bucket.Put(ctx, "a/b.txt", strings.NewReader("x"), 1, HTTPMetadata{ContentType: "text/plain"}))

	_, err = bucket.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDirBucketOverwriteReplacesMetadata(t *testing.T) {
	root := t.TempDir()
	bucket, err := NewDirBucket(root)
	require.NoError(t, err)
	ctx := context.Background()
	key := "user-1/avatar.img"

	require.NoError(t, bucket.Put(ctx, key, strings.NewReader("first"), 5, HTTPMetadata{ContentType: "image/png"}))
	first, err := bucket.Get(ctx, key)
	require.NoError(t, err)
	first.Body.Close()

	require.NoError(t, bucket.Put(ctx, key, strings.NewReader("second"), 6, HTTPMetadata{ContentType: "image/webp"}))
	second, err := bucket.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "image/webp", second.ContentType)
	assert.NotEqual(t, first.ETag, second.ETag)
	assert.Equal(t, []byte("second"), readAll(t, second))

	// No temp files left next to the object or its sidecar.
	for _, dir := range []string{filepath.Join(root, "user-1"), filepath.Join(root, metaDir, "user-1")} {
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1, dir)
	}
}

func TestDirBucketFailedRenameKeepsMetadata(t *testing.T) {
	root := t.TempDir()
	bucket, err := NewDirBucket(root)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, bucket.Put(ctx, "a/b.txt", strings.NewReader("old"), 3, HTTPMetadata{ContentType: "text/plain"}))

	// Replace the object with a non-empty directory so the data rename fails.
	dataPath := filepath.Join(root, "a", "b.txt")
	require.NoError(t, os.Remove(dataPath))
	require.NoError(t, os.MkdirAll(filepath.Join(dataPath, "x"), 0o755))

	err = bucket.Put(ctx, "a/b.txt", strings.NewReader("new"), 3, HTTPMetadata{ContentType: "text/markdown"})
	require.Error(t, err)

	raw, err := os.ReadFile(filepath.Join(root, metaDir, "a", "b.txt.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "text/plain")
}
