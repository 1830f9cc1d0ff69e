package snapshot

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/memblob"
)

func newTestBlobStorage(t *testing.T, prefix string) *BlobStorage {
	t.Helper()
	bucket, err := blob.OpenBucket(context.Background(), "mem://")
	require.NoError(t, err)
	storage := NewBlobStorageFromBucket(bucket, prefix)
	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

func TestBlobStorage_WriteRead(t *testing.T) {
	ctx := context.Background()
	storage := newTestBlobStorage(t, "my-prefix")

	require.NoError(t, storage.Write(ctx, "test-key", []byte("test-data")))

	data, err := storage.Read(ctx, "test-key")
	require.NoError(t, err)
	assert.Equal(t, []byte("test-data"), data)
}

func TestBlobStorage_ReadNotFound(t *testing.T) {
	storage := newTestBlobStorage(t, "")

	_, err := storage.Read(context.Background(), "nonexistent-key")
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestBlobStorage_ListStripsPrefix(t *testing.T) {
	ctx := context.Background()
	storage := newTestBlobStorage(t, "bucket-prefix/")

	for _, key := range []string{"prefix-a", "prefix-b", "other-key"} {
		require.NoError(t, storage.Write(ctx, key, []byte(key)))
	}

	keys, err := storage.List(ctx, "prefix-")
	require.NoError(t, err)
	assert.Equal(t, []string{"prefix-b", "prefix-a"}, keys)
}

func TestBlobStorage_DeleteNotFound(t *testing.T) {
	storage := newTestBlobStorage(t, "")
	require.NoError(t, storage.Delete(context.Background(), "nonexistent-key"))
}
