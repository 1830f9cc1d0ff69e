package snapshot

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/memblob"
)

func testClock() func() time.Time {
	t := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func testHistory(t *testing.T, limit int) *History {
	t.Helper()
	h, err := NewHistory(zaptest.NewLogger(t),
		HistoryWithDir(t.TempDir()),
		HistoryWithLimit(limit),
		HistoryWithClock(testClock()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestHistoryGetLatest(t *testing.T) {
	ctx := context.Background()
	h := testHistory(t, 5)

	_, err := h.Add(ctx, "disk-file-system", []byte(`{"n":1}`))
	require.NoError(t, err)
	key, err := h.Add(ctx, "disk-file-system", []byte(`{"n":2}`))
	require.NoError(t, err)
	assert.Equal(t, "barctl-disk-file-system-20261018T120002.000000000Z.json", key)

	data, err := h.Get(ctx, "disk-file-system", "")
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":2}`, string(data))
}

func TestHistoryListNewestFirst(t *testing.T) {
	ctx := context.Background()
	h := testHistory(t, 5)

	for i := 0; i < 3; i++ {
		_, err := h.Add(ctx, "aws-s3", []byte(fmt.Sprint(i)))
		require.NoError(t, err)
	}
	keys, err := h.List(ctx, "aws-s3")
	require.NoError(t, err)
	require.Len(t, keys, 3)
	assert.Greater(t, keys[0], keys[1])
	assert.Greater(t, keys[1], keys[2])

	data, err := h.Get(ctx, "aws-s3", keys[2])
	require.NoError(t, err)
	assert.Equal(t, "0", string(data))
}

func TestHistoryCleanup(t *testing.T) {
	ctx := context.Background()
	h := testHistory(t, 2)

	for i := 0; i < 20; i++ {
		_, err := h.Add(ctx, "disk-file-system", []byte(fmt.Sprint(i)))
		require.NoError(t, err)
	}
	keys, err := h.List(ctx, "disk-file-system")
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	data, err := h.Get(ctx, "disk-file-system", "")
	require.NoError(t, err)
	assert.Equal(t, "19", string(data))
}

func TestHistoryCollectionsAreSeparate(t *testing.T) {
	ctx := context.Background()
	h := testHistory(t, 1)

	_, err := h.Add(ctx, "disk-file-system", []byte("disk"))
	require.NoError(t, err)
	_, err = h.Add(ctx, "aws-s3", []byte("s3"))
	require.NoError(t, err)

	disk, err := h.List(ctx, "disk-file-system")
	require.NoError(t, err)
	assert.Len(t, disk, 1)

	_, err = h.Get(ctx, "aws-s3", disk[0])
	assert.Error(t, err)
}

func TestHistoryGetEmpty(t *testing.T) {
	h := testHistory(t, 1)
	_, err := h.Get(context.Background(), "disk-file-system", "")
	assert.Error(t, err)
}

func TestHistoryInvalidCollection(t *testing.T) {
	h := testHistory(t, 1)
	_, err := h.Add(context.Background(), "../etc", []byte("x"))
	assert.Error(t, err)
}

func TestHistoryWithBlobStorage(t *testing.T) {
	ctx := context.Background()
	bucket, err := blob.OpenBucket(ctx, "mem://")
	require.NoError(t, err)

	h, err := NewHistory(zaptest.NewLogger(t),
		HistoryWithStorage(NewBlobStorageFromBucket(bucket, "snapshots")),
		HistoryWithLimit(2),
		HistoryWithClock(testClock()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })

	for i := 0; i < 4; i++ {
		_, err := h.Add(ctx, "disk-file-system", []byte(fmt.Sprint(i)))
		require.NoError(t, err)
	}
	keys, err := h.List(ctx, "disk-file-system")
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	data, err := h.Get(ctx, "disk-file-system", "")
	require.NoError(t, err)
	assert.Equal(t, "3", string(data))
}
