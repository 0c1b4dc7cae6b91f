package media

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hydrozap/internal/common"
	"hydrozap/internal/store"
)

// fakeBucket keeps objects in memory and counts fetches.
type fakeBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
	fetches int
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{objects: map[string][]byte{}}
}

func (b *fakeBucket) PutObject(_ context.Context, key string, data []byte, _ string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	return nil
}

func (b *fakeBucket) GetObject(_ context.Context, key string) (io.ReadCloser, string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fetches++
	data, ok := b.objects[key]
	if !ok {
		return nil, "", common.NotFoundf("no such object")
	}
	return io.NopCloser(bytes.NewReader(data)), "image/jpeg", nil
}

func (b *fakeBucket) DeleteObject(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeBucket, store.DocumentStore) {
	t.Helper()
	bucket := newFakeBucket()
	db := store.NewMemoryStore()
	return NewService(bucket, db), bucket, db
}

func TestUploadGrowPhoto(t *testing.T) {
	ctx := context.Background()
	service, bucket, db := newTestService(t)

	_, err := service.UploadGrowPhoto(ctx, "ghost", []byte("jpeg"), "image/jpeg")
	require.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, db.Set(ctx, "grows/g1", map[string]any{"name": "Basil Batch"}))
	key, err := service.UploadGrowPhoto(ctx, "g1", []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)
	assert.Contains(t, key, "grows/g1/")
	assert.Contains(t, bucket.objects, key)

	raw, err := db.Get(ctx, "grows/g1")
	require.NoError(t, err)
	fields := raw.(map[string]any)
	assert.Equal(t, key, fields["photo_key"])
	assert.NotEmpty(t, fields["photo_updated_at"])
}

func TestGrowPhotoCaches(t *testing.T) {
	ctx := context.Background()
	service, bucket, db := newTestService(t)

	require.NoError(t, db.Set(ctx, "grows/g1", map[string]any{"name": "Basil Batch"}))

	_, _, err := service.GrowPhoto(ctx, "g1")
	require.ErrorIs(t, err, common.ErrNotFound)
	assert.Contains(t, err.Error(), "No photo uploaded for this grow")

	_, err = service.UploadGrowPhoto(ctx, "g1", []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)

	data, contentType, err := service.GrowPhoto(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), data)
	assert.Equal(t, "image/jpeg", contentType)

	// Second read is served from the cache.
	_, _, err = service.GrowPhoto(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, 1, bucket.fetches)
}

func TestGrowPhotoConcurrentReads(t *testing.T) {
	ctx := context.Background()
	service, _, db := newTestService(t)

	require.NoError(t, db.Set(ctx, "grows/g1", map[string]any{"name": "Basil Batch"}))
	_, err := service.UploadGrowPhoto(ctx, "g1", []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, _, err := service.GrowPhoto(ctx, "g1")
			assert.NoError(t, err)
			assert.Equal(t, []byte("jpeg"), data)
		}()
	}
	wg.Wait()
}

func TestDeleteGrowPhoto(t *testing.T) {
	ctx := context.Background()
	service, bucket, db := newTestService(t)

	require.NoError(t, db.Set(ctx, "grows/g1", map[string]any{"name": "Basil Batch"}))
	key, err := service.UploadGrowPhoto(ctx, "g1", []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)

	require.NoError(t, service.DeleteGrowPhoto(ctx, "g1"))
	assert.NotContains(t, bucket.objects, key)

	_, _, err = service.GrowPhoto(ctx, "g1")
	require.ErrorIs(t, err, common.ErrNotFound)

	err = service.DeleteGrowPhoto(ctx, "g1")
	require.ErrorIs(t, err, common.ErrNotFound)
}
