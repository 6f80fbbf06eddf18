package images

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfkeep/shelfkeep/internal/store"
)

func TestNewStorage(t *testing.T) {
	t.Run("creates covers directory", func(t *testing.T) {
		tmpDir := t.TempDir()

		storage, err := NewStorage(tmpDir)
		require.NoError(t, err)
		require.NotNil(t, storage)

		info, err := os.Stat(filepath.Join(tmpDir, "covers"))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("returns error for empty path", func(t *testing.T) {
		storage, err := NewStorage("")
		assert.Nil(t, storage)
		assert.ErrorContains(t, err, "base path cannot be empty")
	})
}

func TestStorage_CoverLifecycle(t *testing.T) {
	storage, err := NewStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = storage.GetCover(ctx, 1700000000000)
	assert.ErrorIs(t, err, store.ErrCoverNotFound)

	data := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}
	require.NoError(t, storage.PutCover(ctx, 1700000000000, data))

	assert.FileExists(t, storage.Path(1700000000000))
	assert.NoFileExists(t, storage.Path(1700000000000)+".tmp")

	got, err := storage.GetCover(ctx, 1700000000000)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	ok, err := storage.HasCover(ctx, 1700000000000)
	require.NoError(t, err)
	assert.True(t, ok)

	ids, err := storage.CoverIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1700000000000}, ids)

	require.NoError(t, storage.DeleteCover(ctx, 1700000000000))
	ok, err = storage.HasCover(ctx, 1700000000000)
	require.NoError(t, err)
	assert.False(t, ok)

	// Already gone.
	assert.NoError(t, storage.DeleteCover(ctx, 1700000000000))
}

func TestStorage_RejectsEmptyData(t *testing.T) {
	storage, err := NewStorage(t.TempDir())
	require.NoError(t, err)

	err = storage.PutCover(context.Background(), 1, nil)
	assert.ErrorContains(t, err, "image data cannot be empty")
}

func TestStorage_ConcurrentAccess(t *testing.T) {
	storage, err := NewStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Go(func() {
			id := int64(i % 5)
			_ = storage.PutCover(ctx, id, []byte{byte(i), 1, 2})
			_, _ = storage.GetCover(ctx, id)
		})
	}
	wg.Wait()

	ids, err := storage.CoverIDs(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 5)
}

func TestHash(t *testing.T) {
	a := Hash([]byte("cover"))
	assert.Len(t, a, 64)
	assert.Equal(t, a, Hash([]byte("cover")))
	assert.NotEqual(t, a, Hash([]byte("other")))
}

func TestParseCoverPath(t *testing.T) {
	id, ok := ParseCoverPath("/data/covers/1760000000123.jpg")
	assert.True(t, ok)
	assert.Equal(t, int64(1760000000123), id)

	for _, p := range []string{"12.jpg.tmp", "cover.jpg", "12.png", ""} {
		_, ok := ParseCoverPath(p)
		assert.False(t, ok, p)
	}
}
