package badger

import (
	"context"
	"testing"

	"github.com/poiesic/picsearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	tmpDir := t.TempDir()
	backend, err := OpenBackend(tmpDir, false)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)

	assert.False(t, backend.IsClosed())

	err = backend.Close()
	require.NoError(t, err)

	assert.True(t, backend.IsClosed())
}

func TestFindSimilar_NoRecords(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	matches, err := backend.FindSimilar(context.Background(), []float32{1, 0, 0}, 0.5, 10)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFindSimilar_Ordering(t *testing.T) {
	photoRepo, _, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() { photoRepo.Close(); backend.Close() }()

	ctx := context.Background()

	photos := []*core.Photo{
		{URL: "https://photos.example/a.jpg", Analysis: "a", Vector: []float32{1, 0, 0}},
		{URL: "https://photos.example/b.jpg", Analysis: "b", Vector: []float32{0.9, 0.1, 0}},
		{URL: "https://photos.example/c.jpg", Analysis: "c", Vector: []float32{0, 1, 0}},
	}
	_, err = photoRepo.AddPhotos(ctx, photos...)
	require.NoError(t, err)

	matches, err := backend.FindSimilar(ctx, []float32{1, 0, 0}, 0.5, 10)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	// Most similar first; the orthogonal vector falls below the threshold.
	assert.Equal(t, "https://photos.example/a.jpg", matches[0].Photo.URL)
	assert.Equal(t, "https://photos.example/b.jpg", matches[1].Photo.URL)
	assert.Greater(t, matches[0].Score, matches[1].Score)
}

func TestFindSimilar_Limit(t *testing.T) {
	photoRepo, _, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() { photoRepo.Close(); backend.Close() }()

	ctx := context.Background()

	photos := []*core.Photo{
		{URL: "https://photos.example/a.jpg", Analysis: "a", Vector: []float32{1, 0, 0}},
		{URL: "https://photos.example/b.jpg", Analysis: "b", Vector: []float32{0.9, 0.1, 0}},
		{URL: "https://photos.example/c.jpg", Analysis: "c", Vector: []float32{0.8, 0.2, 0}},
	}
	_, err = photoRepo.AddPhotos(ctx, photos...)
	require.NoError(t, err)

	matches, err := backend.FindSimilar(ctx, []float32{1, 0, 0}, 0.1, 2)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestFindSimilar_SkipsPhotosWithoutVectors(t *testing.T) {
	photoRepo, _, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() { photoRepo.Close(); backend.Close() }()

	ctx := context.Background()

	photos := []*core.Photo{
		{URL: "https://photos.example/a.jpg", Analysis: "a", Vector: []float32{1, 0, 0}},
		{URL: "https://photos.example/pending.jpg"},
	}
	_, err = photoRepo.AddPhotos(ctx, photos...)
	require.NoError(t, err)

	matches, err := backend.FindSimilar(ctx, []float32{1, 0, 0}, 0.5, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "https://photos.example/a.jpg", matches[0].Photo.URL)
}
