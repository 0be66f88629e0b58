package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/picsearch/core"
	"github.com/poiesic/picsearch/storage"
)

func TestPhotoBasics(t *testing.T) {
	photoRepo, _, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() {
		photoRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	photo := &core.Photo{
		URL:      "https://photos.example/sunset.jpg",
		Metadata: map[string]string{"album": "vacation"},
	}

	added, err := photoRepo.AddPhotos(ctx, photo)
	if err != nil {
		t.Fatalf("Failed to add photo: %v", err)
	}

	if len(added) != 1 {
		t.Fatalf("Expected 1 photo, got %d", len(added))
	}

	if added[0].Id == 0 {
		t.Fatal("Expected non-zero ID")
	}

	if added[0].Id != core.IDFromContent(photo.URL) {
		t.Fatal("Expected ID derived from URL")
	}

	retrieved, err := photoRepo.GetPhoto(ctx, added[0].Id)
	if err != nil {
		t.Fatalf("Failed to get photo: %v", err)
	}

	if retrieved.URL != photo.URL {
		t.Fatalf("Expected %q, got %q", photo.URL, retrieved.URL)
	}

	if retrieved.Metadata["album"] != "vacation" {
		t.Fatalf("Expected metadata to round-trip, got %v", retrieved.Metadata)
	}
}

func TestPhotoSameURLOverwrites(t *testing.T) {
	photoRepo, _, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { photoRepo.Close(); backend.Close() }()

	ctx := context.Background()
	url := "https://photos.example/dog.jpg"

	first, err := photoRepo.AddPhotos(ctx, &core.Photo{URL: url, Analysis: "old"})
	if err != nil {
		t.Fatalf("Failed to add photo: %v", err)
	}

	second, err := photoRepo.AddPhotos(ctx, &core.Photo{URL: url, Analysis: "new"})
	if err != nil {
		t.Fatalf("Failed to re-add photo: %v", err)
	}

	if first[0].Id != second[0].Id {
		t.Fatal("Expected same ID for same URL")
	}

	retrieved, err := photoRepo.GetPhoto(ctx, first[0].Id)
	if err != nil {
		t.Fatalf("Failed to get photo: %v", err)
	}
	if retrieved.Analysis != "new" {
		t.Fatalf("Expected overwritten analysis, got %q", retrieved.Analysis)
	}
}

func TestPhotoNotFound(t *testing.T) {
	photoRepo, _, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { photoRepo.Close(); backend.Close() }()

	_, err = photoRepo.GetPhoto(context.Background(), core.ID(12345))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestPhotoInvalid(t *testing.T) {
	photoRepo, _, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { photoRepo.Close(); backend.Close() }()

	_, err = photoRepo.AddPhotos(context.Background(), &core.Photo{})
	if !errors.Is(err, core.ErrInvalidPhoto) {
		t.Fatalf("Expected ErrInvalidPhoto, got %v", err)
	}
}

func TestUpdatePhotoAnalysis(t *testing.T) {
	photoRepo, _, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { photoRepo.Close(); backend.Close() }()

	ctx := context.Background()

	added, err := photoRepo.AddPhotos(ctx, &core.Photo{URL: "https://photos.example/cat.jpg"})
	if err != nil {
		t.Fatalf("Failed to add photo: %v", err)
	}

	vector := []float32{0.6, 0.8, 0}
	err = photoRepo.UpdatePhotoAnalysis(ctx, added[0].Id, "a tabby cat on a windowsill", vector)
	if err != nil {
		t.Fatalf("Failed to update analysis: %v", err)
	}

	retrieved, err := photoRepo.GetPhoto(ctx, added[0].Id)
	if err != nil {
		t.Fatalf("Failed to get photo: %v", err)
	}

	if retrieved.Analysis != "a tabby cat on a windowsill" {
		t.Fatalf("Expected updated analysis, got %q", retrieved.Analysis)
	}
	if len(retrieved.Vector) != 3 {
		t.Fatalf("Expected stored vector, got %v", retrieved.Vector)
	}
	if retrieved.UpdatedAt.Before(retrieved.InsertedAt) {
		t.Fatal("Expected UpdatedAt after InsertedAt")
	}
}

func TestUpdatePhotoAnalysis_Missing(t *testing.T) {
	photoRepo, _, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { photoRepo.Close(); backend.Close() }()

	err = photoRepo.UpdatePhotoAnalysis(context.Background(), core.ID(999), "analysis", nil)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestListPhotos(t *testing.T) {
	photoRepo, _, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { photoRepo.Close(); backend.Close() }()

	ctx := context.Background()

	empty, err := photoRepo.ListPhotos(ctx)
	if err != nil {
		t.Fatalf("Failed to list photos: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("Expected empty list, got %d photos", len(empty))
	}

	_, err = photoRepo.AddPhotos(ctx,
		&core.Photo{URL: "https://photos.example/a.jpg", Analysis: "a"},
		&core.Photo{URL: "https://photos.example/b.jpg"},
		&core.Photo{URL: "https://photos.example/c.jpg", Analysis: "c"},
	)
	if err != nil {
		t.Fatalf("Failed to add photos: %v", err)
	}

	photos, err := photoRepo.ListPhotos(ctx)
	if err != nil {
		t.Fatalf("Failed to list photos: %v", err)
	}
	if len(photos) != 3 {
		t.Fatalf("Expected 3 photos, got %d", len(photos))
	}

	seen := map[string]bool{}
	for _, photo := range photos {
		seen[photo.URL] = true
	}
	for _, url := range []string{
		"https://photos.example/a.jpg",
		"https://photos.example/b.jpg",
		"https://photos.example/c.jpg",
	} {
		if !seen[url] {
			t.Fatalf("Expected %q in listing", url)
		}
	}
}
