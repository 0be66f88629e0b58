package reembed

import (
	"context"

	"github.com/poiesic/picsearch/core"
	"github.com/poiesic/picsearch/storage"
)

const (
	// DefaultBatchSize is the default number of photos to process per batch
	DefaultBatchSize = 100
)

// PhotoIterator iterates over all analyzed photos in batches. Photos without
// analysis text are skipped; there is nothing to embed for them.
type PhotoIterator struct {
	repo      storage.PhotoRepository
	batchSize int
}

// NewPhotoIterator creates a new photo iterator.
// batchSize: number of photos per batch (must be > 0)
func NewPhotoIterator(repo storage.PhotoRepository, batchSize int) *PhotoIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &PhotoIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// Count returns the number of photos the iterator will visit.
func (it *PhotoIterator) Count(ctx context.Context) (int, error) {
	photos, err := it.repo.ListPhotos(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, photo := range photos {
		if photo.Analysis != "" {
			count++
		}
	}
	return count, nil
}

// ForEach iterates over all analyzed photos, calling fn for each batch.
// Iteration stops on the first error from fn. Context cancellation is
// checked between batches.
func (it *PhotoIterator) ForEach(ctx context.Context, fn func([]*core.Photo) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	all, err := it.repo.ListPhotos(ctx)
	if err != nil {
		return err
	}

	analyzed := make([]*core.Photo, 0, len(all))
	for _, photo := range all {
		if photo.Analysis != "" {
			analyzed = append(analyzed, photo)
		}
	}

	for i := 0; i < len(analyzed); i += it.batchSize {
		end := i + it.batchSize
		if end > len(analyzed) {
			end = len(analyzed)
		}

		if err := fn(analyzed[i:end]); err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}
	}

	return nil
}
