package reembed

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/picsearch/ai"
	"github.com/poiesic/picsearch/core"
	"github.com/poiesic/picsearch/storage"
)

// BatchProcessor embeds a batch of photo analyses and writes the new
// vectors back to storage.
type BatchProcessor struct {
	repo           storage.PhotoRepository
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of retry attempts for embedding API calls
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(repo storage.PhotoRepository, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		repo:           repo,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process generates embeddings for a batch of photos and updates them in the
// database. Vectors are normalized after embedding so the dot product equals
// cosine similarity.
func (bp *BatchProcessor) Process(ctx context.Context, photos []*core.Photo) error {
	if len(photos) == 0 {
		return nil
	}

	texts := make([]string, len(photos))
	for i, photo := range photos {
		texts[i] = photo.Analysis
	}

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)

	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(photos) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(photos), len(embeddings))
	}

	for i, photo := range photos {
		vector := ai.NormalizeVector(embeddings[i])
		if err := bp.repo.UpdatePhotoAnalysis(ctx, photo.Id, photo.Analysis, vector); err != nil {
			return fmt.Errorf("failed to update photo %d: %w", photo.Id, err)
		}
	}

	return nil
}
