// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reembed

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/poiesic/picsearch/ai"
	"github.com/poiesic/picsearch/core"
	"github.com/poiesic/picsearch/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of photos to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of photos)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed operations
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reembedder orchestrates the reembedding of all analyzed photos in a
// database, for when the embedding model changes and stored vectors no
// longer live in the same space as query embeddings.
type Reembedder struct {
	repo      storage.PhotoRepository
	embedder  ai.Embedder
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *PhotoIterator
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(repo storage.PhotoRepository, embedder ai.Embedder, config *Config, progress io.Writer) *Reembedder {
	if config == nil {
		config = DefaultConfig()
	}

	return &Reembedder{
		repo:      repo,
		embedder:  embedder,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(repo, embedder, config.MaxRetries, config.RetryDelay),
		iterator:  NewPhotoIterator(repo, config.BatchSize),
	}
}

// Run executes the reembedding operation. Every analyzed photo in the
// database is reembedded with the configured embedder. Progress is reported
// to the configured writer.
func (r *Reembedder) Run(ctx context.Context) error {
	totalPhotos, err := r.iterator.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count photos: %w", err)
	}

	if totalPhotos == 0 {
		fmt.Fprintf(r.progress, "No analyzed photos found in database (0 photos)\n")
		return nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d photos (batch size: %d)\n",
		totalPhotos, r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, totalPhotos, r.config.ReportInterval)
	tracker.Start()

	processed := 0
	err = r.iterator.ForEach(ctx, func(photos []*core.Photo) error {
		if err := r.processor.Process(ctx, photos); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}

		processed += len(photos)
		tracker.Update(processed)
		return nil
	})
	if err != nil {
		return err
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d photos in %v (%.1f photos/sec)\n",
		totalPhotos, elapsed.Round(time.Second), float64(totalPhotos)/elapsed.Seconds())

	return nil
}
