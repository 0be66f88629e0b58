package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/picsearch/ai"
	"github.com/poiesic/picsearch/core"
	"github.com/poiesic/picsearch/storage"
)

// retriever converts a formatted query into an embedding and asks the photo
// store for a ranked candidate list.
type retriever struct {
	embedder  ai.Embedder
	photos    storage.PhotoRepository
	count     int
	threshold float32
	logger    *slog.Logger
}

// retrieve returns candidates in descending similarity order. Rank is the
// ordinal position in the store's response; the retriever does no re-sorting
// or tie-breaking of its own. An empty result is a valid outcome.
func (r *retriever) retrieve(ctx context.Context, formattedQuery string) ([]*core.Candidate, error) {
	vector, err := r.embedder.EmbedText(ctx, formattedQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding query: %w", ErrUpstream, err)
	}

	// Stored vectors are unit length; normalizing the query vector keeps the
	// store's dot product a true cosine similarity.
	matches, err := r.photos.FindSimilar(ctx, ai.NormalizeVector(vector), r.threshold, r.count)
	if err != nil {
		return nil, fmt.Errorf("%w: similarity search: %w", ErrUpstream, err)
	}

	candidates := make([]*core.Candidate, len(matches))
	for i, match := range matches {
		candidates[i] = &core.Candidate{
			PhotoId:    match.Photo.Id,
			PhotoURL:   match.Photo.URL,
			Analysis:   match.Photo.Analysis,
			Similarity: match.Score,
			Rank:       i,
		}
	}

	r.logger.Debug("retrieved candidates",
		"count", len(candidates),
		"threshold", r.threshold,
		"limit", r.count)
	return candidates, nil
}
