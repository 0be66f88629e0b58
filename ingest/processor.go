package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/picsearch/ai"
	"github.com/poiesic/picsearch/blob"
	"github.com/poiesic/picsearch/core"
	"github.com/poiesic/picsearch/storage"
)

const analysisPrompt = `You are an advanced image analysis AI. Thoroughly examine the provided
image and describe in detail: the overall scene, dominant colors, any visible text, the image
category, the mood it conveys, the main subject, any people (pose, emotion, clothing), animals,
plants, significant objects, composition, and lighting.%s

Be thorough. Finish with a brief summary of the most notable aspects of the image.`

// analysisProcessor downloads a photo, generates its analysis and embedding,
// and writes both back to the photo record.
type analysisProcessor struct {
	photos    storage.PhotoRepository
	fetcher   blob.Fetcher
	completer ai.Completer
	embedder  ai.Embedder
	logger    *slog.Logger
}

// process enriches a single photo. The photo stays invisible to search until
// its analysis and vector are written.
func (p *analysisProcessor) process(ctx context.Context, photo *core.Photo) error {
	image, mime, err := p.fetcher.Fetch(ctx, photo.URL)
	if err != nil {
		return fmt.Errorf("fetching photo %d: %w", photo.Id, err)
	}

	frags, err := p.completer.Complete(ctx, ai.CompletionRequest{
		Prompt:    buildAnalysisPrompt(photo.Metadata),
		Image:     image,
		ImageMIME: mime,
	})
	if err != nil {
		return fmt.Errorf("analyzing photo %d: %w", photo.Id, err)
	}

	var sb strings.Builder
	for chunk, err := range frags {
		if err != nil {
			return fmt.Errorf("analyzing photo %d: %w", photo.Id, err)
		}
		sb.WriteString(chunk)
	}
	analysis := sb.String()

	vector, err := p.embedder.EmbedText(ctx, analysis)
	if err != nil {
		return fmt.Errorf("embedding analysis for photo %d: %w", photo.Id, err)
	}

	if err := p.photos.UpdatePhotoAnalysis(ctx, photo.Id, analysis, ai.NormalizeVector(vector)); err != nil {
		return fmt.Errorf("updating photo %d: %w", photo.Id, err)
	}

	p.logger.Debug("photo processed", "photo_id", photo.Id, "analysis_len", len(analysis))
	return nil
}

// buildAnalysisPrompt folds photo metadata (capture date, location) into the
// analysis prompt when present.
func buildAnalysisPrompt(metadata map[string]string) string {
	if len(metadata) == 0 {
		return fmt.Sprintf(analysisPrompt, "")
	}

	var sb strings.Builder
	sb.WriteString("\n\nIncorporate the photo's metadata into your analysis where relevant:\n")
	for _, key := range []string{"taken_at", "location", "device"} {
		if value, ok := metadata[key]; ok && value != "" {
			fmt.Fprintf(&sb, "%s: %s\n", key, value)
		}
	}
	return fmt.Sprintf(analysisPrompt, sb.String())
}
