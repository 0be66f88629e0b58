package ingest

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/picsearch/ai"
	"github.com/poiesic/picsearch/blob"
	"github.com/poiesic/picsearch/core"
	"github.com/poiesic/picsearch/storage"
)

// Pipeline orchestrates photo ingestion: records are stored immediately and
// enriched (download, analysis, embedding) on a bounded worker pool.
type Pipeline struct {
	photos  storage.PhotoRepository
	pool    *ants.Pool
	proc    *analysisProcessor
	pending sync.WaitGroup
	logger  *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if p.pool != nil {
			p.pool.Release()
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates an ingestion pipeline over the given collaborators.
func NewPipeline(
	provider ai.InferenceProvider,
	photos storage.PhotoRepository,
	fetcher blob.Fetcher,
	opts ...Option,
) (*Pipeline, error) {
	if provider == nil {
		return nil, ErrProviderRequired
	}
	if photos == nil {
		return nil, ErrPhotoRepositoryRequired
	}
	if fetcher == nil {
		return nil, ErrFetcherRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		photos: photos,
		pool:   pool,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	p.proc = &analysisProcessor{
		photos:    photos,
		fetcher:   fetcher,
		completer: provider.Completer(),
		embedder:  provider.Embedder(),
		logger:    p.logger,
	}

	return p, nil
}

// IngestOptions holds optional parameters for ingestion.
type IngestOptions struct {
	// Metadata is attached to every photo in the batch, e.g. capture date
	// and location folded into the analysis prompt.
	Metadata map[string]string
}

// Ingest stores photo records for the given URLs and processes them
// asynchronously. Errors during async processing are logged but do not fail
// the ingestion; the affected photo simply stays unanalyzed.
func (p *Pipeline) Ingest(ctx context.Context, urls []string, opts *IngestOptions) ([]*core.Photo, error) {
	if len(urls) == 0 {
		return nil, ErrNoPhotos
	}
	if opts == nil {
		opts = &IngestOptions{}
	}

	photos := make([]*core.Photo, len(urls))
	for i, url := range urls {
		photos[i] = &core.Photo{
			URL:      url,
			Metadata: opts.Metadata,
		}
	}

	added, err := p.photos.AddPhotos(ctx, photos...)
	if err != nil {
		return nil, err
	}

	for _, photo := range added {
		p.pending.Add(1)
		submitErr := p.pool.Submit(func() {
			defer p.pending.Done()
			if err := p.proc.process(context.Background(), photo); err != nil {
				p.logger.Error("error processing photo", "photo_id", photo.Id, "err", err)
			}
		})
		if submitErr != nil {
			p.pending.Done()
			p.logger.Error("error submitting photo for processing",
				"photo_id", photo.Id, "err", submitErr)
		}
	}

	return added, nil
}

// Wait blocks until all submitted processing has finished.
func (p *Pipeline) Wait() {
	p.pending.Wait()
}

// Release releases the worker pool. The pipeline should not be used after
// calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
