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


package pipeline

import (
	"context"
	"log/slog"

	"github.com/poiesic/picsearch/ai"
	"github.com/poiesic/picsearch/blob"
	"github.com/poiesic/picsearch/core"
	"github.com/poiesic/picsearch/storage"
)

// Default retrieval parameters.
const (
	DefaultMatchCount     = 4
	DefaultMatchThreshold = 0.7
)

// Pipeline owns the fixed stage sequence of a photo search run and emits the
// outward event stream. A Pipeline is safe for concurrent use; each Run is
// independent.
type Pipeline struct {
	completer        ai.Completer
	embedder         ai.Embedder
	photos           storage.PhotoRepository
	searches         storage.SearchRepository
	fetcher          blob.Fetcher
	matchCount       int
	matchThreshold   float32
	reasoningWorkers int
	logger           *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

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

// WithMatchCount sets the retrieval candidate limit.
// Default is DefaultMatchCount.
func WithMatchCount(count int) Option {
	return func(p *Pipeline) error {
		if count < 1 {
			count = 1
		}
		p.matchCount = count
		return nil
	}
}

// WithMatchThreshold sets the minimum similarity for retrieval.
// Default is DefaultMatchThreshold.
func WithMatchThreshold(threshold float32) Option {
	return func(p *Pipeline) error {
		p.matchThreshold = threshold
		return nil
	}
}

// WithReasoningWorkers enables bounded-concurrency processing of candidates
// in the reasoning loop. The final match list is re-sorted to rank order.
// Default is 1 (serial), which also makes the event sequence deterministic.
func WithReasoningWorkers(workers int) Option {
	return func(p *Pipeline) error {
		if workers < 1 {
			workers = 1
		}
		p.reasoningWorkers = workers
		return nil
	}
}

// WithFetcher sets the blob fetcher used to download query images. Required
// only for runs whose request carries an image URL.
func WithFetcher(fetcher blob.Fetcher) Option {
	return func(p *Pipeline) error {
		p.fetcher = fetcher
		return nil
	}
}

// NewPipeline creates a search pipeline over the given collaborators.
func NewPipeline(
	provider ai.InferenceProvider,
	photos storage.PhotoRepository,
	searches storage.SearchRepository,
	opts ...Option,
) (*Pipeline, error) {
	if provider == nil {
		return nil, ErrProviderRequired
	}
	if photos == nil {
		return nil, ErrPhotoRepositoryRequired
	}
	if searches == nil {
		return nil, ErrSearchRepositoryRequired
	}

	p := &Pipeline{
		completer:        provider.Completer(),
		embedder:         provider.Embedder(),
		photos:           photos,
		searches:         searches,
		matchCount:       DefaultMatchCount,
		matchThreshold:   DefaultMatchThreshold,
		reasoningWorkers: 1,
		logger:           slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Run executes one search. Events are emitted to sink in order; a nil sink
// discards them. On an upstream or search-result persistence failure the run
// aborts with a terminal error event and no outcome; already-persisted rows
// are not rolled back.
func (p *Pipeline) Run(ctx context.Context, req *core.SearchRequest, sink Sink) (*core.SearchOutcome, error) {
	if sink == nil {
		sink = noopSink{}
	}
	if err := core.ValidateSearchRequest(req); err != nil {
		sink.Emit(Error{Message: err.Error()})
		return nil, err
	}
	if req.HasImage() && p.fetcher == nil {
		sink.Emit(Error{Message: ErrFetcherRequired.Error()})
		return nil, ErrFetcherRequired
	}

	outcome, err := p.run(ctx, req, sink)
	if err != nil {
		p.logger.Error("search run failed", "search_id", req.Id, "err", err)
		sink.Emit(Error{Message: err.Error()})
		return nil, err
	}
	return outcome, nil
}

func (p *Pipeline) run(ctx context.Context, req *core.SearchRequest, sink Sink) (*core.SearchOutcome, error) {
	logger := p.logger.With("search_id", req.Id)

	// EXTRACT_QUERY
	logger.Info("extracting details from query", "query", req.Query)
	sink.Emit(ExtractQueryStart{SearchId: req.Id, Query: req.Query})
	frags, err := p.completer.Complete(ctx, extractQueryRequest(req.Query))
	if err != nil {
		return nil, wrapUpstream(err)
	}
	extractedDetails, err := drain(frags, func(chunk string) {
		sink.Emit(ExtractQueryChunk{Chunk: chunk})
	})
	if err != nil {
		return nil, err
	}
	sink.Emit(ExtractQueryComplete{ExtractedDetails: extractedDetails})

	// IMAGE_ANALYSIS, only when the request carries an image
	var imageAnalysis string
	if req.HasImage() {
		logger.Info("analyzing query image", "image_url", req.ImageURL)
		sink.Emit(ImageAnalysisStart{ImageURL: req.ImageURL})
		image, mime, err := p.fetcher.Fetch(ctx, req.ImageURL)
		if err != nil {
			return nil, wrapUpstream(err)
		}
		frags, err := p.completer.Complete(ctx, imageAnalysisRequest(image, mime))
		if err != nil {
			return nil, wrapUpstream(err)
		}
		imageAnalysis, err = drain(frags, func(chunk string) {
			sink.Emit(ImageAnalysisChunk{Chunk: chunk})
		})
		if err != nil {
			return nil, err
		}
		sink.Emit(ImageAnalysisComplete{Analysis: imageAnalysis})
	}

	// FORMAT_QUERY
	logger.Info("formatting search query")
	sink.Emit(FormatQueryStart{})
	frags, err = p.completer.Complete(ctx, formatQueryRequest(req.Query, extractedDetails, imageAnalysis))
	if err != nil {
		return nil, wrapUpstream(err)
	}
	rawFormatted, err := drain(frags, nil)
	if err != nil {
		return nil, err
	}
	formattedQuery, formattingExplanation, ok := parseFormatQuery(rawFormatted, req.Query)
	if ok {
		sink.Emit(FormatQueryComplete{FormattedQuery: formattedQuery, Explanation: formattingExplanation})
	} else {
		// Parse fallback: continue with the original query text.
		logger.Warn("failed to parse formatted query, using original query")
		sink.Emit(FormatQueryError{
			FormattedQuery: formattedQuery,
			Explanation:    formattingExplanation,
			Message:        "failed to parse formatted query",
		})
	}

	// RETRIEVE
	logger.Info("retrieving candidates", "formatted_query", formattedQuery)
	sink.Emit(SearchStart{FormattedQuery: formattedQuery})
	ret := &retriever{
		embedder:  p.embedder,
		photos:    p.photos,
		count:     p.matchCount,
		threshold: p.matchThreshold,
		logger:    logger,
	}
	candidates, err := ret.retrieve(ctx, formattedQuery)
	if err != nil {
		return nil, err
	}

	// CREATE_SEARCH_RESULT: the result row exists before any match row,
	// even when retrieval came back empty.
	resultId, err := p.searches.CreateSearchResult(ctx, req.Id)
	if err != nil {
		return nil, wrapSearchResult(err)
	}
	sink.Emit(SearchComplete{SearchResultId: resultId, MatchesCount: len(candidates)})

	outcome := &core.SearchOutcome{
		SearchId:              req.Id,
		SearchResultId:        resultId,
		Query:                 req.Query,
		ExtractedDetails:      extractedDetails,
		FormattedQuery:        formattedQuery,
		FormattingExplanation: formattingExplanation,
		Matches:               []*core.MatchRecord{},
	}

	// REASONING_LOOP, skipped entirely on empty retrieval
	if len(candidates) > 0 {
		logger.Info("generating reasoning for candidates", "count", len(candidates))
		sink.Emit(ReasoningStart{Candidates: len(candidates)})
		processor := &matchProcessor{
			completer: p.completer,
			searches:  p.searches,
			workers:   p.reasoningWorkers,
			logger:    logger,
		}
		matches, err := processor.process(ctx, stageInputs{
			query:            req.Query,
			extractedDetails: extractedDetails,
			formattedQuery:   formattedQuery,
			imageAnalysis:    imageAnalysis,
		}, resultId, candidates, sink)
		if err != nil {
			return nil, err
		}
		outcome.Matches = matches
		sink.Emit(ReasoningComplete{MatchesCount: len(matches)})
	} else {
		logger.Info("no candidates above threshold")
	}

	// COMPLETE
	sink.Emit(Complete{Outcome: outcome})

	// The query image's own analysis is written back only after the
	// aggregate is complete, so the image cannot match itself within its
	// own run. Failures here are logged, not surfaced; the search already
	// succeeded.
	if req.HasImage() && imageAnalysis != "" {
		p.updateQueryPhoto(ctx, req.ImageURL, imageAnalysis, logger)
	}

	return outcome, nil
}

func (p *Pipeline) updateQueryPhoto(ctx context.Context, imageURL, analysis string, logger *slog.Logger) {
	vector, err := p.embedder.EmbedText(ctx, analysis)
	if err != nil {
		logger.Error("failed to embed query image analysis", "err", err)
		return
	}
	photoId := core.IDFromContent(imageURL)
	if err := p.photos.UpdatePhotoAnalysis(ctx, photoId, analysis, ai.NormalizeVector(vector)); err != nil {
		logger.Error("failed to update query photo analysis",
			"photo_id", photoId, "err", err)
	}
}
