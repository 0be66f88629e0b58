package pipeline

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/picsearch/ai"
	"github.com/poiesic/picsearch/core"
	"github.com/poiesic/picsearch/storage"
)

// stageInputs carries the resolved outputs of the pre-retrieval stages into
// the per-candidate reasoning loop.
type stageInputs struct {
	query            string
	extractedDetails string
	formattedQuery   string
	imageAnalysis    string
}

// matchProcessor drives the reasoning and detail-extraction stages for each
// candidate and persists the assembled match records.
type matchProcessor struct {
	completer ai.Completer
	searches  storage.SearchRepository
	workers   int
	logger    *slog.Logger
}

// process iterates candidates in rank order, producing the final match list.
// A persistence failure for one candidate logs and skips that candidate
// without renumbering the rest. An upstream failure aborts the run.
//
// When workers > 1, candidates are processed on a bounded pool and the final
// list is re-sorted to rank order; events carry candidate identity either
// way.
func (m *matchProcessor) process(ctx context.Context, in stageInputs, resultId string, candidates []*core.Candidate, sink Sink) ([]*core.MatchRecord, error) {
	if m.workers > 1 && len(candidates) > 1 {
		return m.processParallel(ctx, in, resultId, candidates, sink)
	}

	var matches []*core.MatchRecord
	for _, candidate := range candidates {
		record, err := m.processOne(ctx, in, resultId, candidate, sink)
		if err != nil {
			return nil, err
		}
		if record != nil {
			matches = append(matches, record)
		}
	}
	return matches, nil
}

func (m *matchProcessor) processParallel(ctx context.Context, in stageInputs, resultId string, candidates []*core.Candidate, sink Sink) ([]*core.MatchRecord, error) {
	pool, err := ants.NewPool(m.workers)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		matches  []*core.MatchRecord
		firstErr error
	)

	for _, candidate := range candidates {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			record, err := m.processOne(ctx, in, resultId, candidate, sink)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				return
			}
			if record != nil {
				matches = append(matches, record)
			}
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = submitErr
			}
			mu.Unlock()
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	// Restore rank order after the fan-out.
	slices.SortFunc(matches, func(a, b *core.MatchRecord) int {
		return a.Rank - b.Rank
	})
	return matches, nil
}

// processOne runs both per-candidate stages and persists the record.
// Returns (nil, nil) when the candidate is skipped due to a persistence
// failure.
func (m *matchProcessor) processOne(ctx context.Context, in stageInputs, resultId string, candidate *core.Candidate, sink Sink) (*core.MatchRecord, error) {
	frags, err := m.completer.Complete(ctx, reasoningRequest(
		in.query, in.extractedDetails, in.formattedQuery, candidate.Analysis, in.imageAnalysis))
	if err != nil {
		return nil, wrapUpstream(err)
	}
	rawReasons, err := drain(frags, func(chunk string) {
		sink.Emit(ReasoningProgress{PhotoId: candidate.PhotoId, Rank: candidate.Rank, Chunk: chunk})
	})
	if err != nil {
		return nil, err
	}
	reasons, ok := parseReasons(rawReasons)
	if !ok {
		m.logger.Warn("failed to parse reasoning response, using fallback",
			"photo_id", candidate.PhotoId, "rank", candidate.Rank)
	}

	frags, err = m.completer.Complete(ctx, interestingDetailsRequest(candidate.Analysis))
	if err != nil {
		return nil, wrapUpstream(err)
	}
	rawDetails, err := drain(frags, func(chunk string) {
		sink.Emit(InterestingDetailsProgress{PhotoId: candidate.PhotoId, Rank: candidate.Rank, Chunk: chunk})
	})
	if err != nil {
		return nil, err
	}
	details, _, heading, ok := parseInterestingDetails(rawDetails)
	if !ok {
		m.logger.Warn("failed to parse interesting details response, using fallback",
			"photo_id", candidate.PhotoId, "rank", candidate.Rank)
	}

	record := &core.MatchRecord{
		SearchResultId:     resultId,
		PhotoId:            candidate.PhotoId,
		PhotoURL:           candidate.PhotoURL,
		Similarity:         candidate.Similarity,
		Rank:               candidate.Rank,
		IsBestMatch:        candidate.Rank == 0,
		Reasons:            reasons,
		InterestingDetails: details,
		Heading:            heading,
	}

	if _, err := m.searches.InsertMatch(ctx, record); err != nil {
		// Skip this candidate; remaining candidates keep their ranks.
		m.logger.Error("failed to persist match, skipping candidate",
			"photo_id", candidate.PhotoId, "rank", candidate.Rank, "err", err)
		return nil, nil
	}

	sink.Emit(MatchReasoningComplete{Match: record})
	return record, nil
}
