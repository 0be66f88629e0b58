package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/picsearch/ai"
	"github.com/poiesic/picsearch/ai/mock"
	"github.com/poiesic/picsearch/core"
	"github.com/poiesic/picsearch/storage"
	"github.com/poiesic/picsearch/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Prompt substrings identifying each stage in mock completer responses.
const (
	extractKey   = "extract every concrete detail"
	formatKey    = "Rewrite the user's photo search query"
	reasoningKey = "short reasons"
	detailsKey   = "most interesting or surprising"
	imageKey     = "advanced image analysis AI"
)

type testEnv struct {
	photos    storage.PhotoRepository
	searches  storage.SearchRepository
	chats     storage.ChatRepository
	backend   *badger.Backend
	completer *mock.MockCompleter
	embedder  *mock.MockEmbedder
	provider  ai.InferenceProvider
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	photoRepo, searchRepo, chatRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		chatRepo.Close()
		searchRepo.Close()
		photoRepo.Close()
		backend.Close()
	})

	completer := mock.NewMockCompleter()
	completer.Responses = map[string]string{
		extractKey:   "subject: red bicycle; setting: lakeside",
		formatKey:    `{"formatted_query": "a red bicycle parked beside a calm lake", "explanation": "combined subject and setting"}`,
		reasoningKey: `{"reasons": ["both show a red bicycle", "both are set by water"]}`,
		detailsKey:   `{"interesting_details": ["reflection on the water"], "explanation": "subtle detail", "heading": "Lakeside ride"}`,
		imageKey:     "A red bicycle leaning against a wooden dock at a lake.",
	}
	embedder := mock.NewMockEmbedder()

	return &testEnv{
		photos:    photoRepo,
		searches:  searchRepo,
		chats:     chatRepo,
		backend:   backend,
		completer: completer,
		embedder:  embedder,
		provider:  mock.NewMockProviderWithServices(completer, embedder),
	}
}

// seedPhotos stores photos whose vectors have a known similarity ordering
// against the embedding of queryText: the first photo matches exactly, each
// later photo has progressively more components negated and thus a strictly
// lower dot product.
func (e *testEnv) seedPhotos(t *testing.T, queryText string, count int) []*core.Photo {
	t.Helper()
	ctx := context.Background()

	base, err := e.embedder.EmbedText(ctx, queryText)
	require.NoError(t, err)

	photos := make([]*core.Photo, count)
	for i := 0; i < count; i++ {
		vector := make([]float32, len(base))
		copy(vector, base)
		for j := 0; j < i; j++ {
			vector[j] = -vector[j]
		}
		photos[i] = &core.Photo{
			URL:      "https://photos.example/seed-" + string(rune('a'+i)) + ".jpg",
			Analysis: "photo analysis " + string(rune('a'+i)),
			Vector:   vector,
		}
	}
	_, err = e.photos.AddPhotos(ctx, photos...)
	require.NoError(t, err)
	return photos
}

func newTestPipeline(t *testing.T, env *testEnv, opts ...Option) *Pipeline {
	t.Helper()
	opts = append([]Option{WithMatchThreshold(-1)}, opts...)
	p, err := NewPipeline(env.provider, env.photos, env.searches, opts...)
	require.NoError(t, err)
	return p
}

func TestNewPipeline(t *testing.T) {
	env := newTestEnv(t)

	t.Run("valid configuration", func(t *testing.T) {
		p, err := NewPipeline(env.provider, env.photos, env.searches)
		require.NoError(t, err)
		assert.NotNil(t, p)
	})

	t.Run("nil provider", func(t *testing.T) {
		_, err := NewPipeline(nil, env.photos, env.searches)
		assert.Equal(t, ErrProviderRequired, err)
	})

	t.Run("nil photo repository", func(t *testing.T) {
		_, err := NewPipeline(env.provider, nil, env.searches)
		assert.Equal(t, ErrPhotoRepositoryRequired, err)
	})

	t.Run("nil search repository", func(t *testing.T) {
		_, err := NewPipeline(env.provider, env.photos, nil)
		assert.Equal(t, ErrSearchRepositoryRequired, err)
	})
}

func TestRunTextQuery(t *testing.T) {
	env := newTestEnv(t)
	env.seedPhotos(t, "a red bicycle parked beside a calm lake", 2)
	p := newTestPipeline(t, env)

	sink := &CollectorSink{}
	outcome, err := p.Run(context.Background(), &core.SearchRequest{
		Id:    "search-1",
		Query: "red bicycle near a lake",
	}, sink)
	require.NoError(t, err)
	require.NotNil(t, outcome)

	assert.Equal(t, "search-1", outcome.SearchId)
	assert.NotEmpty(t, outcome.SearchResultId)
	assert.Equal(t, "subject: red bicycle; setting: lakeside", outcome.ExtractedDetails)
	assert.Equal(t, "a red bicycle parked beside a calm lake", outcome.FormattedQuery)
	assert.Equal(t, "combined subject and setting", outcome.FormattingExplanation)

	require.Len(t, outcome.Matches, 2)
	assert.Equal(t, 0, outcome.Matches[0].Rank)
	assert.True(t, outcome.Matches[0].IsBestMatch)
	assert.Equal(t, 1, outcome.Matches[1].Rank)
	assert.False(t, outcome.Matches[1].IsBestMatch)
	assert.Greater(t, outcome.Matches[0].Similarity, outcome.Matches[1].Similarity)
	assert.Equal(t, []string{"both show a red bicycle", "both are set by water"}, outcome.Matches[0].Reasons)
	assert.Equal(t, []string{"reflection on the water"}, outcome.Matches[0].InterestingDetails)
	assert.Equal(t, "Lakeside ride", outcome.Matches[0].Heading)

	// Event order: streaming chunks surround the fixed sequence.
	kinds := sink.Kinds()
	fixed := filterKinds(kinds,
		"extract_query_chunk", "reasoning_progress", "interesting_details_progress")
	assert.Equal(t, []string{
		"extract_query_start",
		"extract_query_complete",
		"format_query_start",
		"format_query_complete",
		"search_start",
		"search_complete",
		"reasoning_start",
		"match_reasoning_complete",
		"match_reasoning_complete",
		"reasoning_complete",
		"complete",
	}, fixed)
	assert.Contains(t, kinds, "extract_query_chunk")
	assert.Contains(t, kinds, "reasoning_progress")
	assert.NotContains(t, kinds, "image_analysis_start")
	assert.NotContains(t, kinds, "error")

	// Matches were persisted under the result row in rank order.
	resultId, persisted, err := env.searches.GetSearchResult(context.Background(), "search-1")
	require.NoError(t, err)
	assert.Equal(t, outcome.SearchResultId, resultId)
	require.Len(t, persisted, 2)
	assert.Equal(t, 0, persisted[0].Rank)
	assert.Equal(t, 1, persisted[1].Rank)
}

func TestRunFormatQueryFallback(t *testing.T) {
	env := newTestEnv(t)
	env.completer.Responses[formatKey] = "Sorry, I cannot produce JSON today."
	// Retrieval embeds the fallback (original) query text.
	env.seedPhotos(t, "red bicycle near a lake", 1)
	p := newTestPipeline(t, env)

	sink := &CollectorSink{}
	outcome, err := p.Run(context.Background(), &core.SearchRequest{
		Id:    "search-fallback",
		Query: "red bicycle near a lake",
	}, sink)
	require.NoError(t, err)

	assert.Equal(t, "red bicycle near a lake", outcome.FormattedQuery)
	assert.Equal(t, "Error formatting query", outcome.FormattingExplanation)

	kinds := sink.Kinds()
	assert.Contains(t, kinds, "format_query_error")
	assert.NotContains(t, kinds, "format_query_complete")
	// The run still completes.
	assert.Equal(t, "complete", kinds[len(kinds)-1])
}

func TestRunEmptyRetrieval(t *testing.T) {
	env := newTestEnv(t)
	p := newTestPipeline(t, env)

	sink := &CollectorSink{}
	outcome, err := p.Run(context.Background(), &core.SearchRequest{
		Id:    "search-empty",
		Query: "something nothing matches",
	}, sink)
	require.NoError(t, err)

	assert.Empty(t, outcome.Matches)

	kinds := sink.Kinds()
	assert.NotContains(t, kinds, "reasoning_start")
	assert.NotContains(t, kinds, "reasoning_complete")
	assert.Equal(t, "complete", kinds[len(kinds)-1])

	// The search result row still exists.
	resultId, matches, err := env.searches.GetSearchResult(context.Background(), "search-empty")
	require.NoError(t, err)
	assert.Equal(t, outcome.SearchResultId, resultId)
	assert.Empty(t, matches)
}

func TestRunUpstreamFailure(t *testing.T) {
	t.Run("call failure", func(t *testing.T) {
		env := newTestEnv(t)
		callErr := errors.New("service unavailable")
		env.completer.CompleteFunc = func(ctx context.Context, req ai.CompletionRequest) (ai.Fragments, error) {
			return nil, callErr
		}
		p := newTestPipeline(t, env)

		sink := &CollectorSink{}
		_, err := p.Run(context.Background(), &core.SearchRequest{Id: "s", Query: "q"}, sink)
		assert.ErrorIs(t, err, ErrUpstream)
		assert.ErrorIs(t, err, callErr)

		kinds := sink.Kinds()
		assert.Equal(t, []string{"extract_query_start", "error"}, kinds)
	})

	t.Run("mid-stream failure", func(t *testing.T) {
		env := newTestEnv(t)
		streamErr := errors.New("stream cut")
		env.completer.CompleteFunc = func(ctx context.Context, req ai.CompletionRequest) (ai.Fragments, error) {
			return mock.FragmentsWithError(streamErr, "partial "), nil
		}
		p := newTestPipeline(t, env)

		sink := &CollectorSink{}
		_, err := p.Run(context.Background(), &core.SearchRequest{Id: "s", Query: "q"}, sink)
		assert.ErrorIs(t, err, ErrUpstream)

		kinds := sink.Kinds()
		assert.Equal(t, "error", kinds[len(kinds)-1])
	})

	t.Run("invalid request", func(t *testing.T) {
		env := newTestEnv(t)
		p := newTestPipeline(t, env)

		_, err := p.Run(context.Background(), &core.SearchRequest{Id: "s"}, nil)
		assert.ErrorIs(t, err, core.ErrInvalidSearchRequest)
	})
}

func TestRunDeterministicEvents(t *testing.T) {
	runOnce := func(t *testing.T) ([]string, *core.SearchOutcome) {
		env := newTestEnv(t)
		env.seedPhotos(t, "a red bicycle parked beside a calm lake", 3)
		p := newTestPipeline(t, env)

		sink := &CollectorSink{}
		outcome, err := p.Run(context.Background(), &core.SearchRequest{
			Id:    "search-det",
			Query: "red bicycle near a lake",
		}, sink)
		require.NoError(t, err)
		return sink.Kinds(), outcome
	}

	kinds1, outcome1 := runOnce(t)
	kinds2, outcome2 := runOnce(t)

	assert.Equal(t, kinds1, kinds2)
	assert.Equal(t, outcome1.FormattedQuery, outcome2.FormattedQuery)
	require.Equal(t, len(outcome1.Matches), len(outcome2.Matches))
	for i := range outcome1.Matches {
		assert.Equal(t, outcome1.Matches[i].Rank, outcome2.Matches[i].Rank)
		assert.Equal(t, outcome1.Matches[i].PhotoURL, outcome2.Matches[i].PhotoURL)
		assert.Equal(t, outcome1.Matches[i].Reasons, outcome2.Matches[i].Reasons)
	}
}

// failingInsertRepo wraps a SearchRepository and fails InsertMatch for one
// specific rank.
type failingInsertRepo struct {
	storage.SearchRepository
	failRank int
}

func (r *failingInsertRepo) InsertMatch(ctx context.Context, match *core.MatchRecord) (string, error) {
	if match.Rank == r.failRank {
		return "", errors.New("simulated insert failure")
	}
	return r.SearchRepository.InsertMatch(ctx, match)
}

func TestRunPersistenceSkip(t *testing.T) {
	env := newTestEnv(t)
	env.seedPhotos(t, "a red bicycle parked beside a calm lake", 3)
	searches := &failingInsertRepo{SearchRepository: env.searches, failRank: 1}

	p, err := NewPipeline(env.provider, env.photos, searches, WithMatchThreshold(-1))
	require.NoError(t, err)

	sink := &CollectorSink{}
	outcome, err := p.Run(context.Background(), &core.SearchRequest{
		Id:    "search-skip",
		Query: "red bicycle near a lake",
	}, sink)
	require.NoError(t, err)

	// The failed candidate is skipped; the rest keep their original ranks.
	require.Len(t, outcome.Matches, 2)
	assert.Equal(t, 0, outcome.Matches[0].Rank)
	assert.Equal(t, 2, outcome.Matches[1].Rank)
	assert.True(t, outcome.Matches[0].IsBestMatch)
	assert.False(t, outcome.Matches[1].IsBestMatch)

	kinds := sink.Kinds()
	assert.Equal(t, 2, countKind(kinds, "match_reasoning_complete"))
	assert.Equal(t, "complete", kinds[len(kinds)-1])
}

// failingResultRepo wraps a SearchRepository and fails CreateSearchResult.
type failingResultRepo struct {
	storage.SearchRepository
}

func (r *failingResultRepo) CreateSearchResult(ctx context.Context, searchId string) (string, error) {
	return "", errors.New("simulated result failure")
}

func TestRunSearchResultFailure(t *testing.T) {
	env := newTestEnv(t)
	env.seedPhotos(t, "a red bicycle parked beside a calm lake", 3)
	searches := &failingResultRepo{SearchRepository: env.searches}

	p, err := NewPipeline(env.provider, env.photos, searches, WithMatchThreshold(-1))
	require.NoError(t, err)

	sink := &CollectorSink{}
	outcome, err := p.Run(context.Background(), &core.SearchRequest{
		Id:    "search-result-fail",
		Query: "red bicycle near a lake",
	}, sink)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSearchResultPersistence)
	assert.Nil(t, outcome)

	// A failed result row is terminal: no search_complete, no reasoning.
	kinds := sink.Kinds()
	assert.Equal(t, "error", kinds[len(kinds)-1])
	assert.Zero(t, countKind(kinds, "search_complete"))
	assert.Zero(t, countKind(kinds, "reasoning_start"))
	assert.Zero(t, countKind(kinds, "match_reasoning_complete"))

	_, _, err = env.searches.GetSearchResult(context.Background(), "search-result-fail")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

// cancelOnKind cancels a context once a given event kind is observed.
type cancelOnKind struct {
	CollectorSink
	kind   string
	cancel context.CancelFunc
}

func (s *cancelOnKind) Emit(event Event) {
	s.CollectorSink.Emit(event)
	if event.Kind() == s.kind {
		s.cancel()
	}
}

func TestRunCancelledMidRun(t *testing.T) {
	env := newTestEnv(t)
	env.seedPhotos(t, "a red bicycle parked beside a calm lake", 3)
	p := newTestPipeline(t, env)

	// Delegate to a plain scripted completer, refusing new completions once
	// the context is cancelled.
	scripted := mock.NewMockCompleter()
	scripted.Responses = env.completer.Responses
	env.completer.CompleteFunc = func(ctx context.Context, req ai.CompletionRequest) (ai.Fragments, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return scripted.Complete(ctx, req)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sink := &cancelOnKind{kind: "search_complete", cancel: cancel}

	outcome, err := p.Run(ctx, &core.SearchRequest{
		Id:    "search-cancel",
		Query: "red bicycle near a lake",
	}, sink)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, outcome)

	kinds := sink.Kinds()
	assert.Equal(t, "error", kinds[len(kinds)-1])
	assert.Zero(t, countKind(kinds, "match_reasoning_complete"))
	assert.Zero(t, countKind(kinds, "complete"))

	// Rows persisted before cancellation stay: the result row exists, with
	// no matches.
	resultId, matches, err := env.searches.GetSearchResult(context.Background(), "search-cancel")
	require.NoError(t, err)
	assert.NotEmpty(t, resultId)
	assert.Empty(t, matches)
}

func TestRunReasoningWorkers(t *testing.T) {
	env := newTestEnv(t)
	env.seedPhotos(t, "a red bicycle parked beside a calm lake", 3)
	p := newTestPipeline(t, env, WithReasoningWorkers(3))

	outcome, err := p.Run(context.Background(), &core.SearchRequest{
		Id:    "search-parallel",
		Query: "red bicycle near a lake",
	}, &CollectorSink{})
	require.NoError(t, err)

	// The fan-out re-sorts to rank order.
	require.Len(t, outcome.Matches, 3)
	for i, match := range outcome.Matches {
		assert.Equal(t, i, match.Rank)
		assert.Equal(t, i == 0, match.IsBestMatch)
	}
}

func filterKinds(kinds []string, drop ...string) []string {
	var out []string
	for _, kind := range kinds {
		dropped := false
		for _, d := range drop {
			if kind == d {
				dropped = true
				break
			}
		}
		if !dropped {
			out = append(out, kind)
		}
	}
	return out
}

func countKind(kinds []string, kind string) int {
	n := 0
	for _, k := range kinds {
		if k == kind {
			n++
		}
	}
	return n
}
