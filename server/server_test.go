package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/poiesic/picsearch/ai/mock"
	"github.com/poiesic/picsearch/core"
	"github.com/poiesic/picsearch/ingest"
	"github.com/poiesic/picsearch/pipeline"
	"github.com/poiesic/picsearch/storage"
	"github.com/poiesic/picsearch/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct{}

func (stubFetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	return []byte("image-bytes"), "image/jpeg", nil
}

type serverEnv struct {
	server   *Server
	photos   storage.PhotoRepository
	searches storage.SearchRepository
	chats    storage.ChatRepository
	embedder *mock.MockEmbedder
}

func newServerEnv(t *testing.T) *serverEnv {
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
		"extract every concrete detail": "subject: red bicycle; setting: lakeside",
		"Rewrite the user's photo search query": `{"formatted_query": "a red bicycle parked beside a calm lake",
			"explanation": "combined subject and setting"}`,
		"short reasons":                  `{"reasons": ["both show a red bicycle"]}`,
		"most interesting or surprising": `{"interesting_details": ["reflection"], "explanation": "e", "heading": "Lakeside"}`,
		"question about a specific photo": "It shows a red bicycle by a lake.",
	}
	embedder := mock.NewMockEmbedder()
	provider := mock.NewMockProviderWithServices(completer, embedder)

	searcher, err := pipeline.NewPipeline(provider, photoRepo, searchRepo,
		pipeline.WithMatchThreshold(-1), pipeline.WithFetcher(stubFetcher{}))
	require.NoError(t, err)

	answerer, err := pipeline.NewAnswerer(provider, photoRepo, searchRepo, chatRepo)
	require.NoError(t, err)

	ingestor, err := ingest.NewPipeline(provider, photoRepo, stubFetcher{})
	require.NoError(t, err)
	t.Cleanup(ingestor.Release)

	srv, err := New(searcher, answerer, ingestor, searchRepo, chatRepo)
	require.NoError(t, err)

	return &serverEnv{
		server:   srv,
		photos:   photoRepo,
		searches: searchRepo,
		chats:    chatRepo,
		embedder: embedder,
	}
}

// seedPhoto stores a photo whose vector exactly matches the embedding of the
// formatted query, so retrieval returns it first.
func (e *serverEnv) seedPhoto(t *testing.T) *core.Photo {
	t.Helper()
	vector, err := e.embedder.EmbedText(context.Background(),
		"a red bicycle parked beside a calm lake")
	require.NoError(t, err)

	photos, err := e.photos.AddPhotos(context.Background(), &core.Photo{
		URL:      "https://photos.example/bike.jpg",
		Analysis: "a red bicycle by a lake",
		Vector:   vector,
	})
	require.NoError(t, err)
	return photos[0]
}

func TestHealth(t *testing.T) {
	env := newServerEnv(t)

	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestSearchEndpoint(t *testing.T) {
	env := newServerEnv(t)
	env.seedPhoto(t)

	body := strings.NewReader(`{"id": "search-1", "query": "red bicycle near a lake"}`)
	req := httptest.NewRequest(http.MethodPost, "/search", body)
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	stream := rec.Body.String()
	assert.Contains(t, stream, "event: extract_query_start")
	assert.Contains(t, stream, "event: format_query_complete")
	assert.Contains(t, stream, "event: match_reasoning_complete")
	assert.Contains(t, stream, "event: complete")
	assert.NotContains(t, stream, "event: error")

	// The result is retrievable afterwards.
	rec = httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/db/search_results/search-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var result searchResultResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "search-1", result.SearchId)
	require.Len(t, result.Matches, 1)
	assert.True(t, result.Matches[0].IsBestMatch)
}

func TestSearchEndpoint_BadRequest(t *testing.T) {
	env := newServerEnv(t)

	t.Run("missing query", func(t *testing.T) {
		rec := httptest.NewRecorder()
		env.server.Handler().ServeHTTP(rec,
			httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"id": "x"}`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		env.server.Handler().ServeHTTP(rec,
			httptest.NewRequest(http.MethodPost, "/search", strings.NewReader("not json")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSearchResultNotFound(t *testing.T) {
	env := newServerEnv(t)

	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/db/search_results/absent", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChatEndpoint(t *testing.T) {
	env := newServerEnv(t)
	photo := env.seedPhoto(t)

	match := &core.MatchRecord{
		SearchResultId: "result-1",
		PhotoId:        photo.Id,
		PhotoURL:       photo.URL,
		Rank:           0,
		IsBestMatch:    true,
	}
	matchId, err := env.searches.InsertMatch(context.Background(), match)
	require.NoError(t, err)

	body := strings.NewReader(`{"question": "What color is the bicycle?"}`)
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec,
		httptest.NewRequest(http.MethodPost, "/chat/"+matchId, body))

	assert.Equal(t, http.StatusOK, rec.Code)
	stream := rec.Body.String()
	assert.Contains(t, stream, "event: answer_start")
	assert.Contains(t, stream, "event: answer_chunk")
	assert.Contains(t, stream, "event: complete")

	// History is retrievable afterwards.
	rec = httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/db/chats/match/"+matchId, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var history chatMessagesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history.Messages, 2)
	assert.True(t, history.Messages[0].IsUser)
	assert.False(t, history.Messages[1].IsUser)
}

func TestChatEndpoint_UnknownMatch(t *testing.T) {
	env := newServerEnv(t)

	body := strings.NewReader(`{"question": "anything"}`)
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec,
		httptest.NewRequest(http.MethodPost, "/chat/absent", body))

	// The stream opens before the lookup, so the failure arrives as an
	// error event.
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "event: error")
}

func TestIngestEndpoint(t *testing.T) {
	env := newServerEnv(t)

	t.Run("accepted", func(t *testing.T) {
		body := strings.NewReader(`{"urls": ["https://photos.example/new.jpg"]}`)
		rec := httptest.NewRecorder()
		env.server.Handler().ServeHTTP(rec,
			httptest.NewRequest(http.MethodPost, "/db/photos", body))
		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Contains(t, rec.Body.String(), "photos")
	})

	t.Run("no urls", func(t *testing.T) {
		rec := httptest.NewRecorder()
		env.server.Handler().ServeHTTP(rec,
			httptest.NewRequest(http.MethodPost, "/db/photos", strings.NewReader(`{"urls": []}`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
