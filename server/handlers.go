package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/poiesic/picsearch/core"
	"github.com/poiesic/picsearch/ingest"
	"github.com/poiesic/picsearch/storage"
)

type searchRequest struct {
	Id    string `json:"id"`
	Query string `json:"query"`
	Image string `json:"image,omitempty"`
}

type chatRequest struct {
	Question string `json:"question"`
}

type ingestRequest struct {
	URLs     []string          `json:"urls"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type searchResultResponse struct {
	SearchId       string              `json:"search_id"`
	SearchResultId string              `json:"search_result_id"`
	Matches        []*core.MatchRecord `json:"matches"`
}

type chatMessagesResponse struct {
	MatchId  string              `json:"match_id"`
	Messages []*core.ChatMessage `json:"messages"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSearch runs the search pipeline, streaming events as SSE. The
// search row is created before the run so results can be retrieved by ID
// even if the client disconnects mid-stream.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var body searchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if body.Query == "" {
		http.Error(w, "query is required", http.StatusBadRequest)
		return
	}
	if body.Id == "" {
		body.Id = uuid.NewString()
	}

	req := &core.SearchRequest{Id: body.Id, Query: body.Query, ImageURL: body.Image}
	if err := s.searches.CreateSearch(r.Context(), req); err != nil {
		s.logger.Error("failed to create search", "search_id", req.Id, "err", err)
		http.Error(w, "failed to create search", http.StatusInternalServerError)
		return
	}

	sink, err := newSSESink(w, s.logger)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Terminal errors already surfaced to the client as an error event.
	if _, err := s.searcher.Run(r.Context(), req, sink); err != nil {
		s.logger.Error("search failed", "search_id", req.Id, "err", err)
	}
}

// handleChat answers a question about a match, streaming the answer as SSE.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	matchId := chi.URLParam(r, "match_id")

	var body chatRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if body.Question == "" {
		http.Error(w, "question is required", http.StatusBadRequest)
		return
	}

	sink, err := newSSESink(w, s.logger)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if _, err := s.answerer.Answer(r.Context(), matchId, body.Question, sink); err != nil {
		s.logger.Error("chat answer failed", "match_id", matchId, "err", err)
	}
}

// handleIngestPhotos stores photos and schedules their analysis.
func (s *Server) handleIngestPhotos(w http.ResponseWriter, r *http.Request) {
	var body ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	added, err := s.ingestor.Ingest(r.Context(), body.URLs, &ingest.IngestOptions{
		Metadata: body.Metadata,
	})
	if err != nil {
		if errors.Is(err, ingest.ErrNoPhotos) {
			http.Error(w, "urls is required", http.StatusBadRequest)
			return
		}
		s.logger.Error("photo ingestion failed", "err", err)
		http.Error(w, "failed to ingest photos", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"photos": added})
}

func (s *Server) handleGetSearchResult(w http.ResponseWriter, r *http.Request) {
	searchId := chi.URLParam(r, "search_id")

	resultId, matches, err := s.searches.GetSearchResult(r.Context(), searchId)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "search result not found", http.StatusNotFound)
			return
		}
		s.logger.Error("failed to load search result", "search_id", searchId, "err", err)
		http.Error(w, "failed to load search result", http.StatusInternalServerError)
		return
	}
	if matches == nil {
		matches = []*core.MatchRecord{}
	}

	writeJSON(w, http.StatusOK, searchResultResponse{
		SearchId:       searchId,
		SearchResultId: resultId,
		Matches:        matches,
	})
}

func (s *Server) handleGetChatMessages(w http.ResponseWriter, r *http.Request) {
	matchId := chi.URLParam(r, "match_id")

	messages, err := s.chats.GetMessages(r.Context(), matchId, 0)
	if err != nil {
		s.logger.Error("failed to load chat messages", "match_id", matchId, "err", err)
		http.Error(w, "failed to load chat messages", http.StatusInternalServerError)
		return
	}
	if messages == nil {
		messages = []*core.ChatMessage{}
	}

	writeJSON(w, http.StatusOK, chatMessagesResponse{
		MatchId:  matchId,
		Messages: messages,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
