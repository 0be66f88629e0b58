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


// Package server exposes the search pipeline, chat answering, photo
// ingestion, and stored-result retrieval over HTTP. Search and chat
// responses stream as server-sent events.
package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/poiesic/picsearch/ingest"
	"github.com/poiesic/picsearch/pipeline"
	"github.com/poiesic/picsearch/storage"
)

var (
	// ErrPipelineRequired indicates no search pipeline was supplied.
	ErrPipelineRequired = errors.New("search pipeline is required")

	// ErrAnswererRequired indicates no chat answerer was supplied.
	ErrAnswererRequired = errors.New("answerer is required")

	// ErrIngestorRequired indicates no ingestion pipeline was supplied.
	ErrIngestorRequired = errors.New("ingestion pipeline is required")

	// ErrSearchRepositoryRequired indicates no search repository was supplied.
	ErrSearchRepositoryRequired = errors.New("search repository is required")

	// ErrChatRepositoryRequired indicates no chat repository was supplied.
	ErrChatRepositoryRequired = errors.New("chat repository is required")
)

// Server routes HTTP requests to the pipeline and repositories.
type Server struct {
	searcher *pipeline.Pipeline
	answerer *pipeline.Answerer
	ingestor *ingest.Pipeline
	searches storage.SearchRepository
	chats    storage.ChatRepository
	logger   *slog.Logger
	router   chi.Router
}

// Option configures a Server.
type Option func(*Server) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// New creates a server over the given collaborators.
func New(
	searcher *pipeline.Pipeline,
	answerer *pipeline.Answerer,
	ingestor *ingest.Pipeline,
	searches storage.SearchRepository,
	chats storage.ChatRepository,
	opts ...Option,
) (*Server, error) {
	if searcher == nil {
		return nil, ErrPipelineRequired
	}
	if answerer == nil {
		return nil, ErrAnswererRequired
	}
	if ingestor == nil {
		return nil, ErrIngestorRequired
	}
	if searches == nil {
		return nil, ErrSearchRepositoryRequired
	}
	if chats == nil {
		return nil, ErrChatRepositoryRequired
	}

	s := &Server{
		searcher: searcher,
		answerer: answerer,
		ingestor: ingestor,
		searches: searches,
		chats:    chats,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	s.router = s.buildRouter()
	return s, nil
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/search", s.handleSearch)
	r.Post("/chat/{match_id}", s.handleChat)
	r.Route("/db", func(r chi.Router) {
		r.Post("/photos", s.handleIngestPhotos)
		r.Get("/search_results/{search_id}", s.handleGetSearchResult)
		r.Get("/chats/match/{match_id}", s.handleGetChatMessages)
	})
	return r
}
