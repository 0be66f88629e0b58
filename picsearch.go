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


package picsearch

import (
	"log/slog"

	"github.com/poiesic/picsearch/ai"
	"github.com/poiesic/picsearch/ai/openai"
	"github.com/poiesic/picsearch/blob"
	"github.com/poiesic/picsearch/ingest"
	"github.com/poiesic/picsearch/pipeline"
	"github.com/poiesic/picsearch/server"
	"github.com/poiesic/picsearch/storage"
	"github.com/poiesic/picsearch/storage/badger"
)

// Database bundles a BadgerDB-backed photo archive with the inference
// provider and fetcher the pipelines need, so callers can assemble the
// whole system from a directory path.
type Database struct {
	backend    *badger.Backend
	photoRepo  storage.PhotoRepository
	searchRepo storage.SearchRepository
	chatRepo   storage.ChatRepository
	provider   ai.InferenceProvider
	fetcher    blob.Fetcher
	logger     *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	fetcher  blob.Fetcher
}

// WithAIConfig overrides the inference configuration.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = config
	}
}

// WithFetcher overrides the blob fetcher used for images.
func WithFetcher(fetcher blob.Fetcher) DatabaseOption {
	return func(o *databaseOptions) {
		o.fetcher = fetcher
	}
}

func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
		fetcher:  blob.NewHTTPFetcher(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}

	photoRepo, err := badger.NewPhotoRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	searchRepo, err := badger.NewSearchRepository(backend)
	if err != nil {
		photoRepo.Close()
		backend.Close()
		return nil, err
	}

	chatRepo, err := badger.NewChatRepository(backend)
	if err != nil {
		searchRepo.Close()
		photoRepo.Close()
		backend.Close()
		return nil, err
	}

	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		chatRepo.Close()
		searchRepo.Close()
		photoRepo.Close()
		backend.Close()
		return nil, err
	}

	return &Database{
		backend:    backend,
		photoRepo:  photoRepo,
		searchRepo: searchRepo,
		chatRepo:   chatRepo,
		provider:   provider,
		fetcher:    options.fetcher,
		logger:     slog.Default(),
	}, nil
}

func (db *Database) Close() error {
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	if err := db.chatRepo.Close(); err != nil {
		db.logger.Error("error closing chat repository", "err", err)
		return err
	}
	if err := db.searchRepo.Close(); err != nil {
		db.logger.Error("error closing search repository", "err", err)
		return err
	}
	if err := db.photoRepo.Close(); err != nil {
		db.logger.Error("error closing photo repository", "err", err)
		return err
	}

	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) PhotoRepository() storage.PhotoRepository {
	return db.photoRepo
}

func (db *Database) SearchRepository() storage.SearchRepository {
	return db.searchRepo
}

func (db *Database) ChatRepository() storage.ChatRepository {
	return db.chatRepo
}

// NewSearchPipeline creates a search pipeline over the database's
// collaborators. The database's fetcher is installed first, so callers can
// still override it through opts.
func (db *Database) NewSearchPipeline(opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	merged := append([]pipeline.Option{pipeline.WithFetcher(db.fetcher)}, opts...)
	return pipeline.NewPipeline(db.provider, db.photoRepo, db.searchRepo, merged...)
}

// NewAnswerer creates a question answerer over the database's collaborators.
func (db *Database) NewAnswerer(opts ...pipeline.AnswererOption) (*pipeline.Answerer, error) {
	return pipeline.NewAnswerer(db.provider, db.photoRepo, db.searchRepo, db.chatRepo, opts...)
}

// NewIngestPipeline creates an ingestion pipeline over the database's
// collaborators.
func (db *Database) NewIngestPipeline(opts ...ingest.Option) (*ingest.Pipeline, error) {
	return ingest.NewPipeline(db.provider, db.photoRepo, db.fetcher, opts...)
}

// NewServer assembles an HTTP server with fresh pipelines over the database.
// The caller owns the ingest pipeline's worker pool through the server's
// lifetime; Close releases everything else.
func (db *Database) NewServer(opts ...server.Option) (*server.Server, *ingest.Pipeline, error) {
	searcher, err := db.NewSearchPipeline()
	if err != nil {
		return nil, nil, err
	}
	answerer, err := db.NewAnswerer()
	if err != nil {
		return nil, nil, err
	}
	ingestor, err := db.NewIngestPipeline()
	if err != nil {
		return nil, nil, err
	}
	srv, err := server.New(searcher, answerer, ingestor, db.searchRepo, db.chatRepo, opts...)
	if err != nil {
		ingestor.Release()
		return nil, nil, err
	}
	return srv, ingestor, nil
}
