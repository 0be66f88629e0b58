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


package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/picsearch/ai"
	"github.com/poiesic/picsearch/ai/openai"
	"github.com/poiesic/picsearch/blob"
	"github.com/poiesic/picsearch/core"
	"github.com/poiesic/picsearch/ingest"
	"github.com/poiesic/picsearch/pipeline"
	"github.com/poiesic/picsearch/reembed"
	"github.com/poiesic/picsearch/server"
	"github.com/poiesic/picsearch/storage"
	"github.com/poiesic/picsearch/storage/badger"
	"github.com/poiesic/picsearch/storage/postgres"
)

var aiFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "completion-host",
		Usage: "Completion service host URL",
		Value: "http://localhost:11434/v1",
	},
	&cli.StringFlag{
		Name:  "completion-model",
		Usage: "Completion model name",
		Value: "gpt-4o-mini",
	},
	&cli.StringFlag{
		Name:  "embedding-host",
		Usage: "Embedding service host URL (defaults to completion-host if not specified)",
	},
	&cli.StringFlag{
		Name:  "embedding-model",
		Usage: "Embedding model name",
		Value: "text-embedding-3-small",
	},
	&cli.IntFlag{
		Name:  "embedding-dimensions",
		Usage: "Dimensionality of the embedding vectors",
		Value: 1536,
	},
	&cli.StringFlag{
		Name:    "token",
		Usage:   "API token for the inference services",
		EnvVars: []string{"OPENAI_API_KEY"},
	},
}

var storageFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "db",
		Aliases: []string{"d"},
		Usage:   "Path to BadgerDB database directory",
		Value:   "./photos_db",
	},
	&cli.StringFlag{
		Name:    "database-url",
		Usage:   "PostgreSQL connection URL (uses pgvector instead of BadgerDB when set)",
		EnvVars: []string{"DATABASE_URL"},
	},
}

func main() {
	app := &cli.App{
		Name:  "picsearch",
		Usage: "Semantic photo search over a personal photo archive",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP search service",
				Action: serveCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Usage:   "HTTP listen port",
						Value:   "8080",
						EnvVars: []string{"PORT"},
					},
					&cli.IntFlag{
						Name:  "reasoning-workers",
						Usage: "Concurrent match reasoning workers (0 runs matches serially)",
					},
				}, append(storageFlags, aiFlags...)...),
			},
			{
				Name:      "search",
				Usage:     "Run one search from the command line",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags:     append(storageFlags, aiFlags...),
			},
			{
				Name:      "ingest",
				Usage:     "Ingest photos by URL and analyze them for search",
				ArgsUsage: "<url> [<url>...]",
				Action:    ingestCommand,
				Flags:     append(storageFlags, aiFlags...),
			},
			{
				Name:   "reembed",
				Usage:  "Reembed all analyzed photos with new embeddings",
				Action: reembedCommand,
				Flags: append(append([]cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of photos to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N photos",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				}, storageFlags...), aiFlags...),
			},
			{
				Name:   "migrate",
				Usage:  "Create or update the PostgreSQL schema",
				Action: migrateCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "database-url",
						Usage:    "PostgreSQL connection URL",
						EnvVars:  []string{"DATABASE_URL"},
						Required: true,
					},
					&cli.IntFlag{
						Name:  "embedding-dimensions",
						Usage: "Dimensionality of the embedding vectors",
						Value: 1536,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// repositories is the storage stack a command runs against, with a single
// close for whichever backend produced it.
type repositories struct {
	photos   storage.PhotoRepository
	searches storage.SearchRepository
	chats    storage.ChatRepository
	close    func()
}

func openRepositories(ctx context.Context, c *cli.Context) (*repositories, error) {
	if dbURL := c.String("database-url"); dbURL != "" {
		return openPostgres(ctx, dbURL, c.Int("embedding-dimensions"))
	}
	return openBadger(c.String("db"))
}

func openBadger(dbPath string) (*repositories, error) {
	backend, err := badger.OpenBackend(dbPath, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	photos, err := badger.NewPhotoRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	searches, err := badger.NewSearchRepository(backend)
	if err != nil {
		photos.Close()
		backend.Close()
		return nil, err
	}
	chats, err := badger.NewChatRepository(backend)
	if err != nil {
		searches.Close()
		photos.Close()
		backend.Close()
		return nil, err
	}

	return &repositories{
		photos:   photos,
		searches: searches,
		chats:    chats,
		close: func() {
			chats.Close()
			searches.Close()
			photos.Close()
			backend.Close()
		},
	}, nil
}

func openPostgres(ctx context.Context, dbURL string, embeddingDims int) (*repositories, error) {
	store, err := postgres.NewStore(ctx, dbURL, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := store.Migrate(ctx, embeddingDims); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	photos, err := postgres.NewPhotoRepository(store)
	if err != nil {
		store.Close()
		return nil, err
	}
	searches, err := postgres.NewSearchRepository(store)
	if err != nil {
		store.Close()
		return nil, err
	}
	chats, err := postgres.NewChatRepository(store)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &repositories{
		photos:   photos,
		searches: searches,
		chats:    chats,
		close: func() {
			store.Close()
		},
	}, nil
}

func buildAIConfig(c *cli.Context) (*ai.Config, error) {
	completionHost := c.String("completion-host")
	embeddingHost := c.String("embedding-host")
	if embeddingHost == "" {
		embeddingHost = completionHost
	}

	config := ai.NewConfig(
		ai.WithCompletionHost(completionHost),
		ai.WithCompletionModel(c.String("completion-model")),
		ai.WithEmbeddingHost(embeddingHost),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)
	if dims := c.Int("embedding-dimensions"); dims > 0 {
		ai.WithEmbeddingDimensions(dims)(config)
	}
	if token := c.String("token"); token != "" {
		ai.WithToken(token)(config)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	return config, nil
}

func serveCommand(c *cli.Context) error {
	ctx := context.Background()

	repos, err := openRepositories(ctx, c)
	if err != nil {
		return err
	}
	defer repos.close()

	aiConfig, err := buildAIConfig(c)
	if err != nil {
		return err
	}
	provider, err := openai.NewProvider(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create AI provider: %w", err)
	}
	defer provider.Close()

	fetcher := blob.NewHTTPFetcher()

	searchOpts := []pipeline.Option{pipeline.WithFetcher(fetcher)}
	if workers := c.Int("reasoning-workers"); workers > 0 {
		searchOpts = append(searchOpts, pipeline.WithReasoningWorkers(workers))
	}
	searcher, err := pipeline.NewPipeline(provider, repos.photos, repos.searches, searchOpts...)
	if err != nil {
		return err
	}

	answerer, err := pipeline.NewAnswerer(provider, repos.photos, repos.searches, repos.chats)
	if err != nil {
		return err
	}

	ingestor, err := ingest.NewPipeline(provider, repos.photos, fetcher)
	if err != nil {
		return err
	}
	defer ingestor.Release()

	srv, err := server.New(searcher, answerer, ingestor, repos.searches, repos.chats)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    ":" + c.String("port"),
		Handler: srv.Handler(),
	}

	errs := make(chan error, 1)
	go func() {
		slog.Info("picsearch listening", "port", c.String("port"))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errs:
		return err
	case <-stop:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "err", err)
	}
	// Let in-flight photo analysis finish before the repositories close.
	ingestor.Wait()
	slog.Info("server stopped")
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query is required")
	}

	ctx := context.Background()

	repos, err := openRepositories(ctx, c)
	if err != nil {
		return err
	}
	defer repos.close()

	aiConfig, err := buildAIConfig(c)
	if err != nil {
		return err
	}
	provider, err := openai.NewProvider(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create AI provider: %w", err)
	}
	defer provider.Close()

	searcher, err := pipeline.NewPipeline(provider, repos.photos, repos.searches,
		pipeline.WithFetcher(blob.NewHTTPFetcher()))
	if err != nil {
		return err
	}

	req := &core.SearchRequest{Id: uuid.NewString(), Query: query}
	if err := repos.searches.CreateSearch(ctx, req); err != nil {
		return err
	}

	outcome, err := searcher.Run(ctx, req, &consoleSink{out: os.Stdout})
	if err != nil {
		return err
	}

	fmt.Printf("\nFound %d matches (search result %s)\n",
		len(outcome.Matches), outcome.SearchResultId)
	return nil
}

func ingestCommand(c *cli.Context) error {
	urls := c.Args().Slice()
	if len(urls) == 0 {
		return fmt.Errorf("at least one photo URL is required")
	}

	ctx := context.Background()

	repos, err := openRepositories(ctx, c)
	if err != nil {
		return err
	}
	defer repos.close()

	aiConfig, err := buildAIConfig(c)
	if err != nil {
		return err
	}
	provider, err := openai.NewProvider(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create AI provider: %w", err)
	}
	defer provider.Close()

	ingestor, err := ingest.NewPipeline(provider, repos.photos, blob.NewHTTPFetcher())
	if err != nil {
		return err
	}
	defer ingestor.Release()

	added, err := ingestor.Ingest(ctx, urls, nil)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Analyzing %d photos...\n", len(added))
	ingestor.Wait()

	for _, photo := range added {
		fmt.Printf("%d: %s\n", photo.Id, photo.URL)
	}
	return nil
}

func reembedCommand(c *cli.Context) error {
	ctx := context.Background()

	repos, err := openRepositories(ctx, c)
	if err != nil {
		return err
	}
	defer repos.close()

	aiConfig, err := buildAIConfig(c)
	if err != nil {
		return err
	}
	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	config := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if config.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if config.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if config.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	reembedder := reembed.NewReembedder(repos.photos, embedder, config, os.Stderr)

	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", aiConfig.EmbeddingHost)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", aiConfig.EmbeddingModel)
	fmt.Fprintln(os.Stderr)

	if err := reembedder.Run(ctx); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

func migrateCommand(c *cli.Context) error {
	ctx := context.Background()

	store, err := postgres.NewStore(ctx, c.String("database-url"), slog.Default())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx, c.Int("embedding-dimensions")); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Fprintln(os.Stderr, "Schema is up to date")
	return nil
}

func setup(c *cli.Context) error {
	// Optional, for local dev.
	_ = godotenv.Load()
	return setupLogger(c)
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
