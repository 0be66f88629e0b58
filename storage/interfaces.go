package storage

import (
	"context"

	"github.com/poiesic/picsearch/core"
)

// PhotoRepository provides operations for managing photo records and
// vector similarity search over their analysis embeddings.
// Implementations must be thread-safe and support concurrent access.
type PhotoRepository interface {
	// AddPhotos adds one or more photo records to storage.
	// IDs are content-derived from the photo URL; adding an existing photo
	// overwrites its record. Sets InsertedAt if not already set.
	// Returns the photos with IDs and timestamps populated.
	AddPhotos(ctx context.Context, photos ...*core.Photo) ([]*core.Photo, error)

	// GetPhoto retrieves a single photo record by ID.
	// Returns ErrNotFound if the photo doesn't exist.
	GetPhoto(ctx context.Context, id core.ID) (*core.Photo, error)

	// UpdatePhotoAnalysis sets a photo's analysis text and embedding.
	// Returns ErrNotFound if the photo doesn't exist.
	UpdatePhotoAnalysis(ctx context.Context, id core.ID, analysis string, vector []float32) error

	// ListPhotos retrieves all photo records in stable storage order.
	ListPhotos(ctx context.Context) ([]*core.Photo, error)

	// FindSimilar finds photos whose analysis embedding is similar to the
	// given vector. Returns photos with similarity >= minSimilarity, up to
	// limit results, ordered by similarity score (highest first). Photos
	// without an embedding are skipped.
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SimilarityMatch, error)

	// Close closes the repository and releases resources.
	Close() error
}

// SearchRepository provides operations for persisting search runs, their
// result rows, and per-candidate match rows.
type SearchRepository interface {
	// CreateSearch persists the search request itself.
	CreateSearch(ctx context.Context, request *core.SearchRequest) error

	// CreateSearchResult creates the result row for a search and returns its
	// id. Match rows reference this id, so it must exist before any match is
	// inserted.
	CreateSearchResult(ctx context.Context, searchId string) (string, error)

	// InsertMatch persists one match record and returns its id.
	// The record must validate (core.ValidateMatchRecord).
	InsertMatch(ctx context.Context, record *core.MatchRecord) (string, error)

	// GetMatch retrieves a single match record by ID.
	// Returns ErrNotFound if the match doesn't exist.
	GetMatch(ctx context.Context, matchId string) (*core.MatchRecord, error)

	// GetSearchResult retrieves the result row id and the match records for
	// a search, ordered by rank ascending.
	// Returns ErrNotFound if no result row exists for the search.
	GetSearchResult(ctx context.Context, searchId string) (string, []*core.MatchRecord, error)

	// Close closes the repository and releases resources.
	Close() error
}

// ChatRepository provides operations for per-match conversations.
type ChatRepository interface {
	// AppendMessage appends a message to the match's conversation.
	// Generates the message id and CreatedAt if unset.
	AppendMessage(ctx context.Context, message *core.ChatMessage) (*core.ChatMessage, error)

	// GetMessages retrieves a match's messages ordered by creation time
	// ascending, up to limit (0 means no limit).
	GetMessages(ctx context.Context, matchId string, limit int) ([]*core.ChatMessage, error)

	// Close closes the repository and releases resources.
	Close() error
}
