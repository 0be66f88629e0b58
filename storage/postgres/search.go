package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/poiesic/picsearch/core"
	"github.com/poiesic/picsearch/storage"
)

// SearchRepository implements storage.SearchRepository on PostgreSQL.
type SearchRepository struct {
	store *Store
}

var _ storage.SearchRepository = (*SearchRepository)(nil)

// NewSearchRepository creates a new SearchRepository.
func NewSearchRepository(store *Store) (*SearchRepository, error) {
	return &SearchRepository{store: store}, nil
}

// Close is a no-op; the store owns the connection pool.
func (r *SearchRepository) Close() error {
	return nil
}

// CreateSearch persists a search request. If the request has no ID, one is
// assigned.
func (r *SearchRepository) CreateSearch(ctx context.Context, req *core.SearchRequest) error {
	if req == nil {
		return core.ErrInvalidSearchRequest
	}
	if req.Id == "" {
		req.Id = uuid.NewString()
	}
	if err := core.ValidateSearchRequest(req); err != nil {
		return err
	}

	_, err := r.store.pool.Exec(ctx, `
		INSERT INTO searches (id, query, image_url) VALUES ($1, $2, $3)`,
		req.Id, req.Query, req.ImageURL)
	return err
}

// CreateSearchResult creates the result row for a search and returns its ID.
// One result row per search; a repeat call replaces the existing row.
func (r *SearchRepository) CreateSearchResult(ctx context.Context, searchId string) (string, error) {
	if searchId == "" {
		return "", core.ErrEmptySearchId
	}

	resultId := uuid.NewString()
	_, err := r.store.pool.Exec(ctx, `
		INSERT INTO search_results (id, search_id) VALUES ($1, $2)
		ON CONFLICT (search_id) DO UPDATE SET id = EXCLUDED.id, created_at = now()`,
		resultId, searchId)
	if err != nil {
		return "", err
	}
	return resultId, nil
}

// InsertMatch persists a match record and returns its ID.
func (r *SearchRepository) InsertMatch(ctx context.Context, match *core.MatchRecord) (string, error) {
	if match.Id == "" {
		match.Id = uuid.NewString()
	}
	if match.InsertedAt.IsZero() {
		match.InsertedAt = time.Now().UTC()
	}
	if err := core.ValidateMatchRecord(match); err != nil {
		return "", err
	}

	_, err := r.store.pool.Exec(ctx, `
		INSERT INTO matches (id, search_result_id, photo_id, photo_url, similarity,
			rank, is_best_match, reasons, interesting_details, heading, inserted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		match.Id, match.SearchResultId, int64(match.PhotoId), match.PhotoURL,
		match.Similarity, match.Rank, match.IsBestMatch, match.Reasons,
		match.InterestingDetails, match.Heading, match.InsertedAt)
	if err != nil {
		return "", err
	}
	return match.Id, nil
}

// GetMatch retrieves a single match record by ID.
func (r *SearchRepository) GetMatch(ctx context.Context, matchId string) (*core.MatchRecord, error) {
	match := &core.MatchRecord{Id: matchId}
	var photoId int64
	err := r.store.pool.QueryRow(ctx, `
		SELECT search_result_id, photo_id, photo_url, similarity, rank,
			is_best_match, reasons, interesting_details, heading, inserted_at
		FROM matches WHERE id = $1`, matchId).
		Scan(&match.SearchResultId, &photoId, &match.PhotoURL, &match.Similarity,
			&match.Rank, &match.IsBestMatch, &match.Reasons,
			&match.InterestingDetails, &match.Heading, &match.InsertedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	match.PhotoId = core.ID(photoId)
	return match, nil
}

// GetSearchResult returns the result ID for a search together with its
// matches in rank order.
func (r *SearchRepository) GetSearchResult(ctx context.Context, searchId string) (string, []*core.MatchRecord, error) {
	var resultId string
	err := r.store.pool.QueryRow(ctx, `
		SELECT id FROM search_results WHERE search_id = $1`, searchId).
		Scan(&resultId)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil, storage.ErrNotFound
		}
		return "", nil, err
	}

	rows, err := r.store.pool.Query(ctx, `
		SELECT id, search_result_id, photo_id, photo_url, similarity, rank,
			is_best_match, reasons, interesting_details, heading, inserted_at
		FROM matches WHERE search_result_id = $1 ORDER BY rank`, resultId)
	if err != nil {
		return "", nil, err
	}
	defer rows.Close()

	var matches []*core.MatchRecord
	for rows.Next() {
		match := &core.MatchRecord{}
		var photoId int64
		err := rows.Scan(&match.Id, &match.SearchResultId, &photoId, &match.PhotoURL,
			&match.Similarity, &match.Rank, &match.IsBestMatch, &match.Reasons,
			&match.InterestingDetails, &match.Heading, &match.InsertedAt)
		if err != nil {
			return "", nil, err
		}
		match.PhotoId = core.ID(photoId)
		matches = append(matches, match)
	}
	return resultId, matches, rows.Err()
}
