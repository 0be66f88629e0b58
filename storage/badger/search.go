package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/poiesic/picsearch/core"
	"github.com/poiesic/picsearch/storage"
)

// searchResultDocument ties a search result row to its parent search.
type searchResultDocument struct {
	Id        string    `json:"id"`
	SearchId  string    `json:"search_id"`
	CreatedAt time.Time `json:"created_at"`
}

// SearchRepository implements storage.SearchRepository for BadgerDB.
type SearchRepository struct {
	backend *Backend
}

var _ storage.SearchRepository = (*SearchRepository)(nil)

// NewSearchRepository creates a new SearchRepository.
func NewSearchRepository(backend *Backend) (*SearchRepository, error) {
	return &SearchRepository{backend: backend}, nil
}

// Close is a no-op; the backend owns the database handle.
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

	return r.backend.WithTx(func(tx *badger.Txn) error {
		value, err := marshalJSON(req)
		if err != nil {
			return err
		}
		if err := tx.Set(makeSearchKey(req.Id), value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// CreateSearchResult creates the result row for a search and returns its ID.
// One result row per search; a repeat call overwrites the existing row.
func (r *SearchRepository) CreateSearchResult(ctx context.Context, searchId string) (string, error) {
	if searchId == "" {
		return "", core.ErrEmptySearchId
	}

	doc := searchResultDocument{
		Id:        uuid.NewString(),
		SearchId:  searchId,
		CreatedAt: time.Now().UTC(),
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		value, err := marshalJSON(doc)
		if err != nil {
			return err
		}
		if err := tx.Set(makeSearchResultKey(searchId), value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return "", err
	}
	return doc.Id, nil
}

// InsertMatch persists a match record and indexes it by rank under its
// search result. Returns the match ID.
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

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		value, err := marshalJSON(match)
		if err != nil {
			return err
		}
		if err := tx.Set(makeMatchKey(match.Id), value); err != nil {
			return err
		}
		if err := tx.Set(makeMatchRankKey(match.SearchResultId, match.Rank), []byte(match.Id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return "", err
	}
	return match.Id, nil
}

// GetMatch retrieves a single match record by ID.
func (r *SearchRepository) GetMatch(ctx context.Context, matchId string) (*core.MatchRecord, error) {
	var match *core.MatchRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		match, err = r.readMatch(tx, matchId)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, storage.ErrNotFound
	}
	return match, nil
}

// GetSearchResult returns the result ID for a search together with its
// matches in rank order.
func (r *SearchRepository) GetSearchResult(ctx context.Context, searchId string) (string, []*core.MatchRecord, error) {
	var resultId string
	var matches []*core.MatchRecord

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeSearchResultKey(searchId))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}

		var doc searchResultDocument
		err = item.Value(func(val []byte) error {
			return unmarshalJSON(val, &doc)
		})
		if err != nil {
			return err
		}
		resultId = doc.Id

		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeMatchRankScanPrefix(resultId)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var matchId string
			err := iter.Item().Value(func(val []byte) error {
				matchId = string(val)
				return nil
			})
			if err != nil {
				return err
			}

			match, err := r.readMatch(tx, matchId)
			if err != nil {
				return err
			}
			if match == nil {
				// Index entry without a record; skip it.
				continue
			}
			matches = append(matches, match)
		}
		return nil
	}, false)

	if err != nil {
		return "", nil, err
	}
	return resultId, matches, nil
}

// readMatch reads a match record within a transaction.
// Returns nil (no error) when the key is absent.
func (r *SearchRepository) readMatch(tx *badger.Txn, matchId string) (*core.MatchRecord, error) {
	item, err := tx.Get(makeMatchKey(matchId))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var match core.MatchRecord
	err = item.Value(func(val []byte) error {
		return unmarshalJSON(val, &match)
	})
	if err != nil {
		return nil, err
	}
	return &match, nil
}
