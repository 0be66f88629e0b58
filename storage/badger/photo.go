package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/picsearch/core"
	"github.com/poiesic/picsearch/storage"
)

// PhotoRepository implements storage.PhotoRepository for BadgerDB.
type PhotoRepository struct {
	backend *Backend
}

var _ storage.PhotoRepository = (*PhotoRepository)(nil)

// NewPhotoRepository creates a new PhotoRepository.
func NewPhotoRepository(backend *Backend) (*PhotoRepository, error) {
	return &PhotoRepository{backend: backend}, nil
}

// Close is a no-op; the backend owns the database handle.
func (r *PhotoRepository) Close() error {
	return nil
}

// AddPhotos adds one or more photo records to storage.
// IDs are derived from the photo URL, so re-adding a photo overwrites it.
func (r *PhotoRepository) AddPhotos(ctx context.Context, photos ...*core.Photo) ([]*core.Photo, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, photo := range photos {
			if err := core.ValidatePhoto(photo); err != nil {
				return err
			}
			if photo.Id == 0 {
				photo.Id = core.IDFromContent(photo.URL)
			}
			if photo.InsertedAt.IsZero() {
				photo.InsertedAt = time.Now().UTC()
			}
			photo.UpdatedAt = time.Now().UTC()

			value, err := marshalPhoto(photo)
			if err != nil {
				return err
			}
			if err := tx.Set(makePhotoKey(uint64(photo.Id)), value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return photos, nil
}

// GetPhoto retrieves a single photo record by ID.
func (r *PhotoRepository) GetPhoto(ctx context.Context, id core.ID) (*core.Photo, error) {
	var photo *core.Photo
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		photo, err = r.readPhoto(tx, id)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if photo == nil {
		return nil, storage.ErrNotFound
	}
	return photo, nil
}

// UpdatePhotoAnalysis sets a photo's analysis text and embedding.
func (r *PhotoRepository) UpdatePhotoAnalysis(ctx context.Context, id core.ID, analysis string, vector []float32) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		photo, err := r.readPhoto(tx, id)
		if err != nil {
			return err
		}
		if photo == nil {
			return storage.ErrNotFound
		}

		photo.Analysis = analysis
		photo.Vector = vector
		photo.UpdatedAt = time.Now().UTC()

		value, err := marshalPhoto(photo)
		if err != nil {
			return err
		}
		if err := tx.Set(makePhotoKey(uint64(id)), value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// ListPhotos retrieves all photo records by scanning the photo prefix.
func (r *PhotoRepository) ListPhotos(ctx context.Context) ([]*core.Photo, error) {
	var photos []*core.Photo
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(photoRecordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var photo *core.Photo
			err := iter.Item().Value(func(val []byte) error {
				var err error
				photo, err = unmarshalPhoto(val)
				return err
			})
			if err != nil {
				return err
			}
			if photo != nil {
				photos = append(photos, photo)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return photos, nil
}

// FindSimilar delegates to the backend's brute-force cosine scan.
func (r *PhotoRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SimilarityMatch, error) {
	return r.backend.FindSimilar(ctx, vector, minSimilarity, limit)
}

// readPhoto reads a photo within a transaction.
// Returns nil (no error) when the key is absent.
func (r *PhotoRepository) readPhoto(tx *badger.Txn, id core.ID) (*core.Photo, error) {
	item, err := tx.Get(makePhotoKey(uint64(id)))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var photo *core.Photo
	err = item.Value(func(val []byte) error {
		var err error
		photo, err = unmarshalPhoto(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return photo, nil
}
