package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/poiesic/picsearch/core"
	"github.com/poiesic/picsearch/storage"
)

// PhotoRepository implements storage.PhotoRepository on PostgreSQL with
// pgvector similarity search.
type PhotoRepository struct {
	store *Store
}

var _ storage.PhotoRepository = (*PhotoRepository)(nil)

// NewPhotoRepository creates a new PhotoRepository.
func NewPhotoRepository(store *Store) (*PhotoRepository, error) {
	return &PhotoRepository{store: store}, nil
}

// Close is a no-op; the store owns the connection pool.
func (r *PhotoRepository) Close() error {
	return nil
}

// AddPhotos upserts photo records. IDs are derived from the photo URL, so
// re-adding a photo updates it in place.
func (r *PhotoRepository) AddPhotos(ctx context.Context, photos ...*core.Photo) ([]*core.Photo, error) {
	for _, photo := range photos {
		if err := core.ValidatePhoto(photo); err != nil {
			return nil, err
		}
		if photo.Id == 0 {
			photo.Id = core.IDFromContent(photo.URL)
		}
		if photo.InsertedAt.IsZero() {
			photo.InsertedAt = time.Now().UTC()
		}
		photo.UpdatedAt = time.Now().UTC()

		var embedding any
		if len(photo.Vector) > 0 {
			embedding = vectorLiteral(photo.Vector)
		}

		_, err := r.store.pool.Exec(ctx, `
			INSERT INTO photos (id, url, analysis, embedding, metadata, inserted_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET
				url = EXCLUDED.url,
				analysis = EXCLUDED.analysis,
				embedding = EXCLUDED.embedding,
				metadata = EXCLUDED.metadata,
				updated_at = EXCLUDED.updated_at`,
			int64(photo.Id), photo.URL, photo.Analysis, embedding,
			photo.Metadata, photo.InsertedAt, photo.UpdatedAt)
		if err != nil {
			return nil, err
		}
	}
	return photos, nil
}

// GetPhoto retrieves a single photo record by ID.
func (r *PhotoRepository) GetPhoto(ctx context.Context, id core.ID) (*core.Photo, error) {
	photo := &core.Photo{Id: id}
	err := r.store.pool.QueryRow(ctx, `
		SELECT url, analysis, metadata, inserted_at, updated_at
		FROM photos WHERE id = $1`, int64(id)).
		Scan(&photo.URL, &photo.Analysis, &photo.Metadata, &photo.InsertedAt, &photo.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return photo, nil
}

// UpdatePhotoAnalysis sets a photo's analysis text and embedding.
func (r *PhotoRepository) UpdatePhotoAnalysis(ctx context.Context, id core.ID, analysis string, vector []float32) error {
	var embedding any
	if len(vector) > 0 {
		embedding = vectorLiteral(vector)
	}

	tag, err := r.store.pool.Exec(ctx, `
		UPDATE photos SET analysis = $2, embedding = $3, updated_at = now()
		WHERE id = $1`,
		int64(id), analysis, embedding)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListPhotos retrieves all photo records ordered by id.
func (r *PhotoRepository) ListPhotos(ctx context.Context) ([]*core.Photo, error) {
	rows, err := r.store.pool.Query(ctx, `
		SELECT id, url, analysis, metadata, inserted_at, updated_at
		FROM photos ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var photos []*core.Photo
	for rows.Next() {
		var id int64
		photo := &core.Photo{}
		err := rows.Scan(&id, &photo.URL, &photo.Analysis, &photo.Metadata,
			&photo.InsertedAt, &photo.UpdatedAt)
		if err != nil {
			return nil, err
		}
		photo.Id = core.ID(id)
		photos = append(photos, photo)
	}
	return photos, rows.Err()
}

// FindSimilar returns photos ordered by cosine similarity to the given
// vector. pgvector's <=> operator is cosine distance, so similarity is
// 1 - distance.
func (r *PhotoRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SimilarityMatch, error) {
	rows, err := r.store.pool.Query(ctx, `
		SELECT id, url, analysis, metadata, inserted_at, updated_at,
			(1 - (embedding <=> $1)) AS similarity
		FROM photos
		WHERE embedding IS NOT NULL
			AND (1 - (embedding <=> $1)) >= $2
		ORDER BY embedding <=> $1
		LIMIT $3`,
		vectorLiteral(vector), minSimilarity, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []*core.SimilarityMatch
	for rows.Next() {
		var id int64
		photo := &core.Photo{}
		var score float32
		err := rows.Scan(&id, &photo.URL, &photo.Analysis, &photo.Metadata,
			&photo.InsertedAt, &photo.UpdatedAt, &score)
		if err != nil {
			return nil, err
		}
		photo.Id = core.ID(id)
		matches = append(matches, &core.SimilarityMatch{Photo: photo, Score: score})
	}
	return matches, rows.Err()
}
