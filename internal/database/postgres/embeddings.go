package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/kozaktomas/facetrace/internal/database"
)

// EmbeddingRepository provides PostgreSQL-backed embedding storage using a
// pgvector column.
type EmbeddingRepository struct {
	pool *Pool
}

// NewEmbeddingRepository creates a new embedding repository.
func NewEmbeddingRepository(pool *Pool) *EmbeddingRepository {
	return &EmbeddingRepository{pool: pool}
}

// Get retrieves a cached embedding, or nil when not cached.
func (r *EmbeddingRepository) Get(ctx context.Context, imageURL, model string) (*database.StoredEmbedding, error) {
	query := `
		SELECT image_url, model, embedding, dim, created_at
		FROM embeddings
		WHERE image_url = $1 AND model = $2
	`

	var emb database.StoredEmbedding
	var vec pgvector.Vector

	err := r.pool.QueryRow(ctx, query, imageURL, model).Scan(
		&emb.ImageURL, &emb.Model, &vec, &emb.Dim, &emb.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query embedding: %w", err)
	}

	emb.Embedding = vec.Slice()
	return &emb, nil
}

// Save stores an embedding, replacing any previous vector for the same
// image URL and model.
func (r *EmbeddingRepository) Save(ctx context.Context, emb database.StoredEmbedding) error {
	query := `
		INSERT INTO embeddings (image_url, model, embedding, dim)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (image_url, model)
		DO UPDATE SET embedding = EXCLUDED.embedding, dim = EXCLUDED.dim, created_at = NOW()
	`

	_, err := r.pool.Exec(ctx, query,
		emb.ImageURL, emb.Model, pgvector.NewVector(emb.Embedding), len(emb.Embedding),
	)
	if err != nil {
		return fmt.Errorf("save embedding: %w", err)
	}
	return nil
}

// List returns all cached embeddings, optionally filtered by model.
func (r *EmbeddingRepository) List(ctx context.Context, model string) ([]database.StoredEmbedding, error) {
	query := `
		SELECT image_url, model, embedding, dim, created_at
		FROM embeddings
		WHERE $1 = '' OR model = $1
		ORDER BY image_url
	`

	rows, err := r.pool.Query(ctx, query, model)
	if err != nil {
		return nil, fmt.Errorf("list embeddings: %w", err)
	}
	defer rows.Close()

	var embeddings []database.StoredEmbedding
	for rows.Next() {
		var emb database.StoredEmbedding
		var vec pgvector.Vector
		if err := rows.Scan(&emb.ImageURL, &emb.Model, &vec, &emb.Dim, &emb.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan embedding: %w", err)
		}
		emb.Embedding = vec.Slice()
		embeddings = append(embeddings, emb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate embeddings: %w", err)
	}
	return embeddings, nil
}

// Count returns the total number of cached embeddings.
func (r *EmbeddingRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM embeddings").Scan(&count); err != nil {
		return 0, fmt.Errorf("count embeddings: %w", err)
	}
	return count, nil
}
