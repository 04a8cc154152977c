package embeddings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/JaimeStill/docket/pkg/repository"
)

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a Store backed by the Postgres embeddings table. Similarity
// is computed in the database with the pgvector cosine distance operator.
func New(db *sql.DB, logger *slog.Logger) Store {
	return &repo{
		db:     db,
		logger: logger.With("system", "embeddings"),
	}
}

const findExactSQL = `
	SELECT filename
	FROM embeddings
	WHERE request_id = $1 AND content_hash = $2
	ORDER BY seq ASC
	LIMIT 1`

func (r *repo) FindExact(ctx context.Context, requestID uuid.UUID, hash string) (string, bool, error) {
	name, err := repository.QueryOne(ctx, r.db, findExactSQL, []any{requestID, hash}, scanFilename)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("find exact embedding: %w", err)
	}
	return name, true, nil
}

// Zero-norm vectors produce a NaN distance, which Postgres sorts above
// every number, so they are excluded explicitly.
const findSimilarSQL = `
	SELECT filename, (1 - (embedding <=> $2::vector))::DOUBLE PRECISION AS score
	FROM embeddings
	WHERE request_id = $1
		AND embedding IS NOT NULL
		AND vector_dims(embedding) = $3
		AND (embedding <=> $2::vector) <> 'NaN'::DOUBLE PRECISION
		AND (1 - (embedding <=> $2::vector)) >= $4
	ORDER BY embedding <=> $2::vector ASC, seq ASC`

func (r *repo) FindSimilar(ctx context.Context, requestID uuid.UUID, vec []float32, threshold float64) ([]Match, error) {
	if len(vec) == 0 {
		return []Match{}, nil
	}

	args := []any{requestID, pgvector.NewVector(vec), len(vec), threshold}
	matches, err := repository.QueryMany(ctx, r.db, findSimilarSQL, args, scanMatch)
	if err != nil {
		return nil, fmt.Errorf("find similar embeddings: %w", err)
	}
	return matches, nil
}

const addSQL = `
	INSERT INTO embeddings(request_id, filename, content_hash, embedding)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (request_id, filename) DO UPDATE SET
		content_hash = EXCLUDED.content_hash,
		embedding = EXCLUDED.embedding`

func (r *repo) Add(ctx context.Context, requestID uuid.UUID, filename, hash string, vec []float32) error {
	var embedding any
	if len(vec) > 0 {
		embedding = pgvector.NewVector(vec)
	}

	if _, err := r.db.ExecContext(ctx, addSQL, requestID, filename, hash, embedding); err != nil {
		return fmt.Errorf("add embedding %s: %w", filename, err)
	}
	return nil
}

func (r *repo) Count(ctx context.Context, requestID uuid.UUID) (int, error) {
	n, err := repository.QueryScalar[int](ctx, r.db, "SELECT COUNT(*) FROM embeddings WHERE request_id = $1", requestID)
	if err != nil {
		return 0, fmt.Errorf("count embeddings: %w", err)
	}
	return n, nil
}

func (r *repo) Clear(ctx context.Context, requestID uuid.UUID) error {
	n, err := repository.ExecCount(ctx, r.db, "DELETE FROM embeddings WHERE request_id = $1", requestID)
	if err != nil {
		return fmt.Errorf("clear embeddings: %w", err)
	}

	r.logger.Info("embeddings cleared", "request_id", requestID, "count", n)
	return nil
}

func scanFilename(s repository.Scanner) (string, error) {
	var name string
	err := s.Scan(&name)
	return name, err
}

func scanMatch(s repository.Scanner) (Match, error) {
	var m Match
	err := s.Scan(&m.Filename, &m.Score)
	return m, err
}
