package feedback

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/JaimeStill/docket/pkg/repository"
)

const entryColumns = `filename, request_id, original_classification, human_decision,
	original_confidence, snippet, created_at`

type repo struct {
	db *sql.DB
}

// NewRepository creates a Repository over the Postgres feedback_entries table.
func NewRepository(db *sql.DB) Repository {
	return &repo{db: db}
}

func (r *repo) Append(ctx context.Context, e Entry) error {
	q := `INSERT INTO feedback_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := repository.ExecCount(ctx, r.db, q,
		e.Filename, e.RequestID, e.OriginalClassification, e.HumanDecision,
		e.OriginalConfidence, e.Snippet, e.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert feedback entry: %w", err)
	}
	return nil
}

func (r *repo) Entries(ctx context.Context, requestID uuid.UUID) ([]Entry, error) {
	q := `SELECT ` + entryColumns + `
		FROM feedback_entries
		WHERE request_id = $1
		ORDER BY seq`

	entries, err := repository.QueryMany(ctx, r.db, q, []any{requestID}, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("query feedback entries: %w", err)
	}
	return entries, nil
}

func (r *repo) Clear(ctx context.Context, requestID uuid.UUID) (int, error) {
	n, err := repository.ExecCount(ctx, r.db, "DELETE FROM feedback_entries WHERE request_id = $1", requestID)
	if err != nil {
		return 0, fmt.Errorf("delete feedback entries: %w", err)
	}
	return int(n), nil
}

func scanEntry(s repository.Scanner) (Entry, error) {
	var e Entry
	err := s.Scan(
		&e.Filename,
		&e.RequestID,
		&e.OriginalClassification,
		&e.HumanDecision,
		&e.OriginalConfidence,
		&e.Snippet,
		&e.Timestamp,
	)
	return e, err
}
