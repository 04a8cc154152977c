package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/docket/pkg/pagination"
	"github.com/JaimeStill/docket/pkg/query"
	"github.com/JaimeStill/docket/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// NewRepository creates a Store over the Postgres audit_events table.
func NewRepository(db *sql.DB, logger *slog.Logger, pagination pagination.Config) Store {
	return &repo{
		db:         db,
		logger:     logger.With("system", "audit"),
		pagination: pagination,
	}
}

func (r *repo) Append(ctx context.Context, e Event) (Event, error) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	q := fmt.Sprintf(`
		INSERT INTO audit_events AS a (event_type, request_id, filename, details, ai_result, user_decision, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s`, projection.Columns())

	saved, err := repository.QueryOne(ctx, r.db, q, []any{
		e.Type, e.RequestID, e.Filename, e.Details, e.AIResult, e.UserDecision, e.Timestamp,
	}, scanEvent)
	if err != nil {
		return Event{}, fmt.Errorf("append audit event: %w", err)
	}
	return saved, nil
}

func (r *repo) List(
	ctx context.Context,
	requestID uuid.UUID,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Event], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereEquals("RequestID", requestID).
		WhereSearch(page.Search, "Details", "Filename")

	filters.Apply(qb)

	result, err := repository.QueryPage(ctx, r.db, qb, page, r.pagination, scanEvent)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	return result, nil
}

func (r *repo) All(ctx context.Context, requestID uuid.UUID, filters Filters) ([]Event, error) {
	qb := query.
		NewBuilder(projection, defaultSort).
		WhereEquals("RequestID", requestID)

	filters.Apply(qb)

	q, args := qb.Build()
	events, err := repository.QueryMany(ctx, r.db, q, args, scanEvent)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	return events, nil
}

func (r *repo) Clear(ctx context.Context, requestID uuid.UUID) error {
	n, err := repository.ExecCount(ctx, r.db, "DELETE FROM audit_events WHERE request_id = $1", requestID)
	if err != nil {
		return fmt.Errorf("clear audit events: %w", err)
	}

	r.logger.Info("audit events cleared", "request_id", requestID, "count", n)
	return nil
}
