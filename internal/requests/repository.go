package requests

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

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

// New creates a Postgres-backed request repository implementing the System interface.
func New(
	db *sql.DB,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "requests"),
		pagination: pagination,
	}
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Request], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Name", "Text")

	filters.Apply(qb)

	result, err := repository.QueryPage(ctx, r.db, qb, page, r.pagination, scanRequest)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Request, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	req, err := repository.QueryOne(ctx, r.db, q, args, scanRequest)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &req, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Request, error) {
	if err := validate(cmd.Name, cmd.Text); err != nil {
		return nil, err
	}

	q := fmt.Sprintf(`
		INSERT INTO requests AS r (name, description, text, status, deadline)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING %s`, projection.Columns())

	args := []any{cmd.Name, cmd.Description, cmd.Text, StatusDraft, cmd.Deadline}

	req, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Request, error) {
		return repository.QueryOne(ctx, tx, q, args, scanRequest)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("request created", "id", req.ID, "name", req.Name)
	return &req, nil
}

func (r *repo) Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Request, error) {
	if err := validate(cmd.Name, cmd.Text); err != nil {
		return nil, err
	}

	q := fmt.Sprintf(`
		UPDATE requests r
		SET name = $1, description = $2, text = $3, deadline = $4, updated_at = NOW()
		WHERE r.id = $5
		RETURNING %s`, projection.Columns())

	args := []any{cmd.Name, cmd.Description, cmd.Text, cmd.Deadline, id}

	req, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Request, error) {
		return repository.QueryOne(ctx, tx, q, args, scanRequest)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("request updated", "id", req.ID, "name", req.Name)
	return &req, nil
}

func (r *repo) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Request, error) {
	if _, err := ParseStatus(string(status)); err != nil {
		return nil, err
	}

	q := fmt.Sprintf(`
		UPDATE requests r
		SET status = $1, updated_at = NOW()
		WHERE r.id = $2
		RETURNING %s`, projection.Columns())

	req, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Request, error) {
		return repository.QueryOne(ctx, tx, q, []any{status, id}, scanRequest)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("request status updated", "id", req.ID, "status", req.Status)
	return &req, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM requests WHERE id = $1",
			id,
		); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("request deleted", "id", id)
	return nil
}
