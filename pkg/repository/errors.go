package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrInvalid reports a write rejected by a CHECK constraint.
var ErrInvalid = errors.New("value violates a table constraint")

// SQLSTATE codes MapError recognizes.
const (
	codeUniqueViolation = "23505"
	codeCheckViolation  = "23514"
)

// MapError converts storage errors into the caller's domain errors: a
// missing row becomes notFound and a unique violation becomes duplicate.
// Check constraint violations are reported as ErrInvalid. Anything else is
// returned as is.
func MapError(err error, notFound, duplicate error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case codeUniqueViolation:
		return duplicate
	case codeCheckViolation:
		return errors.Join(ErrInvalid, err)
	default:
		return err
	}
}
