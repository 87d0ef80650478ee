package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicate is returned when a unique constraint rejects a write.
var ErrDuplicate = errors.New("duplicate value")

const (
	pgUniqueViolation   = "23505"
	pgInvalidTextFormat = "22P02"
)

// DuplicateError names the field whose uniqueness was violated.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return e.Field + " already taken"
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

// translatePgError maps driver errors onto the repository's sentinel errors.
// Malformed ids can never match a row, so they read as pgx.ErrNoRows.
func translatePgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return &DuplicateError{Field: fieldFromConstraint(pgErr.ConstraintName)}
	case pgInvalidTextFormat:
		return pgx.ErrNoRows
	}
	return err
}

func fieldFromConstraint(name string) string {
	// Postgres names inline unique constraints <table>_<column>_key.
	trimmed := strings.TrimSuffix(name, "_key")
	if idx := strings.Index(trimmed, "_"); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}
