// Package pgerr maps PostgreSQL error codes reported by pgx onto the
// store-agnostic errors declared in ports.
package pgerr

import (
	"errors"
	"fmt"

	"backoffice/internal/core/ports"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// Translate wraps err with ports.ErrDuplicate or ports.ErrConcurrentUpdate
// when it carries a matching SQLSTATE. Other errors are returned unchanged.
func Translate(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case codeUniqueViolation:
		return fmt.Errorf("%w: %s: %w", ports.ErrDuplicate, pgErr.ConstraintName, err)
	case codeSerializationFailure, codeDeadlockDetected:
		return fmt.Errorf("%w: %w", ports.ErrConcurrentUpdate, err)
	default:
		return err
	}
}
