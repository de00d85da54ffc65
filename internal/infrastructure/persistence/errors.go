package persistence

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	"github.com/minegocio/backend/internal/domain/shared"
)

// Postgres SQLSTATE codes that signal a retryable conflict
const (
	pgLockNotAvailable     = "55P03"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
)

// translateError maps driver errors onto domain errors. Lock timeouts,
// serialization failures and deadlocks become a ConcurrencyError; unique
// violations become ErrAlreadyExists. Anything else is wrapped with op.
func translateError(op string, err error) error {
	if err == nil {
		return nil
	}
	if isDomainError(err) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s: %w", op, shared.ErrAlreadyExists)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgLockNotAvailable, pgSerializationFailure, pgDeadlockDetected:
			return shared.NewConcurrencyError(op, err)
		case pgUniqueViolation:
			return fmt.Errorf("%s: %w", op, shared.ErrAlreadyExists)
		}
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return shared.NewConcurrencyError(op, err)
		case sqlite3.ErrConstraint:
			if liteErr.ExtendedCode == sqlite3.ErrConstraintUnique || liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
				return fmt.Errorf("%s: %w", op, shared.ErrAlreadyExists)
			}
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}

// isDomainError reports whether err already carries a domain code. Every
// typed domain error unwraps to a *shared.DomainError sentinel.
func isDomainError(err error) bool {
	var de *shared.DomainError
	return errors.As(err, &de)
}

// staleVersion is returned when an optimistic version check updates no row
func staleVersion(entity string, id int64) error {
	return shared.NewConcurrencyError("save "+entity,
		fmt.Errorf("%s %d was modified by another transaction", entity, id))
}
