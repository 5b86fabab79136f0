package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"ordercore/internal/core/apperror"
)

// PostgreSQL error codes the repositories translate.
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// IsUniqueViolation reports whether err is a unique violation on constraint.
// An empty constraint matches any unique index.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != codeUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// IsRetryable reports serialization failures and deadlocks.
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == codeSerializationFailure || pgErr.Code == codeDeadlockDetected
}

// TranslateConflict maps lost write races to CONCURRENT_MODIFICATION.
// Other errors pass through unchanged.
func TranslateConflict(err error, entity string, entityID any) error {
	if IsRetryable(err) {
		return apperror.NewConcurrentModification(entity, entityID).WithCause(err)
	}
	return err
}
