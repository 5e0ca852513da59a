package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// uniqueViolation is the postgres SQLSTATE for unique_violation
const uniqueViolation = "23505"

// translateError maps driver errors onto domain errors: missing rows become
// NotFound, unique violations become Conflict and anything else is an
// upstream failure. Context cancellation passes through untouched.
func translateError(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.NewNotFoundError(entity)
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return shared.NewConflictError(entity + " already exists")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return shared.NewUpstreamError("Database operation failed", err)
	}
}

// isUniqueViolation catches unique violations that reach us untranslated
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}
	// sqlite reports constraint failures only in the message
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
