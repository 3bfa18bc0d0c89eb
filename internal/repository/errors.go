package repository

import (
	"errors"
	"strings"

	"solarshare/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// uniqueViolation reports whether err is a unique constraint violation and, when
// the driver exposes it, which constraint (or table.column for SQLite) was hit.
func uniqueViolation(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return "", true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return pgErr.ConstraintName, true
	}
	msg := err.Error()
	if i := strings.Index(msg, "UNIQUE constraint failed: "); i >= 0 {
		return strings.TrimSpace(msg[i+len("UNIQUE constraint failed: "):]), true
	}
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "duplicate key") || strings.Contains(lower, pgUniqueViolation) {
		return "", true
	}
	return "", false
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	_, ok := uniqueViolation(err)
	return ok
}

// violates reports whether err is a unique violation on a constraint whose name
// (or SQLite column list) contains any of hints.
func violates(err error, hints ...string) bool {
	constraint, ok := uniqueViolation(err)
	if !ok {
		return false
	}
	for _, h := range hints {
		if strings.Contains(constraint, h) {
			return true
		}
	}
	return false
}

// notFoundOr maps gorm.ErrRecordNotFound to a not-found AppError and anything else to an internal error.
func notFoundOr(err error, resource string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}
