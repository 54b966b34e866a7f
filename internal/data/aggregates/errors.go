package aggregates

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/yungbote/insightpath-backend/internal/platform/apierr"
)

// ErrRetryable marks transient storage failures (serialization, deadlock, lock timeout).
var ErrRetryable = errors.New("storage retryable")

// IsRetryable reports whether err is a transient storage failure worth re-running the
// transaction for. Context cancellation is never retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrRetryable) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "40001", "40P01", "55P03":
			return true // serialization/deadlock/lock_not_available
		}
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "could not serialize") ||
		strings.Contains(msg, "database is locked")
}

// MapError maps infrastructure failures into the apierr taxonomy. Errors that already carry an
// apierr classification pass through unchanged.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return err
	}
	if apierr.KindOf(err) != apierr.KindInternal {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apierr.NotFound("not_found", "%s: %v", op, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	case IsRetryable(err):
		return apierr.Internal("storage_retryable", fmt.Errorf("%s: %w", op, errors.Join(ErrRetryable, err)))
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return apierr.Conflict("conflict", "%s: %v", op, err) // unique_violation
		case "23503":
			return apierr.PreconditionFailed("reference_missing", "%s: %v", op, err) // foreign_key_violation
		}
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "duplicate key"), strings.Contains(msg, "unique constraint failed"):
		return apierr.Conflict("conflict", "%s: %v", op, err)
	default:
		return apierr.Internal("internal", fmt.Errorf("%s: %w", op, err))
	}
}
