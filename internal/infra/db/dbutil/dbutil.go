// Package dbutil holds the pieces every plan store backend shares: operation
// deadlines and the mapping of transport failures onto domain errors.
package dbutil

import (
	"context"
	"errors"
	"time"

	"plan-catalog/internal/domain"
)

// DefaultOpTimeout bounds a single storage call when none is configured.
const DefaultOpTimeout = 5 * time.Second

// WithTimeout bounds ctx by d, or by DefaultOpTimeout when d <= 0.
func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultOpTimeout
	}
	return context.WithTimeout(ctx, d)
}

// Unavailable wraps err as a transient storage failure for op.
func Unavailable(op string, err error) error {
	var ue *domain.UnavailableError
	if errors.As(err, &ue) {
		return err
	}
	return &domain.UnavailableError{Op: op, Err: err}
}
