package regsync

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrAuthorization means the caller is not authenticated or not an organizer of the department.
	ErrAuthorization = errors.New("not authorized")
	// ErrValidation means the input was rejected before any write was attempted.
	ErrValidation = errors.New("validation error")
	// ErrBackend wraps transport, query and timeout failures. Safe to retry.
	ErrBackend = errors.New("backend error")
	// ErrNotFound means the mutation target does not exist in the department.
	ErrNotFound = errors.New("registration not found")
	// ErrBusy means another mutation of this engine is still in flight.
	ErrBusy = errors.New("another change is in progress")
)

// classify keeps the taxonomy errors a backend may already return and folds
// everything else into ErrBackend.
func classify(op string, err error) error {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrAuthorization),
		errors.Is(err, ErrValidation):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %s: timed out: %w", ErrBackend, op, err)
	default:
		return fmt.Errorf("%w: %s: %w", ErrBackend, op, err)
	}
}
