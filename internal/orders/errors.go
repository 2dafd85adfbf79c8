package orders

import (
	"errors"
	"fmt"

	"github.com/odyssey-erp/commerce-console/internal/platform/httpx"
)

// Domain errors for drafts and orders. Each wraps an httpx sentinel so
// handlers can map them to a response status.
var (
	ErrNotFound      = fmt.Errorf("order: %w", httpx.ErrNotFound)
	ErrDraftNotFound = fmt.Errorf("order draft: %w", httpx.ErrNotFound)

	ErrInvalidTransition = fmt.Errorf("invalid status transition: %w", httpx.ErrUnprocessable)
	ErrConflict          = fmt.Errorf("order status changed by another operator: %w", httpx.ErrConflict)
	ErrDuplicateRequest  = fmt.Errorf("request already processed: %w", httpx.ErrConflict)

	ErrEmptyUpdate               = fmt.Errorf("%w: no status change requested", httpx.ErrValidation)
	ErrMissingTrackingNumber     = fmt.Errorf("%w: tracking number is required to mark an order shipped", httpx.ErrValidation)
	ErrMissingCancellationReason = fmt.Errorf("%w: cancellation reason is required to cancel an order", httpx.ErrValidation)

	errNoDraftStore = errors.New("orders: draft store not configured")
)

// TransitionError reports the rejected move for one dimension.
type TransitionError struct {
	Dimension Dimension
	From      string
	To        string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s status cannot move from %s to %s", e.Dimension, e.From, e.To)
}

// Unwrap lets errors.Is match ErrInvalidTransition.
func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
