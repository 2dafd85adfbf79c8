package discounts

import (
	"fmt"

	"github.com/odyssey-erp/commerce-console/internal/platform/httpx"
)

// Domain errors for discount codes.
var (
	ErrNotFound      = fmt.Errorf("discount: %w", httpx.ErrNotFound)
	ErrDuplicateCode = fmt.Errorf("discount code already exists: %w", httpx.ErrDuplicate)

	ErrInactive          = fmt.Errorf("discount is not active: %w", httpx.ErrUnprocessable)
	ErrNotStarted        = fmt.Errorf("discount has not started: %w", httpx.ErrUnprocessable)
	ErrDiscountExpired   = fmt.Errorf("discount has expired: %w", httpx.ErrUnprocessable)
	ErrBelowMinimum      = fmt.Errorf("order amount is below the discount minimum: %w", httpx.ErrUnprocessable)
	ErrUsageLimitReached = fmt.Errorf("discount usage limit reached: %w", httpx.ErrConflict)
)
