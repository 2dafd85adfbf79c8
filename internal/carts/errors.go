package carts

import (
	"fmt"

	"github.com/odyssey-erp/commerce-console/internal/platform/httpx"
)

// Domain errors for carts and reminders.
var (
	ErrNotFound = fmt.Errorf("cart: %w", httpx.ErrNotFound)

	ErrRecovered       = fmt.Errorf("cart already recovered: %w", httpx.ErrUnprocessable)
	ErrNotAbandoned    = fmt.Errorf("cart is still active: %w", httpx.ErrUnprocessable)
	ErrReminderLimit   = fmt.Errorf("reminder limit reached: %w", httpx.ErrConflict)
	ErrReminderTooSoon = fmt.Errorf("previous reminder was sent too recently: %w", httpx.ErrConflict)
)
