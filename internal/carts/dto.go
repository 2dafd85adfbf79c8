package carts

import (
	"time"

	"github.com/odyssey-erp/commerce-console/internal/orders/pricing"
	"github.com/odyssey-erp/commerce-console/internal/shared"
)

// SaveInput records storefront cart activity.
type SaveInput struct {
	CustomerEmail string              `json:"customer_email" validate:"required,email"`
	CustomerName  string              `json:"customer_name" validate:"max=200"`
	Items         []pricing.OrderItem `json:"items" validate:"required,min=1,dive"`
}

// ListRequest filters the abandoned cart listing. IdleFor overrides the
// configured abandonment threshold when positive.
type ListRequest struct {
	IdleFor time.Duration
	Page    int
	PerPage int
}

// ListResponse is a page of abandoned carts.
type ListResponse struct {
	Carts      []AbandonedCart   `json:"carts"`
	Threshold  string            `json:"threshold"`
	Pagination shared.Pagination `json:"pagination"`
}

// ScanResult summarises one abandoned cart sweep.
type ScanResult struct {
	Candidates int `json:"candidates"`
	Queued     int `json:"queued"`
	Skipped    int `json:"skipped"`
}
