package discounts

import (
	"github.com/odyssey-erp/commerce-console/internal/orders/pricing"
	"github.com/odyssey-erp/commerce-console/internal/shared"
)

// ListRequest filters the discount listing.
type ListRequest struct {
	Active  *bool
	Search  string
	Page    int
	PerPage int
}

// ListResponse is a page of discounts.
type ListResponse struct {
	Discounts  []Discount        `json:"discounts"`
	Pagination shared.Pagination `json:"pagination"`
}

// PreviewRequest asks what a code would take off an order amount.
type PreviewRequest struct {
	Code   string  `json:"code" validate:"required"`
	Amount float64 `json:"amount" validate:"gte=0"`
}

// PreviewResult is the discount a code yields for an amount.
type PreviewResult struct {
	Code           string               `json:"code"`
	Kind           pricing.DiscountKind `json:"discount_type"`
	Value          float64              `json:"value"`
	Amount         float64              `json:"amount"`
	DiscountAmount float64              `json:"discount_amount"`
	AmountAfter    float64              `json:"amount_after"`
	Remaining      int                  `json:"remaining"`
}

// RedeemRequest consumes one use of a code.
type RedeemRequest struct {
	Code   string  `json:"code" validate:"required"`
	Amount float64 `json:"amount" validate:"gte=0"`
}
