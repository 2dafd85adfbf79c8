// Package discounts manages discount codes and their redemption.
package discounts

import (
	"strings"
	"time"

	"github.com/odyssey-erp/commerce-console/internal/orders/pricing"
)

// Discount is an order-level discount code.
type Discount struct {
	ID             int64                `json:"id"`
	Code           string               `json:"code"`
	Description    string               `json:"description"`
	Kind           pricing.DiscountKind `json:"discount_type"`
	Value          float64              `json:"value"`
	MinOrderAmount float64              `json:"min_order_amount"`
	UsageLimit     int                  `json:"usage_limit"`
	UsedCount      int                  `json:"used_count"`
	StartsAt       *time.Time           `json:"starts_at,omitempty"`
	EndsAt         *time.Time           `json:"ends_at,omitempty"`
	Active         bool                 `json:"active"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// Unlimited reports whether the code has no usage cap.
func (d Discount) Unlimited() bool {
	return d.UsageLimit == 0
}

// Remaining returns how many redemptions are left, or -1 when unlimited.
func (d Discount) Remaining() int {
	if d.Unlimited() {
		return -1
	}
	if left := d.UsageLimit - d.UsedCount; left > 0 {
		return left
	}
	return 0
}

// Input carries the editable fields of a discount.
type Input struct {
	Code           string               `json:"code" validate:"required,min=3,max=40,alphanum"`
	Description    string               `json:"description" validate:"max=500"`
	Kind           pricing.DiscountKind `json:"discount_type" validate:"required,oneof=percentage fixed"`
	Value          float64              `json:"value" validate:"gt=0"`
	MinOrderAmount float64              `json:"min_order_amount" validate:"gte=0"`
	UsageLimit     int                  `json:"usage_limit" validate:"gte=0"`
	StartsAt       *time.Time           `json:"starts_at"`
	EndsAt         *time.Time           `json:"ends_at"`
}

// NormalizeCode canonicalises a discount code for storage and lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
