package orders

import (
	"github.com/odyssey-erp/commerce-console/internal/orders/pricing"
	"github.com/odyssey-erp/commerce-console/internal/orders/status"
	"github.com/odyssey-erp/commerce-console/internal/platform/httpx"
	"github.com/odyssey-erp/commerce-console/internal/shared"
)

// StatusUpdateRequest asks for one or more dimensions to change. Absent
// dimensions are left untouched.
type StatusUpdateRequest struct {
	OrderStatus        *status.OrderStatus       `json:"order_status,omitempty"`
	PaymentStatus      *status.PaymentStatus     `json:"payment_status,omitempty"`
	FulfillmentStatus  *status.FulfillmentStatus `json:"fulfillment_status,omitempty"`
	TrackingNumber     string                    `json:"tracking_number,omitempty" validate:"max=100"`
	CancellationReason string                    `json:"cancellation_reason,omitempty" validate:"max=500"`
	Comment            string                    `json:"comment,omitempty" validate:"max=1000"`
}

// IsEmpty reports whether no dimension was requested.
func (r StatusUpdateRequest) IsEmpty() bool {
	return r.OrderStatus == nil && r.PaymentStatus == nil && r.FulfillmentStatus == nil
}

// ListRequest filters the order listing.
type ListRequest struct {
	OrderStatus       status.OrderStatus
	PaymentStatus     status.PaymentStatus
	FulfillmentStatus status.FulfillmentStatus
	Search            string
	Page              int
	PerPage           int
}

// ListResponse is a page of orders.
type ListResponse struct {
	Orders     []Order           `json:"orders"`
	Pagination shared.Pagination `json:"pagination"`
}

// PricingPreview is the result of pricing a draft input without saving it.
type PricingPreview struct {
	TaxType pricing.TaxType      `json:"tax_type"`
	Items   []pricing.ItemTotal  `json:"items"`
	Pricing pricing.OrderPricing `json:"pricing"`
	Errors  httpx.FieldErrors    `json:"errors,omitempty"`
}

// DraftResponse carries a draft together with its validation state.
type DraftResponse struct {
	Draft  Draft             `json:"draft"`
	Errors httpx.FieldErrors `json:"errors,omitempty"`
}

// StatusUpdateResponse returns the updated order and any advisory warnings.
type StatusUpdateResponse struct {
	Order    Order            `json:"order"`
	Changes  []StatusChange   `json:"changes"`
	Warnings []status.Warning `json:"warnings"`
}
