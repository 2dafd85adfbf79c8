// Package status models the order, payment and fulfillment lifecycles.
package status

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownStatus is returned by the Parse functions for unrecognised values.
var ErrUnknownStatus = errors.New("unknown status")

// OrderStatus is the primary order lifecycle.
type OrderStatus string

const (
	OrderDraft      OrderStatus = "draft"
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
	OrderRefunded   OrderStatus = "refunded"
	OrderReturned   OrderStatus = "returned"
)

// PaymentStatus tracks money collected for an order.
type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "pending"
	PaymentAuthorized        PaymentStatus = "authorized"
	PaymentPartiallyPaid     PaymentStatus = "partially_paid"
	PaymentPaid              PaymentStatus = "paid"
	PaymentRefunded          PaymentStatus = "refunded"
	PaymentFailed            PaymentStatus = "failed"
	PaymentPartiallyRefunded PaymentStatus = "partially_refunded"
)

// FulfillmentStatus tracks shipment of order items.
type FulfillmentStatus string

const (
	FulfillmentUnfulfilled FulfillmentStatus = "unfulfilled"
	FulfillmentPartial     FulfillmentStatus = "partial"
	FulfillmentFulfilled   FulfillmentStatus = "fulfilled"
	FulfillmentReturned    FulfillmentStatus = "returned"
	FulfillmentCancelled   FulfillmentStatus = "cancelled"
)

var (
	orderStatuses = []OrderStatus{
		OrderDraft, OrderPending, OrderConfirmed, OrderProcessing, OrderShipped,
		OrderDelivered, OrderCancelled, OrderRefunded, OrderReturned,
	}
	paymentStatuses = []PaymentStatus{
		PaymentPending, PaymentAuthorized, PaymentPartiallyPaid, PaymentPaid,
		PaymentRefunded, PaymentFailed, PaymentPartiallyRefunded,
	}
	fulfillmentStatuses = []FulfillmentStatus{
		FulfillmentUnfulfilled, FulfillmentPartial, FulfillmentFulfilled,
		FulfillmentReturned, FulfillmentCancelled,
	}
)

// AllOrderStatuses returns every order status in lifecycle order.
func AllOrderStatuses() []OrderStatus {
	return append([]OrderStatus(nil), orderStatuses...)
}

// AllPaymentStatuses returns every payment status.
func AllPaymentStatuses() []PaymentStatus {
	return append([]PaymentStatus(nil), paymentStatuses...)
}

// AllFulfillmentStatuses returns every fulfillment status.
func AllFulfillmentStatuses() []FulfillmentStatus {
	return append([]FulfillmentStatus(nil), fulfillmentStatuses...)
}

// IsValid checks if the status is valid.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderDraft, OrderPending, OrderConfirmed, OrderProcessing, OrderShipped,
		OrderDelivered, OrderCancelled, OrderRefunded, OrderReturned:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further order transition is legal.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderDelivered, OrderCancelled, OrderRefunded, OrderReturned:
		return true
	default:
		return false
	}
}

// IsValid checks if the status is valid.
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentPending, PaymentAuthorized, PaymentPartiallyPaid, PaymentPaid,
		PaymentRefunded, PaymentFailed, PaymentPartiallyRefunded:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the payment can no longer change.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentRefunded
}

// hasCapturedFunds reports whether money has been collected and can be refunded.
func (s PaymentStatus) hasCapturedFunds() bool {
	switch s {
	case PaymentPaid, PaymentPartiallyPaid, PaymentPartiallyRefunded:
		return true
	default:
		return false
	}
}

// IsValid checks if the status is valid.
func (s FulfillmentStatus) IsValid() bool {
	switch s {
	case FulfillmentUnfulfilled, FulfillmentPartial, FulfillmentFulfilled,
		FulfillmentReturned, FulfillmentCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further fulfillment transition is legal.
func (s FulfillmentStatus) IsTerminal() bool {
	return s == FulfillmentReturned || s == FulfillmentCancelled
}

func normalize(raw string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_")
}

// ParseOrderStatus maps a raw value to an OrderStatus.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	s := OrderStatus(normalize(raw))
	if !s.IsValid() {
		return "", fmt.Errorf("%w: order status %q", ErrUnknownStatus, raw)
	}
	return s, nil
}

// ParsePaymentStatus maps a raw value to a PaymentStatus.
func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	s := PaymentStatus(normalize(raw))
	if !s.IsValid() {
		return "", fmt.Errorf("%w: payment status %q", ErrUnknownStatus, raw)
	}
	return s, nil
}

// ParseFulfillmentStatus maps a raw value to a FulfillmentStatus.
func ParseFulfillmentStatus(raw string) (FulfillmentStatus, error) {
	s := FulfillmentStatus(normalize(raw))
	if !s.IsValid() {
		return "", fmt.Errorf("%w: fulfillment status %q", ErrUnknownStatus, raw)
	}
	return s, nil
}

// Triple groups the three status dimensions of an order.
type Triple struct {
	Order       OrderStatus       `json:"order_status"`
	Payment     PaymentStatus     `json:"payment_status"`
	Fulfillment FulfillmentStatus `json:"fulfillment_status"`
}

// Initial is the triple assigned to a freshly submitted order.
func Initial() Triple {
	return Triple{Order: OrderPending, Payment: PaymentPending, Fulfillment: FulfillmentUnfulfilled}
}
