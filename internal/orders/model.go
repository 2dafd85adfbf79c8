// Package orders holds order drafts, submitted orders and their status
// management.
package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/commerce-console/internal/orders/pricing"
	"github.com/odyssey-erp/commerce-console/internal/orders/status"
)

// Dimension names one of the three status tracks of an order.
type Dimension string

const (
	DimensionOrder       Dimension = "order"
	DimensionPayment     Dimension = "payment"
	DimensionFulfillment Dimension = "fulfillment"
)

// Address is a postal address. StateCode drives GST classification.
type Address struct {
	Name       string `json:"name,omitempty" validate:"max=120"`
	Line1      string `json:"line1,omitempty" validate:"max=200"`
	Line2      string `json:"line2,omitempty" validate:"max=200"`
	City       string `json:"city,omitempty" validate:"max=80"`
	StateCode  string `json:"state_code,omitempty" validate:"max=10"`
	PostalCode string `json:"postal_code,omitempty" validate:"max=20"`
	Country    string `json:"country,omitempty" validate:"omitempty,len=2"`
}

// DraftInput is the operator-editable part of a draft.
type DraftInput struct {
	CustomerID         int64                `json:"customer_id,omitempty" validate:"gte=0"`
	CustomerEmail      string               `json:"customer_email" validate:"required,email"`
	ShippingAddress    Address              `json:"shipping_address"`
	BillingAddress     Address              `json:"billing_address"`
	International      bool                 `json:"international"`
	Items              []pricing.OrderItem  `json:"items" validate:"required,min=1,dive"`
	OrderDiscountKind  pricing.DiscountKind `json:"order_discount_type"`
	OrderDiscountValue float64              `json:"order_discount_value" validate:"gte=0"`
	GSTRate            float64              `json:"gst_rate" validate:"gte=0,lte=100"`
	ShippingCharge     float64              `json:"shipping_charge" validate:"gte=0"`
	CODCharge          float64              `json:"cod_charge" validate:"gte=0"`
	GiftCardCode       string               `json:"gift_card_code,omitempty" validate:"max=64"`
	GiftCardAmount     float64              `json:"gift_card_amount" validate:"gte=0"`
	AdvancePaid        float64              `json:"advance_paid" validate:"gte=0"`
	Notes              string               `json:"notes,omitempty" validate:"max=1000"`
}

// TaxType classifies the shipment from its addresses.
func (in DraftInput) TaxType() pricing.TaxType {
	return pricing.DetectTaxType(in.ShippingAddress.StateCode, in.BillingAddress.StateCode, in.International)
}

// PricingInputs maps the draft onto the pricing engine inputs.
func (in DraftInput) PricingInputs() pricing.Inputs {
	return pricing.Inputs{
		OrderDiscountKind:  in.OrderDiscountKind,
		OrderDiscountValue: in.OrderDiscountValue,
		TaxType:            in.TaxType(),
		Rates:              pricing.SplitGSTRate(in.GSTRate),
		ShippingCharge:     in.ShippingCharge,
		CODCharge:          in.CODCharge,
		GiftCardCode:       in.GiftCardCode,
		GiftCardAmount:     in.GiftCardAmount,
		AdvancePaid:        in.AdvancePaid,
	}
}

// Price runs the pricing engine over the input.
func (in DraftInput) Price() pricing.OrderPricing {
	return pricing.ComputeOrderPricing(in.Items, in.PricingInputs())
}

// Draft is an order being composed by an operator. Pricing is recomputed in
// full on every change.
type Draft struct {
	ID uuid.UUID `json:"id"`
	DraftInput
	Pricing   pricing.OrderPricing `json:"pricing"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// Order is a submitted draft.
type Order struct {
	ID                 int64                `json:"id"`
	Number             string               `json:"number"`
	CustomerID         int64                `json:"customer_id,omitempty"`
	CustomerEmail      string               `json:"customer_email"`
	ShippingAddress    Address              `json:"shipping_address"`
	BillingAddress     Address              `json:"billing_address"`
	International      bool                 `json:"international"`
	Items              []pricing.OrderItem  `json:"items"`
	Pricing            pricing.OrderPricing `json:"pricing"`
	Status             status.Triple        `json:"status"`
	TrackingNumber     string               `json:"tracking_number,omitempty"`
	CancellationReason string               `json:"cancellation_reason,omitempty"`
	Notes              string               `json:"notes,omitempty"`
	CreatedBy          string               `json:"created_by,omitempty"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

// StatusChange is one row of an order's status history.
type StatusChange struct {
	ID        int64     `json:"id"`
	OrderID   int64     `json:"order_id"`
	Dimension Dimension `json:"dimension"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Comment   string    `json:"comment,omitempty"`
	Actor     string    `json:"actor,omitempty"`
	At        time.Time `json:"at"`
}

// NextStatuses lists the legal targets for each dimension.
type NextStatuses struct {
	Order       []status.OrderStatus       `json:"order"`
	Payment     []status.PaymentStatus     `json:"payment"`
	Fulfillment []status.FulfillmentStatus `json:"fulfillment"`
}

// Badges holds display badges for each dimension.
type Badges struct {
	Order       status.Badge `json:"order"`
	Payment     status.Badge `json:"payment"`
	Fulfillment status.Badge `json:"fulfillment"`
}

// Summary is the order detail view.
type Summary struct {
	Order    Order                `json:"order"`
	Badges   Badges               `json:"badges"`
	Step     int                  `json:"step"`
	Steps    []status.OrderStatus `json:"steps"`
	Next     NextStatuses         `json:"next"`
	Warnings []status.Warning     `json:"warnings"`
	History  []StatusChange       `json:"history"`
}

// BuildSummary assembles the detail view from an order and its history.
func BuildSummary(order Order, history []StatusChange) Summary {
	t := order.Status
	if history == nil {
		history = []StatusChange{}
	}
	return Summary{
		Order: order,
		Badges: Badges{
			Order:       status.BadgeFor(string(t.Order)),
			Payment:     status.BadgeFor(string(t.Payment)),
			Fulfillment: status.BadgeFor(string(t.Fulfillment)),
		},
		Step:  status.OrderStep(t.Order),
		Steps: status.OrderSteps(),
		Next: NextStatuses{
			Order:       status.NextOrderStatuses(t.Order),
			Payment:     status.NextPaymentStatuses(t.Payment),
			Fulfillment: status.NextFulfillmentStatuses(t.Fulfillment),
		},
		Warnings: status.Warnings(t.Order, t.Payment, t.Fulfillment),
		History:  history,
	}
}
