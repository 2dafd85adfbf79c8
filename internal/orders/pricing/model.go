// Package pricing computes order totals, discounts and GST from draft line items.
package pricing

import (
	"fmt"
	"strings"
)

// DiscountKind describes how a discount value is interpreted.
type DiscountKind string

const (
	DiscountNone       DiscountKind = "none"
	DiscountPercentage DiscountKind = "percentage"
	DiscountFixed      DiscountKind = "fixed"
)

// IsValid checks if the kind is one of the known discount kinds.
func (k DiscountKind) IsValid() bool {
	switch k {
	case DiscountNone, DiscountPercentage, DiscountFixed:
		return true
	default:
		return false
	}
}

// ParseDiscountKind maps a raw value to a DiscountKind. The empty string is
// treated as DiscountNone.
func ParseDiscountKind(raw string) (DiscountKind, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return DiscountNone, nil
	}
	k := DiscountKind(v)
	if !k.IsValid() {
		return "", fmt.Errorf("%w: discount kind %q", ErrUnknownKind, raw)
	}
	return k, nil
}

// TaxType selects which GST components apply.
type TaxType string

const (
	TaxCGSTSGST TaxType = "cgst_sgst"
	TaxIGST     TaxType = "igst"
	TaxNone     TaxType = "none"
)

// IsValid checks if the tax type is known.
func (t TaxType) IsValid() bool {
	switch t {
	case TaxCGSTSGST, TaxIGST, TaxNone:
		return true
	default:
		return false
	}
}

// ParseTaxType maps a raw value to a TaxType.
func ParseTaxType(raw string) (TaxType, error) {
	t := TaxType(strings.ToLower(strings.TrimSpace(raw)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: tax type %q", ErrUnknownKind, raw)
	}
	return t, nil
}

// OrderItem is one line of a draft order. AvailableStock is only consulted
// by form validation.
type OrderItem struct {
	ProductID      int64        `json:"product_id" validate:"required,gt=0"`
	Name           string       `json:"name,omitempty" validate:"max=200"`
	Quantity       int          `json:"quantity" validate:"required,gt=0"`
	CostPrice      float64      `json:"cost_price" validate:"gte=0"`
	DiscountKind   DiscountKind `json:"discount_type"`
	DiscountValue  float64      `json:"discount_value" validate:"gte=0"`
	AvailableStock int          `json:"available_stock" validate:"gte=0"`
}

// ItemTotal is the computed breakdown for a single line.
type ItemTotal struct {
	Subtotal float64 `json:"subtotal"`
	Discount float64 `json:"discount"`
	Total    float64 `json:"total"`
}

// ItemsSummary aggregates ItemTotal values across a list of items.
type ItemsSummary struct {
	Subtotal            float64 `json:"subtotal"`
	Discounts           float64 `json:"discounts"`
	TotalAfterDiscounts float64 `json:"total_after_discounts"`
}

// Add combines two partial summaries.
func (s ItemsSummary) Add(other ItemsSummary) ItemsSummary {
	return ItemsSummary{
		Subtotal:            s.Subtotal + other.Subtotal,
		Discounts:           s.Discounts + other.Discounts,
		TotalAfterDiscounts: s.TotalAfterDiscounts + other.TotalAfterDiscounts,
	}
}

// TaxBreakdown holds GST components. Each component is rounded on its own.
type TaxBreakdown struct {
	CGST     float64 `json:"cgst"`
	SGST     float64 `json:"sgst"`
	IGST     float64 `json:"igst"`
	TotalTax float64 `json:"total_tax"`
}

// TaxRates are percentages for each GST component.
type TaxRates struct {
	CGST float64 `json:"cgst_rate" validate:"gte=0,lte=100"`
	SGST float64 `json:"sgst_rate" validate:"gte=0,lte=100"`
	IGST float64 `json:"igst_rate" validate:"gte=0,lte=100"`
}

// Inputs carries the order-level pricing configuration.
type Inputs struct {
	OrderDiscountKind  DiscountKind `json:"order_discount_type"`
	OrderDiscountValue float64      `json:"order_discount_value" validate:"gte=0"`
	TaxType            TaxType      `json:"tax_type"`
	Rates              TaxRates     `json:"rates"`
	ShippingCharge     float64      `json:"shipping_charge" validate:"gte=0"`
	CODCharge          float64      `json:"cod_charge" validate:"gte=0"`
	GiftCardCode       string       `json:"gift_card_code,omitempty" validate:"max=64"`
	GiftCardAmount     float64      `json:"gift_card_amount" validate:"gte=0"`
	AdvancePaid        float64      `json:"advance_paid" validate:"gte=0"`
}

// OrderDiscount is the order-level discount and its computed amount.
type OrderDiscount struct {
	Kind   DiscountKind `json:"type"`
	Value  float64      `json:"value"`
	Amount float64      `json:"amount"`
}

// TaxConfig is the applied tax type with rates and computed amounts.
type TaxConfig struct {
	Type  TaxType      `json:"type"`
	Rates TaxRates     `json:"rates"`
	Tax   TaxBreakdown `json:"amounts"`
}

// OrderPricing is the full, recomputed pricing snapshot for an order.
type OrderPricing struct {
	Subtotal                   float64       `json:"subtotal"`
	ProductDiscount            float64       `json:"product_discount"`
	SubtotalAfterItemDiscounts float64       `json:"subtotal_after_item_discounts"`
	OrderDiscount              OrderDiscount `json:"order_discount"`
	TaxableAmount              float64       `json:"taxable_amount"`
	Tax                        TaxConfig     `json:"tax"`
	ShippingCharge             float64       `json:"shipping_charge"`
	CODCharge                  float64       `json:"cod_charge"`
	GiftCardCode               string        `json:"gift_card_code,omitempty"`
	GiftCardAmount             float64       `json:"gift_card_amount"`
	GrandTotal                 float64       `json:"grand_total"`
	AdvancePaid                float64       `json:"advance_paid"`
	BalanceDue                 float64       `json:"balance_due"`
}
