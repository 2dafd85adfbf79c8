package pricing

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Round2 rounds half away from zero to two decimal places. NaN and infinities
// are returned unchanged.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// ComputeItemTotal returns the line subtotal, discount and total. A fixed
// discount is a per-unit rebate and scales with quantity. The total is not
// clamped at zero.
func ComputeItemTotal(item OrderItem) ItemTotal {
	quantity := float64(item.Quantity)
	subtotal := item.CostPrice * quantity

	var discount float64
	switch item.DiscountKind {
	case DiscountPercentage:
		discount = subtotal * item.DiscountValue / 100
	case DiscountFixed:
		discount = item.DiscountValue * quantity
	}

	return ItemTotal{
		Subtotal: subtotal,
		Discount: discount,
		Total:    subtotal - discount,
	}
}

// ComputeItemsSubtotal sums ComputeItemTotal across items.
func ComputeItemsSubtotal(items []OrderItem) ItemsSummary {
	var summary ItemsSummary
	for _, item := range items {
		t := ComputeItemTotal(item)
		summary = summary.Add(ItemsSummary{
			Subtotal:            t.Subtotal,
			Discounts:           t.Discount,
			TotalAfterDiscounts: t.Total,
		})
	}
	return summary
}

// ComputeOrderDiscount applies an order-level discount to amount. Unlike item
// discounts, a fixed order discount is a flat one-time deduction.
func ComputeOrderDiscount(amount float64, kind DiscountKind, value float64) float64 {
	switch kind {
	case DiscountPercentage:
		return amount * value / 100
	case DiscountFixed:
		return value
	default:
		return 0
	}
}

// DetectTaxType classifies a shipment for GST. International orders and
// orders with a missing state are untaxed; intra-state orders pay CGST+SGST,
// inter-state orders pay IGST.
func DetectTaxType(shippingState, billingState string, isInternational bool) TaxType {
	shipping := strings.TrimSpace(shippingState)
	billing := strings.TrimSpace(billingState)
	if isInternational || shipping == "" || billing == "" {
		return TaxNone
	}
	if strings.EqualFold(shipping, billing) {
		return TaxCGSTSGST
	}
	return TaxIGST
}

// ComputeTax computes GST components on the taxable amount. Components are
// rounded independently and TotalTax is the rounded sum of the rounded
// components.
func ComputeTax(taxableAmount float64, taxType TaxType, cgstRate, sgstRate, igstRate float64) TaxBreakdown {
	var out TaxBreakdown
	switch taxType {
	case TaxCGSTSGST:
		out.CGST = Round2(taxableAmount * cgstRate / 100)
		out.SGST = Round2(taxableAmount * sgstRate / 100)
	case TaxIGST:
		out.IGST = Round2(taxableAmount * igstRate / 100)
	default:
		return out
	}
	out.TotalTax = Round2(out.CGST + out.SGST + out.IGST)
	return out
}

// SplitGSTRate derives component rates from a total GST rate.
func SplitGSTRate(rate float64) TaxRates {
	return TaxRates{CGST: rate / 2, SGST: rate / 2, IGST: rate}
}

// ComputeOrderPricing produces the full pricing snapshot. Inputs are not
// sanity checked: a discount larger than the subtotal yields a negative
// taxable amount, exactly as the arithmetic implies.
func ComputeOrderPricing(items []OrderItem, in Inputs) OrderPricing {
	summary := ComputeItemsSubtotal(items)

	orderDiscount := ComputeOrderDiscount(summary.TotalAfterDiscounts, in.OrderDiscountKind, in.OrderDiscountValue)
	taxable := summary.TotalAfterDiscounts - orderDiscount
	tax := ComputeTax(taxable, in.TaxType, in.Rates.CGST, in.Rates.SGST, in.Rates.IGST)

	grandTotal := Round2(taxable + tax.TotalTax + in.ShippingCharge + in.CODCharge - in.GiftCardAmount)
	balanceDue := Round2(grandTotal - in.AdvancePaid)

	taxType := in.TaxType
	if !taxType.IsValid() {
		taxType = TaxNone
	}
	discountKind := in.OrderDiscountKind
	if !discountKind.IsValid() {
		discountKind = DiscountNone
	}

	return OrderPricing{
		Subtotal:                   Round2(summary.Subtotal),
		ProductDiscount:            Round2(summary.Discounts),
		SubtotalAfterItemDiscounts: Round2(summary.TotalAfterDiscounts),
		OrderDiscount: OrderDiscount{
			Kind:   discountKind,
			Value:  in.OrderDiscountValue,
			Amount: Round2(orderDiscount),
		},
		TaxableAmount: Round2(taxable),
		Tax: TaxConfig{
			Type:  taxType,
			Rates: in.Rates,
			Tax:   tax,
		},
		ShippingCharge: Round2(in.ShippingCharge),
		CODCharge:      Round2(in.CODCharge),
		GiftCardCode:   in.GiftCardCode,
		GiftCardAmount: Round2(in.GiftCardAmount),
		GrandTotal:     grandTotal,
		AdvancePaid:    Round2(in.AdvancePaid),
		BalanceDue:     balanceDue,
	}
}
