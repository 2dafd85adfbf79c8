package orders

import (
	"fmt"
	"strings"

	"github.com/odyssey-erp/commerce-console/internal/orders/pricing"
	"github.com/odyssey-erp/commerce-console/internal/platform/httpx"
)

// ValidateDraft checks a draft input against form rules and the computed
// pricing. It returns nil when the draft may be submitted. Problems are data,
// the pricing engine itself never rejects input.
func ValidateDraft(in DraftInput, priced pricing.OrderPricing) httpx.FieldErrors {
	errs := httpx.StructErrors(in)
	for field, msg := range validateAmounts(in, priced) {
		if _, exists := errs[field]; !exists {
			errs[field] = msg
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// validateAmounts applies the business sanity rules that need no required
// fields, so pricing previews can report them too.
func validateAmounts(in DraftInput, priced pricing.OrderPricing) httpx.FieldErrors {
	errs := httpx.FieldErrors{}

	if !in.OrderDiscountKind.IsValid() {
		errs["order_discount_type"] = "unknown discount type"
	}
	if in.OrderDiscountKind == pricing.DiscountPercentage && in.OrderDiscountValue > 100 {
		errs["order_discount_value"] = "percentage discount cannot exceed 100"
	}
	if in.OrderDiscountKind == pricing.DiscountFixed && priced.OrderDiscount.Amount > priced.SubtotalAfterItemDiscounts {
		errs["order_discount_value"] = "discount cannot exceed the order subtotal"
	}

	for i, item := range in.Items {
		prefix := fmt.Sprintf("items[%d]", i)
		switch {
		case !item.DiscountKind.IsValid():
			errs[prefix+".discount_type"] = "unknown discount type"
		case item.DiscountKind == pricing.DiscountPercentage && item.DiscountValue > 100:
			errs[prefix+".discount_value"] = "percentage discount cannot exceed 100"
		case item.DiscountKind == pricing.DiscountFixed && item.DiscountValue > item.CostPrice:
			errs[prefix+".discount_value"] = "discount cannot exceed the unit price"
		}
		if item.AvailableStock > 0 && item.Quantity > item.AvailableStock {
			errs[prefix+".quantity"] = fmt.Sprintf("only %d in stock", item.AvailableStock)
		}
	}

	if in.GiftCardAmount > 0 && strings.TrimSpace(in.GiftCardCode) == "" {
		errs["gift_card_code"] = "gift card code is required when a gift card amount is applied"
	}
	payable := pricing.Round2(priced.GrandTotal + priced.GiftCardAmount)
	if priced.GiftCardAmount > payable {
		errs["gift_card_amount"] = "gift card amount cannot exceed the payable amount"
	}
	if priced.AdvancePaid > priced.GrandTotal {
		errs["advance_paid"] = "advance paid cannot exceed the grand total"
	}
	return errs
}
