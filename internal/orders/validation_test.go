package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/odyssey-erp/commerce-console/internal/orders/pricing"
)

func TestValidateDraft(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*DraftInput)
		fields []string
	}{
		{name: "valid", mutate: func(*DraftInput) {}},
		{
			name:   "no items",
			mutate: func(in *DraftInput) { in.Items = nil },
			fields: []string{"items"},
		},
		{
			name:   "bad email",
			mutate: func(in *DraftInput) { in.CustomerEmail = "not-an-email" },
			fields: []string{"customer_email"},
		},
		{
			name:   "zero quantity",
			mutate: func(in *DraftInput) { in.Items[0].Quantity = 0 },
			fields: []string{"items[0].quantity"},
		},
		{
			name:   "order percentage over 100",
			mutate: func(in *DraftInput) { in.OrderDiscountValue = 120 },
			fields: []string{"order_discount_value"},
		},
		{
			name: "fixed order discount over subtotal",
			mutate: func(in *DraftInput) {
				in.OrderDiscountKind = pricing.DiscountFixed
				in.OrderDiscountValue = 5000
			},
			fields: []string{"order_discount_value"},
		},
		{
			name: "fixed item discount over unit price",
			mutate: func(in *DraftInput) {
				in.Items[0].DiscountKind = pricing.DiscountFixed
				in.Items[0].DiscountValue = 300
			},
			fields: []string{"items[0].discount_value"},
		},
		{
			name:   "unknown item discount kind",
			mutate: func(in *DraftInput) { in.Items[1].DiscountKind = "bogo" },
			fields: []string{"items[1].discount_type"},
		},
		{
			name:   "quantity over stock",
			mutate: func(in *DraftInput) { in.Items[0].Quantity = 11 },
			fields: []string{"items[0].quantity"},
		},
		{
			name:   "gift card without code",
			mutate: func(in *DraftInput) { in.GiftCardAmount = 100 },
			fields: []string{"gift_card_code"},
		},
		{
			name: "gift card over payable",
			mutate: func(in *DraftInput) {
				in.GiftCardCode = "GIFT-1"
				in.GiftCardAmount = 5000
			},
			fields: []string{"gift_card_amount"},
		},
		{
			name:   "advance over grand total",
			mutate: func(in *DraftInput) { in.AdvancePaid = 1058.91 },
			fields: []string{"advance_paid"},
		},
		{
			name:   "advance equal to grand total",
			mutate: func(in *DraftInput) { in.AdvancePaid = 1058.9 },
		},
		{
			name:   "bad country",
			mutate: func(in *DraftInput) { in.ShippingAddress.Country = "IND" },
			fields: []string{"shipping_address.country"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			normalizeInput(&in)
			errs := ValidateDraft(in, in.Price())
			if len(tt.fields) == 0 {
				assert.Nil(t, errs)
				return
			}
			for _, field := range tt.fields {
				assert.Contains(t, errs, field)
			}
		})
	}
}

func TestNormalizeInput(t *testing.T) {
	in := DraftInput{
		CustomerEmail:     "  a@b.co ",
		ShippingAddress:   Address{StateCode: " ka"},
		OrderDiscountKind: "Percentage",
		Items:             []pricing.OrderItem{{DiscountKind: ""}, {DiscountKind: "weird"}},
	}
	normalizeInput(&in)

	assert.Equal(t, "a@b.co", in.CustomerEmail)
	assert.Equal(t, "KA", in.ShippingAddress.StateCode)
	assert.Equal(t, pricing.DiscountPercentage, in.OrderDiscountKind)
	assert.Equal(t, pricing.DiscountNone, in.Items[0].DiscountKind)
	assert.Equal(t, pricing.DiscountKind("weird"), in.Items[1].DiscountKind)
}
