package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransitionOrder_Scenarios(t *testing.T) {
	assert.False(t, CanTransitionOrder(OrderPending, OrderDelivered))
	assert.True(t, CanTransitionOrder(OrderPending, OrderCancelled))
	assert.True(t, CanTransitionOrder(OrderPending, OrderConfirmed))
	assert.True(t, CanTransitionOrder(OrderShipped, OrderDelivered))
	assert.True(t, CanTransitionOrder(OrderDraft, OrderPending))
	assert.True(t, CanTransitionOrder(OrderDraft, OrderCancelled))
}

func TestCanTransitionOrder_ForwardOnly(t *testing.T) {
	assert.False(t, CanTransitionOrder(OrderConfirmed, OrderPending))
	assert.False(t, CanTransitionOrder(OrderShipped, OrderProcessing))
	assert.False(t, CanTransitionOrder(OrderConfirmed, OrderShipped))
	assert.False(t, CanTransitionOrder(OrderDraft, OrderConfirmed))
}

func TestCanTransitionOrder_TerminalAbsorbing(t *testing.T) {
	for _, terminal := range []OrderStatus{OrderCancelled, OrderDelivered, OrderRefunded, OrderReturned} {
		for _, target := range AllOrderStatuses() {
			assert.False(t, CanTransitionOrder(terminal, target), "%s -> %s", terminal, target)
		}
		assert.Empty(t, NextOrderStatuses(terminal))
	}
}

func TestCanTransitionOrder_AlternateBranches(t *testing.T) {
	assert.True(t, CanTransitionOrder(OrderShipped, OrderReturned))
	assert.True(t, CanTransitionOrder(OrderConfirmed, OrderRefunded))
	assert.False(t, CanTransitionOrder(OrderPending, OrderReturned))
	assert.False(t, CanTransitionOrder(OrderDraft, OrderRefunded))
}

func TestCanTransitionOrder_InvalidAndSelf(t *testing.T) {
	assert.False(t, CanTransitionOrder(OrderPending, OrderPending))
	assert.False(t, CanTransitionOrder("bogus", OrderCancelled))
	assert.False(t, CanTransitionOrder(OrderPending, "bogus"))
}

func TestNextOrderStatuses(t *testing.T) {
	assert.Equal(t, []OrderStatus{OrderConfirmed, OrderCancelled}, NextOrderStatuses(OrderPending))
	assert.Equal(t, []OrderStatus{OrderDelivered, OrderCancelled, OrderRefunded, OrderReturned}, NextOrderStatuses(OrderShipped))
}

func TestOrderStep(t *testing.T) {
	assert.Equal(t, 0, OrderStep(OrderPending))
	assert.Equal(t, 4, OrderStep(OrderDelivered))
	assert.Equal(t, -1, OrderStep(OrderCancelled))
	assert.Equal(t, -1, OrderStep(OrderRefunded))
	assert.Equal(t, -1, OrderStep(OrderReturned))
	assert.Equal(t, -1, OrderStep(OrderDraft))
	assert.Len(t, OrderSteps(), 5)
}

func TestRequiresConfirmation(t *testing.T) {
	assert.Equal(t, RequireTrackingNumber, RequiresConfirmation(OrderShipped))
	assert.Equal(t, RequireCancellationReason, RequiresConfirmation(OrderCancelled))
	assert.Equal(t, RequireNothing, RequiresConfirmation(OrderConfirmed))
}

func TestCanTransitionPayment(t *testing.T) {
	for _, target := range AllPaymentStatuses() {
		assert.False(t, CanTransitionPayment(PaymentRefunded, target), "refunded -> %s", target)
	}
	assert.True(t, CanTransitionPayment(PaymentPending, PaymentPaid))
	assert.True(t, CanTransitionPayment(PaymentPaid, PaymentPending))
	assert.True(t, CanTransitionPayment(PaymentFailed, PaymentAuthorized))
	assert.True(t, CanTransitionPayment(PaymentPaid, PaymentRefunded))
	assert.True(t, CanTransitionPayment(PaymentPartiallyRefunded, PaymentRefunded))
	assert.False(t, CanTransitionPayment(PaymentPending, PaymentRefunded))
	assert.False(t, CanTransitionPayment(PaymentFailed, PaymentPartiallyRefunded))
	assert.False(t, CanTransitionPayment(PaymentPaid, PaymentPaid))
}

func TestCanTransitionFulfillment(t *testing.T) {
	assert.True(t, CanTransitionFulfillment(FulfillmentUnfulfilled, FulfillmentPartial))
	assert.True(t, CanTransitionFulfillment(FulfillmentPartial, FulfillmentFulfilled))
	assert.True(t, CanTransitionFulfillment(FulfillmentUnfulfilled, FulfillmentFulfilled))
	assert.True(t, CanTransitionFulfillment(FulfillmentFulfilled, FulfillmentReturned))
	assert.True(t, CanTransitionFulfillment(FulfillmentUnfulfilled, FulfillmentCancelled))
	assert.False(t, CanTransitionFulfillment(FulfillmentFulfilled, FulfillmentPartial))
	assert.False(t, CanTransitionFulfillment(FulfillmentPartial, FulfillmentUnfulfilled))
	assert.False(t, CanTransitionFulfillment(FulfillmentFulfilled, FulfillmentUnfulfilled))
	for _, terminal := range []FulfillmentStatus{FulfillmentReturned, FulfillmentCancelled} {
		assert.Empty(t, NextFulfillmentStatuses(terminal))
		assert.False(t, CanTransitionFulfillment(terminal, FulfillmentFulfilled))
	}
}

func TestCanTransitionFulfillment_TerminalAlternates(t *testing.T) {
	for _, current := range []FulfillmentStatus{FulfillmentUnfulfilled, FulfillmentPartial, FulfillmentFulfilled} {
		assert.True(t, CanTransitionFulfillment(current, FulfillmentReturned), "%s -> returned", current)
		assert.True(t, CanTransitionFulfillment(current, FulfillmentCancelled), "%s -> cancelled", current)
	}
	assert.Equal(t, []FulfillmentStatus{FulfillmentReturned, FulfillmentCancelled}, NextFulfillmentStatuses(FulfillmentFulfilled))
}

func TestDerive(t *testing.T) {
	current := Triple{Order: OrderShipped, Payment: PaymentPaid, Fulfillment: FulfillmentPartial}

	got := Derive(current, OrderDelivered)
	assert.Equal(t, Triple{Order: OrderDelivered, Payment: PaymentPaid, Fulfillment: FulfillmentFulfilled}, got)

	got = Derive(Triple{Order: OrderPending, Payment: PaymentPending, Fulfillment: FulfillmentUnfulfilled}, OrderCancelled)
	assert.Equal(t, FulfillmentCancelled, got.Fulfillment)

	got = Derive(current, OrderCancelled)
	assert.Equal(t, FulfillmentPartial, got.Fulfillment)

	got = Derive(current, OrderReturned)
	assert.Equal(t, FulfillmentReturned, got.Fulfillment)

	closed := Triple{Order: OrderShipped, Payment: PaymentPaid, Fulfillment: FulfillmentCancelled}
	got = Derive(closed, OrderDelivered)
	assert.Equal(t, OrderDelivered, got.Order)
	assert.Equal(t, FulfillmentCancelled, got.Fulfillment, "terminal fulfillment is not overwritten")
}

func TestWarnings(t *testing.T) {
	tests := []struct {
		name        string
		order       OrderStatus
		payment     PaymentStatus
		fulfillment FulfillmentStatus
		want        []WarningType
	}{
		{"consistent", OrderDelivered, PaymentPaid, FulfillmentFulfilled, nil},
		{"delivered unpaid", OrderDelivered, PaymentPending, FulfillmentFulfilled, []WarningType{WarningWarning}},
		{"delivered unfulfilled", OrderDelivered, PaymentPaid, FulfillmentUnfulfilled, []WarningType{WarningWarning}},
		{"delivered with cancelled fulfillment", OrderDelivered, PaymentPaid, FulfillmentCancelled, []WarningType{WarningWarning}},
		{"cancelled paid", OrderCancelled, PaymentPaid, FulfillmentCancelled, []WarningType{WarningWarning}},
		{"cancelled refunded", OrderCancelled, PaymentRefunded, FulfillmentCancelled, nil},
		{"fulfilled while pending", OrderPending, PaymentPending, FulfillmentFulfilled, []WarningType{WarningInfo}},
		{"shipped with failed payment", OrderShipped, PaymentFailed, FulfillmentFulfilled, []WarningType{WarningError}},
		{"refunded order unpaid refund", OrderRefunded, PaymentPaid, FulfillmentReturned, []WarningType{WarningWarning}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Warnings(tt.order, tt.payment, tt.fulfillment)
			require.Len(t, got, len(tt.want))
			for i, w := range got {
				assert.Equal(t, tt.want[i], w.Type)
				assert.NotEmpty(t, w.Message)
			}
		})
	}
}

func TestLabelAndColor(t *testing.T) {
	assert.Equal(t, "Partially Paid", Label("partially_paid"))
	assert.Equal(t, "Partially Refunded", Label("partially-refunded"))
	assert.Equal(t, "Delivered", Label("delivered"))
	assert.Equal(t, "", Label(""))

	assert.Equal(t, ToneSuccess, Color("delivered"))
	assert.Equal(t, ToneDestructive, Color("failed"))
	assert.Equal(t, ToneWarning, Color("Partially-Paid"))
	assert.Equal(t, ToneDefault, Color("something_else"))

	assert.Equal(t, Badge{Value: "paid", Label: "Paid", Tone: ToneSuccess}, BadgeFor("paid"))
}

func TestParse(t *testing.T) {
	s, err := ParseOrderStatus(" Shipped ")
	require.NoError(t, err)
	assert.Equal(t, OrderShipped, s)

	p, err := ParsePaymentStatus("partially-paid")
	require.NoError(t, err)
	assert.Equal(t, PaymentPartiallyPaid, p)

	f, err := ParseFulfillmentStatus("FULFILLED")
	require.NoError(t, err)
	assert.Equal(t, FulfillmentFulfilled, f)

	_, err = ParseOrderStatus("lost")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}
