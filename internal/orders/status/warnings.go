package status

import "fmt"

// WarningType is the severity of an advisory warning.
type WarningType string

const (
	WarningError   WarningType = "error"
	WarningWarning WarningType = "warning"
	WarningInfo    WarningType = "info"
)

// Warning flags a questionable status combination. Warnings never block a
// transition.
type Warning struct {
	Type    WarningType `json:"type"`
	Message string      `json:"message"`
}

// Warnings returns advisory warnings for the given triple.
func Warnings(order OrderStatus, payment PaymentStatus, fulfillment FulfillmentStatus) []Warning {
	out := []Warning{}

	if payment == PaymentFailed {
		switch order {
		case OrderProcessing, OrderShipped, OrderDelivered:
			out = append(out, Warning{
				Type:    WarningError,
				Message: fmt.Sprintf("Payment failed but the order is %s. Collect payment or stop the shipment.", Label(string(order))),
			})
		}
	}

	if order == OrderDelivered && payment != PaymentPaid {
		out = append(out, Warning{
			Type:    WarningWarning,
			Message: fmt.Sprintf("Order is delivered but payment is %s.", Label(string(payment))),
		})
	}

	if order == OrderDelivered && fulfillment == FulfillmentUnfulfilled {
		out = append(out, Warning{
			Type:    WarningWarning,
			Message: "Order is delivered but no items are marked as fulfilled.",
		})
	}

	if order == OrderDelivered && fulfillment.IsTerminal() {
		out = append(out, Warning{
			Type:    WarningWarning,
			Message: fmt.Sprintf("Order is delivered but fulfillment is %s.", Label(string(fulfillment))),
		})
	}

	if order == OrderCancelled && (payment == PaymentPaid || payment == PaymentPartiallyPaid) {
		out = append(out, Warning{
			Type:    WarningWarning,
			Message: "Order is cancelled but payment was collected. Consider issuing a refund.",
		})
	}

	if order == OrderRefunded && payment != PaymentRefunded && payment != PaymentPartiallyRefunded {
		out = append(out, Warning{
			Type:    WarningWarning,
			Message: fmt.Sprintf("Order is refunded but payment is %s.", Label(string(payment))),
		})
	}

	if fulfillment == FulfillmentFulfilled && (order == OrderPending || order == OrderDraft) {
		out = append(out, Warning{
			Type:    WarningInfo,
			Message: fmt.Sprintf("Items are fulfilled while the order is still %s.", Label(string(order))),
		})
	}

	if order == OrderShipped && fulfillment == FulfillmentUnfulfilled {
		out = append(out, Warning{
			Type:    WarningInfo,
			Message: "Order is shipped but fulfillment has not been recorded.",
		})
	}

	return out
}
