package status

// lifecycle is the linear happy path used for progress display.
var lifecycle = []OrderStatus{OrderPending, OrderConfirmed, OrderProcessing, OrderShipped, OrderDelivered}

// OrderSteps returns the lifecycle steps shown in progress bars.
func OrderSteps() []OrderStatus {
	return append([]OrderStatus(nil), lifecycle...)
}

// OrderStep returns the position of s on the lifecycle, or -1 when s is not
// on it (draft and the cancelled/refunded/returned branches).
func OrderStep(s OrderStatus) int {
	for i, step := range lifecycle {
		if step == s {
			return i
		}
	}
	return -1
}

// CanTransitionOrder reports whether an order may move from current to target.
// Movement is one step forward at a time; any non-terminal order may be
// cancelled; refunds and returns branch off once the order is confirmed.
func CanTransitionOrder(current, target OrderStatus) bool {
	if !current.IsValid() || !target.IsValid() || current == target {
		return false
	}
	if current.IsTerminal() {
		return false
	}

	switch target {
	case OrderCancelled:
		return true
	case OrderRefunded, OrderReturned:
		switch current {
		case OrderConfirmed, OrderProcessing, OrderShipped:
			return true
		}
		return false
	}

	switch current {
	case OrderDraft:
		return target == OrderPending
	case OrderPending:
		return target == OrderConfirmed
	case OrderConfirmed:
		return target == OrderProcessing
	case OrderProcessing:
		return target == OrderShipped
	case OrderShipped:
		return target == OrderDelivered
	default:
		return false
	}
}

// CanTransitionPayment reports whether a payment may move from current to
// target. A refunded payment never changes again and refunds need captured
// funds; other corrections are allowed.
func CanTransitionPayment(current, target PaymentStatus) bool {
	if !current.IsValid() || !target.IsValid() || current == target {
		return false
	}
	if current.IsTerminal() {
		return false
	}
	if target == PaymentRefunded || target == PaymentPartiallyRefunded {
		return current.hasCapturedFunds()
	}
	return true
}

// CanTransitionFulfillment reports whether fulfillment may move from current
// to target. Returned and cancelled close out any non-terminal state.
func CanTransitionFulfillment(current, target FulfillmentStatus) bool {
	if !current.IsValid() || !target.IsValid() || current == target {
		return false
	}
	if current.IsTerminal() {
		return false
	}

	switch target {
	case FulfillmentReturned, FulfillmentCancelled:
		return true
	}

	switch current {
	case FulfillmentUnfulfilled:
		return target == FulfillmentPartial || target == FulfillmentFulfilled
	case FulfillmentPartial:
		return target == FulfillmentFulfilled
	default:
		return false
	}
}

// NextOrderStatuses lists the legal targets from current.
func NextOrderStatuses(current OrderStatus) []OrderStatus {
	var out []OrderStatus
	for _, s := range orderStatuses {
		if CanTransitionOrder(current, s) {
			out = append(out, s)
		}
	}
	return out
}

// NextPaymentStatuses lists the legal targets from current.
func NextPaymentStatuses(current PaymentStatus) []PaymentStatus {
	var out []PaymentStatus
	for _, s := range paymentStatuses {
		if CanTransitionPayment(current, s) {
			out = append(out, s)
		}
	}
	return out
}

// NextFulfillmentStatuses lists the legal targets from current.
func NextFulfillmentStatuses(current FulfillmentStatus) []FulfillmentStatus {
	var out []FulfillmentStatus
	for _, s := range fulfillmentStatuses {
		if CanTransitionFulfillment(current, s) {
			out = append(out, s)
		}
	}
	return out
}

// Requirement names supplementary data an operator must capture before a
// transition is issued.
type Requirement string

const (
	RequireNothing            Requirement = ""
	RequireTrackingNumber     Requirement = "tracking_number"
	RequireCancellationReason Requirement = "cancellation_reason"
)

// RequiresConfirmation classifies targets that need a confirmation dialog.
func RequiresConfirmation(target OrderStatus) Requirement {
	switch target {
	case OrderShipped:
		return RequireTrackingNumber
	case OrderCancelled:
		return RequireCancellationReason
	default:
		return RequireNothing
	}
}

// Derive returns the local triple after an order transition to target has
// been accepted. The fulfillment follows the order only where that move is
// itself legal; otherwise it is left as is.
func Derive(current Triple, target OrderStatus) Triple {
	next := current
	next.Order = target

	var fulfillment FulfillmentStatus
	switch target {
	case OrderDelivered:
		fulfillment = FulfillmentFulfilled
	case OrderReturned:
		fulfillment = FulfillmentReturned
	case OrderCancelled:
		if current.Fulfillment == FulfillmentUnfulfilled {
			fulfillment = FulfillmentCancelled
		}
	}
	if fulfillment != "" && CanTransitionFulfillment(current.Fulfillment, fulfillment) {
		next.Fulfillment = fulfillment
	}
	return next
}
