package fsm

// Payment status constants for the post-delivery confirmation loop.
// This sub-machine is independent of the request status.
const (
	PaymentNotRequired     = "not_required"
	PaymentPending         = "pending"
	PaymentAwaiting        = "awaiting_payment"
	PaymentAdminValidation = "pending_admin_validation"
	PaymentPaid            = "paid"
)

var paymentTransitions = map[string]map[string]struct{}{
	PaymentNotRequired: {
		PaymentPending: {},
	},
	PaymentPending: {
		PaymentAwaiting:        {},
		PaymentAdminValidation: {}, // client uploads the receipt before formally marking delivery
	},
	PaymentAwaiting: {
		PaymentAdminValidation: {},
	},
	PaymentAdminValidation: {
		PaymentPaid:     {},
		PaymentAwaiting: {}, // admin rejected the receipt, client re-uploads
	},
	PaymentPaid: {},
}

// CanTransitionPayment returns whether paymentStatus can move from the current
// value to the target value. "paid" is terminal.
func CanTransitionPayment(from, to string) bool {
	if from == to {
		return true
	}
	allowed, ok := paymentTransitions[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}
