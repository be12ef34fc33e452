package models

// Order statuses
const (
	OrderStatusPending         = "pending"
	OrderStatusAwaitingPayment = "awaiting_payment"
	OrderStatusPaid            = "paid"
	OrderStatusFailed          = "failed"
	OrderStatusCancelled       = "cancelled"
	OrderStatusRefunded        = "refunded"
)

// Payment statuses
const (
	PaymentStatusPending  = "pending"
	PaymentStatusVerified = "verified"
	PaymentStatusFailed   = "failed"
)

// orderTransitions is the authoritative transition table. A transition not
// listed here is illegal and must be rejected, never applied; a late stale
// webhook can therefore not revert a refunded or cancelled order.
var orderTransitions = map[string][]string{
	OrderStatusPending:         {OrderStatusAwaitingPayment, OrderStatusFailed},
	OrderStatusAwaitingPayment: {OrderStatusPaid, OrderStatusFailed, OrderStatusCancelled},
	OrderStatusPaid:            {OrderStatusRefunded},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to string) bool {
	for _, allowed := range orderTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminalOrderStatus reports whether no further webhook-driven transition
// applies to the status.
func IsTerminalOrderStatus(status string) bool {
	switch status {
	case OrderStatusPaid, OrderStatusFailed, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}
