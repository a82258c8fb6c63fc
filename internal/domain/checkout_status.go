package domain

type CheckoutStatus string

const (
	CheckoutStatusIdle            CheckoutStatus = "IDLE"
	CheckoutStatusSubmitting      CheckoutStatus = "SUBMITTING"
	CheckoutStatusOrderFailed     CheckoutStatus = "ORDER_FAILED"
	CheckoutStatusOrderPlaced     CheckoutStatus = "ORDER_PLACED"
	CheckoutStatusStockSyncOk     CheckoutStatus = "STOCK_SYNC_OK"
	CheckoutStatusStockSyncFailed CheckoutStatus = "STOCK_SYNC_FAILED"
)

var checkoutTransitions = map[CheckoutStatus][]CheckoutStatus{
	CheckoutStatusIdle:            {CheckoutStatusSubmitting},
	CheckoutStatusSubmitting:      {CheckoutStatusOrderFailed, CheckoutStatusOrderPlaced},
	CheckoutStatusOrderFailed:     {CheckoutStatusIdle},
	CheckoutStatusOrderPlaced:     {CheckoutStatusStockSyncOk, CheckoutStatusStockSyncFailed},
	CheckoutStatusStockSyncOk:     {CheckoutStatusIdle},
	CheckoutStatusStockSyncFailed: {CheckoutStatusIdle},
}

// CanTransitionTo reports whether a checkout attempt may move from one status to the next.
func CanTransitionTo(from, to CheckoutStatus) bool {
	for _, next := range checkoutTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal is true once an attempt has an outcome the shopper can see.
func (s CheckoutStatus) IsTerminal() bool {
	return s == CheckoutStatusOrderFailed || s.Succeeded()
}

// Succeeded covers both stock outcomes; the order stands either way.
func (s CheckoutStatus) Succeeded() bool {
	return s == CheckoutStatusStockSyncOk || s == CheckoutStatusStockSyncFailed
}

// String representation (for logging)
func (s CheckoutStatus) String() string {
	return string(s)
}
