package transaction

import "errors"

// Service errors
var (
	// ErrInvalidTransition marks a provider event whose target status is
	// not reachable from the transaction's current status. The event is
	// recorded but produces no state change; this is what keeps replayed
	// and out-of-order deliveries from corrupting state.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrUnknownTransaction marks an event whose provider reference
	// matches no transaction.
	ErrUnknownTransaction = errors.New("unknown transaction")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInvalidMethod      = errors.New("invalid payment method")
	ErrInvalidCurrency    = errors.New("invalid currency code")
)
