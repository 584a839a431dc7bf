package repositories

import "errors"

// Sentinel errors shared across repository implementations. Callers match
// with errors.Is; GORM and mock implementations wrap these with context.
var (
	// ErrNotFound is wrapped by lookups that come up empty.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientStock is returned by Reserve when the available
	// quantity cannot cover the requested quantity.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrDuplicateTransaction is returned when a payment with the same
	// external transaction ID already exists. The webhook service treats
	// it as "already processed", not as a failure.
	ErrDuplicateTransaction = errors.New("duplicate transaction")
)
