package services

import "errors"

// User-correctable checkout failures, surfaced to the caller with a specific
// code and never retried by the system.
var (
	// ErrVerificationRequired means the buyer's email is not verified.
	// Checkout refuses to touch cart or inventory until it is.
	ErrVerificationRequired = errors.New("email verification required")

	// ErrEmptyCart means checkout was attempted with no cart lines.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrForbidden means the caller does not own the requested resource.
	ErrForbidden = errors.New("forbidden")

	// ErrNotPending means a payment session was requested for an order
	// that is no longer awaiting payment.
	ErrNotPending = errors.New("order is not pending payment")
)
