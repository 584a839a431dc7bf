package repositories

import (
	"papyrus/internal/models"
)

// PaymentRepository defines the interface for payment data access.
type PaymentRepository interface {
	// Create inserts a payment record. Returns an error wrapping
	// ErrDuplicateTransaction when a payment with the same external
	// transaction ID already exists.
	Create(payment *models.Payment) error

	GetByOrderID(orderID string) (*models.Payment, error)
}
