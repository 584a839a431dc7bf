package repositories

import (
	"errors"
	"fmt"

	"papyrus/internal/models"

	"gorm.io/gorm"
)

// GORMPaymentRepository is a GORM implementation of PaymentRepository.
// Requires gorm.Config{TranslateError: true} so unique-constraint violations
// surface as gorm.ErrDuplicatedKey.
type GORMPaymentRepository struct {
	db *gorm.DB
}

// NewGORMPaymentRepository creates a new instance of GORMPaymentRepository.
func NewGORMPaymentRepository(db *gorm.DB) *GORMPaymentRepository {
	return &GORMPaymentRepository{
		db: db,
	}
}

// Create inserts a payment record. The unique index on transaction_id is the
// idempotency guard for at-least-once webhook delivery.
func (r *GORMPaymentRepository) Create(payment *models.Payment) error {
	if err := r.db.Create(payment).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("payment with transaction ID %s: %w",
				payment.TransactionID, ErrDuplicateTransaction)
		}
		return fmt.Errorf("failed to create payment for order %s: %w", payment.OrderID, err)
	}
	return nil
}

// GetByOrderID retrieves the payment recorded for an order.
func (r *GORMPaymentRepository) GetByOrderID(orderID string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.First(&payment, "order_id = ?", orderID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("payment for order %s: %w", orderID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get payment for order %s: %w", orderID, err)
	}
	return &payment, nil
}
