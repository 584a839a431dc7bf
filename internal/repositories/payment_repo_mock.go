package repositories

import (
	"fmt"
	"sync"

	"papyrus/internal/models"
)

// MockPaymentRepository is an in-memory implementation of PaymentRepository.
// It enforces the transaction-ID uniqueness constraint the same way the
// database schema does.
type MockPaymentRepository struct {
	payments []models.Payment
	byTxID   map[string]bool
	nextID   uint
	mu       sync.RWMutex
}

// NewMockPaymentRepository creates a new instance of MockPaymentRepository.
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		byTxID: make(map[string]bool),
	}
}

// Create inserts a payment record, rejecting duplicate transaction IDs.
func (r *MockPaymentRepository) Create(payment *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.byTxID[payment.TransactionID] {
		return fmt.Errorf("payment with transaction ID %s: %w",
			payment.TransactionID, ErrDuplicateTransaction)
	}
	r.nextID++
	payment.ID = r.nextID
	r.payments = append(r.payments, *payment)
	r.byTxID[payment.TransactionID] = true
	return nil
}

// GetByOrderID retrieves the payment recorded for an order.
func (r *MockPaymentRepository) GetByOrderID(orderID string) (*models.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.payments {
		if p.OrderID == orderID {
			cp := p
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("payment for order %s: %w", orderID, ErrNotFound)
}

// All returns every payment recorded, for test assertions.
func (r *MockPaymentRepository) All() []models.Payment {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cp := make([]models.Payment, len(r.payments))
	copy(cp, r.payments)
	return cp
}

type paymentState struct {
	payments []models.Payment
	byTxID   map[string]bool
	nextID   uint
}

func (r *MockPaymentRepository) snapshot() paymentState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st := paymentState{
		payments: make([]models.Payment, len(r.payments)),
		byTxID:   make(map[string]bool, len(r.byTxID)),
		nextID:   r.nextID,
	}
	copy(st.payments, r.payments)
	for k, v := range r.byTxID {
		st.byTxID[k] = v
	}
	return st
}

func (r *MockPaymentRepository) restore(st paymentState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments = st.payments
	r.byTxID = st.byTxID
	r.nextID = st.nextID
}
