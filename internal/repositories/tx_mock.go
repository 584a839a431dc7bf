package repositories

import "sync"

// MockTxManager is an in-memory implementation of TxManager built on the
// mock repositories. A single mutex serializes transaction bodies, which is
// the in-memory equivalent of serializable isolation, and repository state is
// snapshotted before fn runs so an error rolls everything back.
type MockTxManager struct {
	Inventory *MockInventoryRepository
	Orders    *MockOrderRepository
	Carts     *MockCartRepository
	Payments  *MockPaymentRepository
	mu        sync.Mutex
}

// NewMockTxManager creates a MockTxManager with fresh mock repositories.
func NewMockTxManager() *MockTxManager {
	return &MockTxManager{
		Inventory: NewMockInventoryRepository(),
		Orders:    NewMockOrderRepository(),
		Carts:     NewMockCartRepository(),
		Payments:  NewMockPaymentRepository(),
	}
}

// InTx runs fn against the mock repositories, restoring their prior state if
// fn returns an error.
func (m *MockTxManager) InTx(fn func(r Repos) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	invState := m.Inventory.snapshot()
	orderState := m.Orders.snapshot()
	cartState := m.Carts.snapshot()
	payState := m.Payments.snapshot()

	err := fn(Repos{
		Inventory: m.Inventory,
		Orders:    m.Orders,
		Carts:     m.Carts,
		Payments:  m.Payments,
	})
	if err != nil {
		m.Inventory.restore(invState)
		m.Orders.restore(orderState)
		m.Carts.restore(cartState)
		m.Payments.restore(payState)
		return err
	}
	return nil
}
