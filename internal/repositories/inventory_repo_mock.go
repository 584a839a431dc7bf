package repositories

import (
	"fmt"
	"sync"
	"time"

	"papyrus/internal/models"
)

// MockInventoryRepository is an in-memory implementation of
// InventoryRepository. The mutex makes each operation atomic, mirroring the
// row-locking behavior of the GORM implementation.
type MockInventoryRepository struct {
	records map[string]models.Inventory
	mu      sync.RWMutex
}

// NewMockInventoryRepository creates a new instance of MockInventoryRepository.
func NewMockInventoryRepository() *MockInventoryRepository {
	return &MockInventoryRepository{
		records: make(map[string]models.Inventory),
	}
}

// EnsureRecord idempotently creates a zero-stock record.
func (r *MockInventoryRepository) EnsureRecord(productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[productID]; !ok {
		r.records[productID] = models.Inventory{ProductID: productID, UpdatedAt: time.Now()}
	}
	return nil
}

// Reserve atomically moves qty units from available to allocated.
func (r *MockInventoryRepository) Reserve(productID string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("reserve quantity must be positive, got %d", qty)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[productID]
	if !ok {
		rec = models.Inventory{ProductID: productID}
	}
	if rec.AvailableQty < qty {
		return fmt.Errorf("%w for product %s (requested: %d, available: %d)",
			ErrInsufficientStock, productID, qty, rec.AvailableQty)
	}
	rec.AvailableQty -= qty
	rec.AllocatedQty += qty
	rec.UpdatedAt = time.Now()
	r.records[productID] = rec
	return nil
}

// Release atomically removes qty units from allocated.
func (r *MockInventoryRepository) Release(productID string, qty int, mode models.ReleaseMode) error {
	if qty <= 0 {
		return fmt.Errorf("release quantity must be positive, got %d", qty)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[productID]
	if !ok || rec.AllocatedQty < qty {
		return fmt.Errorf("cannot release %d units of product %s: only %d allocated",
			qty, productID, rec.AllocatedQty)
	}
	rec.AllocatedQty -= qty
	if mode == models.ReturnToStock {
		rec.AvailableQty += qty
	}
	rec.UpdatedAt = time.Now()
	r.records[productID] = rec
	return nil
}

// SetAvailable overwrites the sellable quantity for a product.
func (r *MockInventoryRepository) SetAvailable(productID string, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := r.records[productID]
	rec.ProductID = productID
	rec.AvailableQty = qty
	rec.UpdatedAt = time.Now()
	r.records[productID] = rec
	return nil
}

// GetByProductID retrieves the ledger record for a product.
func (r *MockInventoryRepository) GetByProductID(productID string) (*models.Inventory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[productID]
	if !ok {
		return nil, fmt.Errorf("inventory record for product %s: %w", productID, ErrNotFound)
	}
	return &rec, nil
}

// snapshot and restore support transactional rollback in MockTxManager.
func (r *MockInventoryRepository) snapshot() map[string]models.Inventory {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cp := make(map[string]models.Inventory, len(r.records))
	for k, v := range r.records {
		cp[k] = v
	}
	return cp
}

func (r *MockInventoryRepository) restore(state map[string]models.Inventory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = state
}
