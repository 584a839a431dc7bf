package repositories

import (
	"fmt"
	"sync"

	"papyrus/internal/models"

	"github.com/google/uuid"
)

// MockCartRepository is an in-memory implementation of CartRepository,
// keyed by user ID.
type MockCartRepository struct {
	carts  map[string]models.Cart
	nextID uint
	mu     sync.RWMutex
}

// NewMockCartRepository creates a new instance of MockCartRepository.
func NewMockCartRepository() *MockCartRepository {
	return &MockCartRepository{
		carts: make(map[string]models.Cart),
	}
}

func copyCart(c models.Cart) models.Cart {
	cp := c
	cp.Items = make([]models.CartItem, len(c.Items))
	copy(cp.Items, c.Items)
	return cp
}

func (r *MockCartRepository) ensureLocked(userID string) models.Cart {
	cart, ok := r.carts[userID]
	if !ok {
		cart = models.Cart{ID: uuid.New().String(), UserID: userID}
		r.carts[userID] = cart
	}
	return cart
}

// Ensure returns the user's cart, creating an empty one if needed.
func (r *MockCartRepository) Ensure(userID string) (*models.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart := copyCart(r.ensureLocked(userID))
	return &cart, nil
}

// Snapshot returns a copy of the user's current cart lines.
func (r *MockCartRepository) Snapshot(userID string) ([]models.CartItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart := r.ensureLocked(userID)
	lines := make([]models.CartItem, len(cart.Items))
	copy(lines, cart.Items)
	return lines, nil
}

// AddItem appends a line to the user's cart.
func (r *MockCartRepository) AddItem(userID string, item models.CartItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart := r.ensureLocked(userID)
	r.nextID++
	item.ID = r.nextID
	item.CartID = cart.ID
	cart.Items = append(cart.Items, item)
	r.carts[userID] = cart
	return nil
}

// UpdateQuantity changes the quantity of a single cart line.
func (r *MockCartRepository) UpdateQuantity(userID string, itemID uint, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart := r.ensureLocked(userID)
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			cart.Items[i].Quantity = qty
			r.carts[userID] = cart
			return nil
		}
	}
	return fmt.Errorf("cart item %d: %w", itemID, ErrNotFound)
}

// RemoveItem deletes a single cart line.
func (r *MockCartRepository) RemoveItem(userID string, itemID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart := r.ensureLocked(userID)
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			r.carts[userID] = cart
			return nil
		}
	}
	return fmt.Errorf("cart item %d: %w", itemID, ErrNotFound)
}

// Clear deletes every line in the user's cart.
func (r *MockCartRepository) Clear(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart := r.ensureLocked(userID)
	cart.Items = nil
	r.carts[userID] = cart
	return nil
}

func (r *MockCartRepository) snapshot() map[string]models.Cart {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cp := make(map[string]models.Cart, len(r.carts))
	for k, v := range r.carts {
		cp[k] = copyCart(v)
	}
	return cp
}

func (r *MockCartRepository) restore(state map[string]models.Cart) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.carts = state
}
