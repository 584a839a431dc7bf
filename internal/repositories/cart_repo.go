package repositories

import (
	"papyrus/internal/models"
)

// CartRepository defines the interface for cart data access. The checkout
// orchestrator only ever uses Snapshot and Clear; the rest serves the
// storefront cart screens.
type CartRepository interface {
	// Ensure returns the user's cart, creating an empty one if needed.
	Ensure(userID string) (*models.Cart, error)

	// Snapshot returns an immutable copy of the user's current cart lines.
	// Mutations to the cart after the snapshot is taken are not observed
	// by the caller.
	Snapshot(userID string) ([]models.CartItem, error)

	AddItem(userID string, item models.CartItem) error
	UpdateQuantity(userID string, itemID uint, qty int) error
	RemoveItem(userID string, itemID uint) error

	// Clear deletes every line in the user's cart.
	Clear(userID string) error
}
