package repositories

import (
	"papyrus/internal/models"
)

// InventoryRepository is the per-product stock ledger. Reserve and Release
// are the only ways stock counters change; both are atomic per product.
// Implementations must serialize concurrent reservations on the same product
// so that two buyers can never both claim the last unit.
type InventoryRepository interface {
	// EnsureRecord idempotently creates a zero-stock ledger row for the
	// product if none exists yet.
	EnsureRecord(productID string) error

	// Reserve moves qty units from available to allocated. Returns an
	// error wrapping ErrInsufficientStock when available < qty; in that
	// case the ledger is left untouched.
	Reserve(productID string, qty int) error

	// Release removes qty units from allocated. ReturnToStock puts them
	// back into available (cancellation); Consume drops them from the
	// ledger entirely (confirmed sale).
	Release(productID string, qty int, mode models.ReleaseMode) error

	// SetAvailable overwrites the sellable quantity for a product,
	// creating the row if needed. Used by catalog/admin stock sync, never
	// by checkout.
	SetAvailable(productID string, qty int) error

	GetByProductID(productID string) (*models.Inventory, error)
}
