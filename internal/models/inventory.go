package models

import "time"

// ReleaseMode controls what happens to reserved units when a reservation is
// released.
type ReleaseMode string

const (
	// ReturnToStock puts the released units back into the sellable pool
	// (order cancelled or failed before payment).
	ReturnToStock ReleaseMode = "return"
	// Consume drops the released units from the ledger entirely (sale
	// finalized by a confirmed payment).
	Consume ReleaseMode = "consume"
)

// Inventory is the per-product stock ledger. AvailableQty is sellable stock;
// AllocatedQty is stock promised to pending orders but not yet sold.
// Both counters are always >= 0 and are only mutated through the
// InventoryRepository's atomic operations.
type Inventory struct {
	ProductID    string    `json:"product_id" gorm:"primaryKey;type:varchar(36)"`
	AvailableQty int       `json:"available_qty"`
	AllocatedQty int       `json:"allocated_qty"`
	UpdatedAt    time.Time `json:"updated_at"`
}
