package repositories

import (
	"fmt"
	"time"

	"papyrus/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMInventoryRepository is a GORM implementation of InventoryRepository.
// It operates on whatever *gorm.DB it is constructed with, so the same code
// runs standalone or inside a transaction opened by the TxManager.
type GORMInventoryRepository struct {
	db *gorm.DB
}

// NewGORMInventoryRepository creates a new instance of GORMInventoryRepository.
func NewGORMInventoryRepository(db *gorm.DB) *GORMInventoryRepository {
	return &GORMInventoryRepository{
		db: db,
	}
}

// EnsureRecord idempotently creates a zero-stock ledger row for the product.
func (r *GORMInventoryRepository) EnsureRecord(productID string) error {
	record := models.Inventory{ProductID: productID, UpdatedAt: time.Now()}
	err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to ensure inventory record for product %s: %w", productID, err)
	}
	return nil
}

// lockedRecord fetches the ledger row under a row-level lock, so concurrent
// reservations on the same product serialize. SQLite has no FOR UPDATE and a
// single writer, so the lock clause is only applied on postgres.
func (r *GORMInventoryRepository) lockedRecord(productID string) (*models.Inventory, error) {
	tx := r.db
	if tx.Dialector.Name() == "postgres" {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var inv models.Inventory
	if err := tx.First(&inv, "product_id = ?", productID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("inventory record for product %s: %w", productID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load inventory record for product %s: %w", productID, err)
	}
	return &inv, nil
}

// Reserve atomically moves qty units from available to allocated. The row is
// locked before the current counters are read, so a concurrent checkout can
// never act on stale availability.
func (r *GORMInventoryRepository) Reserve(productID string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("reserve quantity must be positive, got %d", qty)
	}
	if err := r.EnsureRecord(productID); err != nil {
		return err
	}
	inv, err := r.lockedRecord(productID)
	if err != nil {
		return err
	}
	if inv.AvailableQty < qty {
		return fmt.Errorf("%w for product %s (requested: %d, available: %d)",
			ErrInsufficientStock, productID, qty, inv.AvailableQty)
	}
	res := r.db.Model(&models.Inventory{}).Where("product_id = ?", productID).Updates(map[string]interface{}{
		"available_qty": gorm.Expr("available_qty - ?", qty),
		"allocated_qty": gorm.Expr("allocated_qty + ?", qty),
		"updated_at":    time.Now(),
	})
	if res.Error != nil {
		return fmt.Errorf("failed to reserve %d units of product %s: %w", qty, productID, res.Error)
	}
	return nil
}

// Release atomically removes qty units from allocated, either returning them
// to the sellable pool or consuming them for good.
func (r *GORMInventoryRepository) Release(productID string, qty int, mode models.ReleaseMode) error {
	if qty <= 0 {
		return fmt.Errorf("release quantity must be positive, got %d", qty)
	}
	inv, err := r.lockedRecord(productID)
	if err != nil {
		return err
	}
	if inv.AllocatedQty < qty {
		return fmt.Errorf("cannot release %d units of product %s: only %d allocated",
			qty, productID, inv.AllocatedQty)
	}
	updates := map[string]interface{}{
		"allocated_qty": gorm.Expr("allocated_qty - ?", qty),
		"updated_at":    time.Now(),
	}
	if mode == models.ReturnToStock {
		updates["available_qty"] = gorm.Expr("available_qty + ?", qty)
	}
	res := r.db.Model(&models.Inventory{}).Where("product_id = ?", productID).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to release %d units of product %s: %w", qty, productID, res.Error)
	}
	return nil
}

// SetAvailable overwrites the sellable quantity, creating the row if needed.
func (r *GORMInventoryRepository) SetAvailable(productID string, qty int) error {
	record := models.Inventory{ProductID: productID, AvailableQty: qty, UpdatedAt: time.Now()}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"available_qty": qty, "updated_at": time.Now()}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to set available stock for product %s: %w", productID, err)
	}
	return nil
}

// GetByProductID retrieves the ledger row for a product.
func (r *GORMInventoryRepository) GetByProductID(productID string) (*models.Inventory, error) {
	var inv models.Inventory
	if err := r.db.First(&inv, "product_id = ?", productID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("inventory record for product %s: %w", productID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get inventory for product %s: %w", productID, err)
	}
	return &inv, nil
}
