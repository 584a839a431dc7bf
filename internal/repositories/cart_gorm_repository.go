package repositories

import (
	"fmt"

	"papyrus/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{
		db: db,
	}
}

// Ensure returns the user's cart, creating an empty one if none exists.
func (r *GORMCartRepository) Ensure(userID string) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.Preload("Items").First(&cart, "user_id = ?", userID).Error
	if err == nil {
		return &cart, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("failed to load cart for user %s: %w", userID, err)
	}
	cart = models.Cart{ID: uuid.New().String(), UserID: userID}
	if err := r.db.Create(&cart).Error; err != nil {
		return nil, fmt.Errorf("failed to create cart for user %s: %w", userID, err)
	}
	return &cart, nil
}

// Snapshot returns a copy of the user's current cart lines.
func (r *GORMCartRepository) Snapshot(userID string) ([]models.CartItem, error) {
	cart, err := r.Ensure(userID)
	if err != nil {
		return nil, err
	}
	lines := make([]models.CartItem, len(cart.Items))
	copy(lines, cart.Items)
	return lines, nil
}

// AddItem appends a line to the user's cart.
func (r *GORMCartRepository) AddItem(userID string, item models.CartItem) error {
	cart, err := r.Ensure(userID)
	if err != nil {
		return err
	}
	item.ID = 0
	item.CartID = cart.ID
	if err := r.db.Create(&item).Error; err != nil {
		return fmt.Errorf("failed to add item to cart for user %s: %w", userID, err)
	}
	return nil
}

// UpdateQuantity changes the quantity of a single cart line.
func (r *GORMCartRepository) UpdateQuantity(userID string, itemID uint, qty int) error {
	cart, err := r.Ensure(userID)
	if err != nil {
		return err
	}
	res := r.db.Model(&models.CartItem{}).
		Where("id = ? AND cart_id = ?", itemID, cart.ID).
		Update("quantity", qty)
	if res.Error != nil {
		return fmt.Errorf("failed to update cart item %d: %w", itemID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("cart item %d: %w", itemID, ErrNotFound)
	}
	return nil
}

// RemoveItem deletes a single cart line.
func (r *GORMCartRepository) RemoveItem(userID string, itemID uint) error {
	cart, err := r.Ensure(userID)
	if err != nil {
		return err
	}
	res := r.db.Delete(&models.CartItem{}, "id = ? AND cart_id = ?", itemID, cart.ID)
	if res.Error != nil {
		return fmt.Errorf("failed to remove cart item %d: %w", itemID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("cart item %d: %w", itemID, ErrNotFound)
	}
	return nil
}

// Clear deletes every line in the user's cart.
func (r *GORMCartRepository) Clear(userID string) error {
	cart, err := r.Ensure(userID)
	if err != nil {
		return err
	}
	if err := r.db.Delete(&models.CartItem{}, "cart_id = ?", cart.ID).Error; err != nil {
		return fmt.Errorf("failed to clear cart for user %s: %w", userID, err)
	}
	return nil
}
