package models

import "time"

// CartItem is a single product line in a customer's cart. UnitPrice is locked
// in when the item is added, and carried into the order at checkout.
type CartItem struct {
	ID        uint    `json:"id" gorm:"primaryKey"`
	CartID    string  `json:"cart_id" gorm:"type:varchar(36);index"`
	ProductID string  `json:"product_id" gorm:"type:varchar(36)" validate:"required"`
	Quantity  int     `json:"quantity" validate:"required,gt=0"`
	UnitPrice float64 `json:"unit_price"`
}

// Cart holds a customer's current cart. One cart per user.
type Cart struct {
	ID        string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string     `json:"user_id" gorm:"uniqueIndex;type:varchar(36)"`
	Items     []CartItem `json:"items" gorm:"foreignKey:CartID"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
