package models

import "time"

// Order statuses. Pending orders hold inventory reservations; Paid orders
// have consumed them. Cancelled and Delivered are terminal.
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusCancelled = "cancelled"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
)

// OrderItem represents a single product line within an order. The unit price
// is captured at checkout time and never re-read from the catalog, so
// invoices stay stable when prices change.
type OrderItem struct {
	ID        uint    `json:"id" gorm:"primaryKey"`
	OrderID   string  `json:"order_id" gorm:"type:varchar(36);index"`
	ProductID string  `json:"product_id" gorm:"type:varchar(36)"`
	Quantity  int     `json:"quantity" validate:"required,gt=0"`
	UnitPrice float64 `json:"unit_price"`
}

// Order represents one purchase attempt by a customer. Amounts are in
// currency units and exact for 2-decimal catalog prices; conversion to the
// gateway's minor units rounds once at the gateway boundary.
type Order struct {
	ID          string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID      string      `json:"user_id" gorm:"type:varchar(36);index"`
	Items       []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
	Payment     *Payment    `json:"payment,omitempty" gorm:"foreignKey:OrderID"`
	TotalAmount float64     `json:"total_amount"`
	Status      string      `json:"status" gorm:"type:varchar(20);index"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
