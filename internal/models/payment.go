package models

import "time"

// Payment statuses.
const (
	PaymentStatusPaid   = "paid"
	PaymentStatusFailed = "failed"
)

// Payment records one confirmed payment attempt for an order. TransactionID
// is the gateway's external identifier and doubles as the idempotency key:
// the unique index makes reprocessing the same gateway event a detectable
// no-op instead of a double booking.
type Payment struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	OrderID       string    `json:"order_id" gorm:"type:varchar(36);index"`
	Gateway       string    `json:"gateway" gorm:"type:varchar(50)"`
	Amount        float64   `json:"amount"` // Currency units, from the gateway's minor-unit total
	Status        string    `json:"status" gorm:"type:varchar(20)"`
	TransactionID string    `json:"transaction_id" gorm:"uniqueIndex;type:varchar(255)"`
	PaidAt        time.Time `json:"paid_at"`
}
