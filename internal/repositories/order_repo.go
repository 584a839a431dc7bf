package repositories

import (
	"papyrus/internal/models"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	GetAll(statusFilter string) ([]models.Order, error)
	GetByID(id string) (*models.Order, error)
	GetByUser(userID string) ([]models.Order, error)
	Create(order *models.Order) error
	UpdateStatus(id string, status string) error
}
