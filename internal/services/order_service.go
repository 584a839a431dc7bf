package services

import (
	"fmt"
	"sort"

	"papyrus/internal/models"
	"papyrus/internal/repositories"
	"papyrus/pkg/rabbitmq"
)

// validTransitions is the order status state machine for admin updates.
// Pending orders become paid only through the webhook service; cancelled and
// delivered are terminal.
var validTransitions = map[string][]string{
	models.OrderStatusPending: {models.OrderStatusCancelled},
	models.OrderStatusPaid:    {models.OrderStatusShipped},
	models.OrderStatusShipped: {models.OrderStatusDelivered},
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo repositories.OrderRepository
	txManager repositories.TxManager
	events    EventPublisher
}

// NewOrderService creates a new OrderService.
func NewOrderService(orderRepo repositories.OrderRepository, txManager repositories.TxManager, events EventPublisher) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		txManager: txManager,
		events:    events,
	}
}

// ListForUser retrieves a user's orders, newest first.
func (s *OrderService) ListForUser(userID string) ([]models.Order, error) {
	return s.orderRepo.GetByUser(userID)
}

// GetForUser retrieves a single order, enforcing ownership.
func (s *OrderService) GetForUser(userID, orderID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrForbidden
	}
	return order, nil
}

// ListAll retrieves all orders, optionally filtered by status. Admin only.
func (s *OrderService) ListAll(statusFilter string) ([]models.Order, error) {
	return s.orderRepo.GetAll(statusFilter)
}

// UpdateStatus applies an admin status transition. Cancelling a pending
// order returns its reserved inventory to the sellable pool in the same
// transaction as the status change.
func (s *OrderService) UpdateStatus(orderID, status string) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}

	allowed := false
	for _, next := range validTransitions[order.Status] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("invalid order status transition from %s to %s", order.Status, status)
	}

	if order.Status == models.OrderStatusPending && status == models.OrderStatusCancelled {
		err = s.txManager.InTx(func(r repositories.Repos) error {
			items := make([]models.OrderItem, len(order.Items))
			copy(items, order.Items)
			sort.Slice(items, func(i, j int) bool {
				return items[i].ProductID < items[j].ProductID
			})
			for _, item := range items {
				if err := r.Inventory.Release(item.ProductID, item.Quantity, models.ReturnToStock); err != nil {
					return err
				}
			}
			return r.Orders.UpdateStatus(orderID, status)
		})
		if err != nil {
			return fmt.Errorf("failed to cancel order %s: %w", orderID, err)
		}
		publishEvent(s.events, rabbitmq.RoutingKeyOrderCancelled, map[string]interface{}{
			"order_id": orderID,
			"user_id":  order.UserID,
		})
		return nil
	}

	if err := s.orderRepo.UpdateStatus(orderID, status); err != nil {
		return fmt.Errorf("failed to update order status for order %s: %w", orderID, err)
	}
	return nil
}
