package services

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"papyrus/internal/models"
	"papyrus/internal/repositories"
	"papyrus/pkg/rabbitmq"
	"papyrus/pkg/stripe"
)

// WebhookService reconciles asynchronous payment-gateway notifications with
// order and inventory state. Delivery is at-least-once, so processing is
// idempotent: the unique transaction ID on payments makes a redelivered
// event a detectable no-op.
type WebhookService struct {
	orderRepo     repositories.OrderRepository
	txManager     repositories.TxManager
	events        EventPublisher
	webhookSecret string
}

// NewWebhookService creates a new WebhookService.
func NewWebhookService(
	orderRepo repositories.OrderRepository,
	txManager repositories.TxManager,
	events EventPublisher,
	webhookSecret string,
) *WebhookService {
	return &WebhookService{
		orderRepo:     orderRepo,
		txManager:     txManager,
		events:        events,
		webhookSecret: webhookSecret,
	}
}

// HandleEvent processes one raw gateway notification.
//
// Signature failures return an error wrapping stripe.ErrInvalidSignature and
// have no side effects. Unknown event types and unknown orders are logged
// no-ops so the gateway stops redelivering them. Any other error means
// processing genuinely failed and the caller should answer non-2xx so the
// gateway retries.
func (s *WebhookService) HandleEvent(payload []byte, sigHeader string) error {
	if s.webhookSecret == "" {
		log.Println("Webhook secret not configured. Ignoring gateway notification.")
		return nil
	}

	event, err := stripe.ConstructEvent(payload, sigHeader, s.webhookSecret)
	if err != nil {
		return err
	}

	if event.Type != stripe.EventCheckoutSessionCompleted {
		return nil
	}

	session := event.Data.Object
	orderID := session.Metadata["order_id"]
	if orderID == "" {
		log.Printf("Webhook event %s has no order_id metadata. Skipping.", event.ID)
		return nil
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			log.Printf("Webhook event %s references unknown order %s. Skipping.", event.ID, orderID)
			return nil
		}
		return fmt.Errorf("failed to resolve order for webhook event %s: %w", event.ID, err)
	}

	// Only pending orders have a reservation left to consume. A session
	// completed against an already-paid or cancelled order (a stale session
	// from a retried checkout, or a late delivery after an admin cancel)
	// must be acknowledged, not retried: its reservation is gone, so
	// reconciling it can never succeed.
	if order.Status != models.OrderStatusPending {
		log.Printf("Webhook event %s for order %s in status %s. Skipping.", event.ID, order.ID, order.Status)
		return nil
	}

	transactionID := session.PaymentIntent
	if transactionID == "" {
		transactionID = session.ID
	}

	// The gateway's charge should match what checkout computed. Drift means
	// the session was built from different data than the order; the payment
	// is still recorded at the gateway amount, but loudly.
	if expected := int64(math.Round(order.TotalAmount * 100)); session.AmountTotal != expected {
		log.Printf("Webhook event %s charged %d minor units for order %s, expected %d.",
			event.ID, session.AmountTotal, order.ID, expected)
	}

	err = s.txManager.InTx(func(r repositories.Repos) error {
		// The payment insert comes first: its uniqueness constraint is the
		// idempotency guard, so a duplicate delivery aborts before any
		// inventory is touched twice.
		payment := &models.Payment{
			OrderID:       order.ID,
			Gateway:       "stripe",
			Amount:        float64(session.AmountTotal) / 100,
			Status:        models.PaymentStatusPaid,
			TransactionID: transactionID,
			PaidAt:        time.Now(),
		}
		if err := r.Payments.Create(payment); err != nil {
			return err
		}

		items := make([]models.OrderItem, len(order.Items))
		copy(items, order.Items)
		sort.Slice(items, func(i, j int) bool {
			return items[i].ProductID < items[j].ProductID
		})
		for _, item := range items {
			// The reservation becomes a permanent stock reduction.
			if err := r.Inventory.Release(item.ProductID, item.Quantity, models.Consume); err != nil {
				return err
			}
		}

		return r.Orders.UpdateStatus(order.ID, models.OrderStatusPaid)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateTransaction) {
			log.Printf("Webhook event %s already processed (transaction %s). Skipping.", event.ID, transactionID)
			return nil
		}
		return fmt.Errorf("failed to reconcile payment for order %s: %w", order.ID, err)
	}

	publishEvent(s.events, rabbitmq.RoutingKeyOrderPaid, map[string]interface{}{
		"order_id":       order.ID,
		"user_id":        order.UserID,
		"transaction_id": transactionID,
		"amount":         float64(session.AmountTotal) / 100,
	})
	return nil
}
