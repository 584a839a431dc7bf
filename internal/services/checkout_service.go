package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"

	"papyrus/internal/models"
	"papyrus/internal/repositories"
	"papyrus/pkg/rabbitmq"
	"papyrus/pkg/stripe"
)

// CheckoutConfig carries the deployment-specific checkout settings.
type CheckoutConfig struct {
	// BaseURL of the storefront, used to build default redirect targets.
	BaseURL string
	// Currency for payment sessions, lowercase ISO code.
	Currency string
}

// CheckoutResult is returned to the buyer after a checkout attempt. The
// order is always committed by the time a result exists; SessionURL may be
// empty when the payment gateway is not configured.
type CheckoutResult struct {
	OrderID    string `json:"order_id"`
	SessionID  string `json:"session_id,omitempty"`
	SessionURL string `json:"session_url,omitempty"`
	Message    string `json:"message,omitempty"`
}

// CheckoutService orchestrates the checkout transaction: eligibility check,
// inventory reservation, order creation, cart clearing, then payment session
// creation against the external gateway.
type CheckoutService struct {
	userRepo    repositories.UserRepository
	cartRepo    repositories.CartRepository
	orderRepo   repositories.OrderRepository
	txManager   repositories.TxManager
	authService *AuthService
	gateway     *stripe.Client // nil means no payment gateway configured
	events      EventPublisher
	config      CheckoutConfig
}

// NewCheckoutService creates a new CheckoutService. gateway and events may be
// nil; both degrade gracefully.
func NewCheckoutService(
	userRepo repositories.UserRepository,
	cartRepo repositories.CartRepository,
	orderRepo repositories.OrderRepository,
	txManager repositories.TxManager,
	authService *AuthService,
	gateway *stripe.Client,
	events EventPublisher,
	config CheckoutConfig,
) *CheckoutService {
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:3000"
	}
	if config.Currency == "" {
		config.Currency = "usd"
	}
	return &CheckoutService{
		userRepo:    userRepo,
		cartRepo:    cartRepo,
		orderRepo:   orderRepo,
		txManager:   txManager,
		authService: authService,
		gateway:     gateway,
		events:      events,
		config:      config,
	}
}

// Checkout runs one checkout attempt for a buyer.
//
// Reservation, order creation and cart clearing happen in a single
// transaction: either the order exists with every line reserved and the cart
// empty, or nothing changed at all. The payment session is requested after
// commit; if that call fails the order stays pending and the buyer can retry
// session creation, it is never rolled back automatically.
func (s *CheckoutService) Checkout(ctx context.Context, userID, successURL, cancelURL string) (*CheckoutResult, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user for checkout: %w", err)
	}

	// Hard precondition: unverified buyers never reach inventory or payment.
	if !user.IsEmailVerified {
		token, tokenErr := s.authService.EnsureVerificationToken(user)
		if tokenErr != nil {
			return nil, fmt.Errorf("failed to issue verification token: %w", tokenErr)
		}
		log.Printf("Email verification required for %s. Link: %s/verify-email?token=%s",
			user.Email, s.config.BaseURL, token)
		return nil, ErrVerificationRequired
	}

	lines, err := s.cartRepo.Snapshot(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot cart: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	// Canonical reservation order, so two checkouts sharing products always
	// lock them in the same sequence and cannot deadlock each other.
	sort.Slice(lines, func(i, j int) bool {
		return lines[i].ProductID < lines[j].ProductID
	})

	var order *models.Order
	err = s.txManager.InTx(func(r repositories.Repos) error {
		var totalAmount float64
		items := make([]models.OrderItem, 0, len(lines))
		for _, line := range lines {
			if err := r.Inventory.Reserve(line.ProductID, line.Quantity); err != nil {
				return err
			}
			items = append(items, models.OrderItem{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				UnitPrice: line.UnitPrice,
			})
			totalAmount += line.UnitPrice * float64(line.Quantity)
		}

		order = &models.Order{
			UserID:      userID,
			Status:      models.OrderStatusPending,
			TotalAmount: totalAmount,
			Items:       items,
		}
		if err := r.Orders.Create(order); err != nil {
			return err
		}

		// Clearing the cart inside the same transaction guarantees the cart
		// is empty exactly when the order is durably recorded.
		return r.Carts.Clear(userID)
	})
	if err != nil {
		return nil, err
	}

	publishEvent(s.events, rabbitmq.RoutingKeyOrderCreated, map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"status":   order.Status,
		"total":    order.TotalAmount,
	})

	result := &CheckoutResult{OrderID: order.ID}
	if s.gateway == nil {
		result.Message = "Payment gateway not configured. Order recorded without a payment session."
		return result, nil
	}

	session, err := s.createSession(ctx, order, successURL, cancelURL)
	if err != nil {
		// The order is already committed; report the failure and leave it
		// pending so the buyer can retry session creation.
		return result, fmt.Errorf("order %s created but payment session failed: %w", order.ID, err)
	}
	result.SessionID = session.ID
	result.SessionURL = session.URL
	return result, nil
}

// RetryPaymentSession creates a fresh payment session for an existing pending
// order, for buyers whose original session creation failed or expired.
func (s *CheckoutService) RetryPaymentSession(ctx context.Context, userID, orderID string) (*CheckoutResult, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrForbidden
	}
	if order.Status != models.OrderStatusPending {
		return nil, fmt.Errorf("%w: order %s has status %s", ErrNotPending, order.ID, order.Status)
	}

	result := &CheckoutResult{OrderID: order.ID}
	if s.gateway == nil {
		result.Message = "Payment gateway not configured. Order recorded without a payment session."
		return result, nil
	}

	session, err := s.createSession(ctx, order, "", "")
	if err != nil {
		return result, fmt.Errorf("failed to create payment session for order %s: %w", order.ID, err)
	}
	result.SessionID = session.ID
	result.SessionURL = session.URL
	return result, nil
}

// createSession requests a hosted payment session from the gateway, tagged
// with the order ID so the webhook can correlate the payment back.
func (s *CheckoutService) createSession(ctx context.Context, order *models.Order, successURL, cancelURL string) (*stripe.CheckoutSession, error) {
	if successURL == "" {
		successURL = s.config.BaseURL + "/success?order={CHECKOUT_SESSION_ID}"
	}
	if cancelURL == "" {
		cancelURL = s.config.BaseURL + "/cart"
	}

	// Rounding keeps the minor-unit conversion exact for 2-decimal prices.
	lineItems := make([]stripe.LineItem, 0, len(order.Items))
	for _, item := range order.Items {
		lineItems = append(lineItems, stripe.LineItem{
			Name:       item.ProductID,
			UnitAmount: int64(math.Round(item.UnitPrice * 100)),
			Quantity:   item.Quantity,
		})
	}

	return s.gateway.CreateCheckoutSession(ctx, stripe.CheckoutSessionParams{
		Currency:   s.config.Currency,
		LineItems:  lineItems,
		SuccessURL: successURL,
		CancelURL:  cancelURL,
		Metadata:   map[string]string{"order_id": order.ID},
	})
}
