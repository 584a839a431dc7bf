package handlers

import (
	"errors"
	"log"

	"papyrus/internal/repositories"
	"papyrus/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CheckoutHandler handles HTTP requests for the checkout flow.
type CheckoutHandler struct {
	service *services.CheckoutService
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(service *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
	}
}

// RegisterRoutes registers the checkout routes with the Fiber app.
func (h *CheckoutHandler) RegisterRoutes(router fiber.Router) {
	checkoutRoutes := router.Group("/checkout")
	checkoutRoutes.Post("/", h.HandleCheckout)
	checkoutRoutes.Post("/:orderId/session", h.HandleRetrySession)
}

// HandleCheckout runs one checkout attempt for the authenticated buyer.
func (h *CheckoutHandler) HandleCheckout(c *fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(string)
	if !ok || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Authentication required",
		})
	}

	var body struct {
		SuccessURL string `json:"success_url"`
		CancelURL  string `json:"cancel_url"`
	}
	// The body is optional; both URLs have configured defaults.
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Invalid request body",
				"error":   err.Error(),
			})
		}
	}

	result, err := h.service.Checkout(c.UserContext(), userID, body.SuccessURL, body.CancelURL)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrVerificationRequired):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"code":    "EMAIL_VERIFICATION_REQUIRED",
				"message": "Please verify your email address. We have sent you a verification link.",
			})
		case errors.Is(err, services.ErrEmptyCart):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"code":    "EMPTY_CART",
				"message": "Cart is empty",
			})
		case errors.Is(err, repositories.ErrInsufficientStock):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"code":    "INSUFFICIENT_STOCK",
				"message": err.Error(),
			})
		case result != nil && result.OrderID != "":
			// The order committed but the payment session did not; report
			// the order so the buyer can retry session creation.
			log.Printf("Payment session creation failed for order %s: %v", result.OrderID, err)
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"order_id": result.OrderID,
				"message":  "Order recorded, but the payment session could not be created. Retry the payment.",
			})
		default:
			log.Printf("Checkout failed for user %s: %v", userID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Could not complete checkout",
			})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

// HandleRetrySession creates a fresh payment session for a pending order.
func (h *CheckoutHandler) HandleRetrySession(c *fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(string)
	if !ok || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Authentication required",
		})
	}
	orderID := c.Params("orderId")

	result, err := h.service.RetryPaymentSession(c.UserContext(), userID, orderID)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Order not found",
			})
		case errors.Is(err, services.ErrForbidden):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Order belongs to another user",
			})
		case errors.Is(err, services.ErrNotPending):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": err.Error(),
			})
		default:
			log.Printf("Payment session retry failed for order %s: %v", orderID, err)
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"order_id": orderID,
				"message":  "Could not create a payment session. Retry later.",
			})
		}
	}

	return c.JSON(result)
}
