package handlers

import (
	"errors"
	"log"

	"papyrus/internal/services"
	"papyrus/pkg/stripe"

	"github.com/gofiber/fiber/v2"
)

// WebhookHandler receives asynchronous payment-gateway notifications.
type WebhookHandler struct {
	service *services.WebhookService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(service *services.WebhookService) *WebhookHandler {
	return &WebhookHandler{
		service: service,
	}
}

// RegisterRoutes registers the webhook routes with the Fiber app. These are
// public (the gateway authenticates through the signature header) and must
// not sit behind the JWT middleware.
func (h *WebhookHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/webhooks/stripe", h.HandleStripe)
}

// HandleStripe processes one gateway notification. The signature is verified
// over the exact raw request bytes, so the body is passed through unparsed.
// A 2xx response tells the gateway the delivery is settled; a 5xx makes it
// redeliver, which is safe because processing is idempotent.
func (h *WebhookHandler) HandleStripe(c *fiber.Ctx) error {
	err := h.service.HandleEvent(c.Body(), c.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, stripe.ErrInvalidSignature) {
			// No stack traces for unauthenticated senders.
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "signature verification failed",
			})
		}
		log.Printf("Webhook processing failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "processing failed",
		})
	}
	return c.JSON(fiber.Map{
		"received": true,
	})
}
