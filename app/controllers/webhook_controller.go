package controllers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	stripe "github.com/stripe/stripe-go/v82"

	"github.com/inceptionai/inception/app/models"
	"github.com/inceptionai/inception/internal/pkg/billing"
)

// WebhookController receives billing provider webhooks, verifies their
// signature, records them in the audit trail and applies them through
// the reducer. Failed events return a non-2xx status so the provider
// redelivers them; there is no local retry.
type WebhookController struct {
	reducer *billing.Reducer
	audit   *billing.Service

	// verify is swappable for tests; the default checks the Stripe
	// signature against the configured secret.
	verify func(payload []byte, signatureHeader string) (stripe.Event, error)
}

func NewWebhookController(reducer *billing.Reducer, audit *billing.Service) *WebhookController {
	return &WebhookController{
		reducer: reducer,
		audit:   audit,
		verify:  billing.VerifyWebhook,
	}
}

// HandleStripeWebhook processes one Stripe event delivery.
func (wc *WebhookController) HandleStripeWebhook(c *fiber.Ctx) error {
	payload := c.Body()

	event, err := wc.verify(payload, c.Get("Stripe-Signature"))
	if err != nil {
		log.Printf("[Webhook] signature verification failed: %v", err)
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid signature")
	}

	auditID := wc.audit.RecordWebhookEvent(models.BillingProviderStripe, event.ID, string(event.Type), payload)

	parsed, err := billing.ParseEvent(event)
	if err != nil {
		wc.audit.MarkWebhookProcessed(auditID, err)
		log.Printf("[Webhook] failed to parse event %s: %v", event.ID, err)
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Malformed event payload")
	}

	if err := wc.reducer.Apply(c.UserContext(), parsed); err != nil {
		wc.audit.MarkWebhookProcessed(auditID, err)

		var verr *billing.ValidationError
		if errors.As(err, &verr) {
			log.Printf("[Webhook] rejected event %s: %v", event.ID, verr)
			return jsonError(c, fiber.StatusBadRequest, "bad_request", verr.Msg)
		}
		log.Printf("[Webhook] failed to apply event %s: %v", event.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Event processing failed")
	}

	wc.audit.MarkWebhookProcessed(auditID, nil)

	return c.JSON(fiber.Map{"received": true})
}
