package controllers

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/inceptionai/inception/app/repository"
	"github.com/inceptionai/inception/internal/pkg/billing"
	"github.com/inceptionai/inception/internal/pkg/env"
)

// HandleStripe returns a billing page URL for the authenticated user:
// the customer portal when a Stripe customer already exists, otherwise a
// fresh checkout for the pro plan.
func HandleStripe(c *fiber.Ctx) error {
	userID := currentUserID(c)
	if userID == 0 {
		return jsonUnauthorized(c)
	}

	factory := repository.GetGlobalFactory()
	sub, err := factory.GetSubscriptionRepository().GetByUserID(userID)
	if err != nil {
		log.Printf("failed to load subscription for user %d: %v", userID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Internal Error")
	}

	returnURL := settingsURL()

	if sub != nil && sub.StripeCustomerID != "" {
		url, err := billing.CreatePortalSession(requestContext(c), sub.StripeCustomerID, returnURL)
		if err != nil {
			log.Printf("failed to create portal session for user %d: %v", userID, err)
			return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Internal Error")
		}
		return c.JSON(fiber.Map{"url": url})
	}

	user, err := factory.GetUserRepository().GetByID(userID)
	if err != nil {
		log.Printf("failed to load user %d: %v", userID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Internal Error")
	}

	url, err := billing.CreateCheckoutSession(requestContext(c), userID, user.Email, returnURL)
	if err != nil {
		log.Printf("failed to create checkout session for user %d: %v", userID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Internal Error")
	}
	return c.JSON(fiber.Map{"url": url})
}

func settingsURL() string {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", "http://localhost:3000"), "/")
	return base + "/settings"
}
