package controllers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/inceptionai/inception/internal/pkg/entitlements"
)

// SubscriptionController exposes the usage and plan state the client
// needs to render counters and upgrade prompts.
type SubscriptionController struct {
	ent *entitlements.Service
}

func NewSubscriptionController(ent *entitlements.Service) *SubscriptionController {
	return &SubscriptionController{ent: ent}
}

// HandleGetSubscription reports the free-tier usage and subscription
// state of the authenticated user.
func (sc *SubscriptionController) HandleGetSubscription(c *fiber.Ctx) error {
	userID := currentUserID(c)
	if userID == 0 {
		return jsonUnauthorized(c)
	}

	count, err := sc.ent.GetUsageCount(userID)
	if err != nil {
		log.Printf("failed to load usage count for user %d: %v", userID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Internal Error")
	}
	subscribed, err := sc.ent.IsSubscribed(userID)
	if err != nil {
		log.Printf("failed to load subscription for user %d: %v", userID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Internal Error")
	}

	return c.JSON(fiber.Map{
		"count":      count,
		"free_limit": entitlements.MaxFreeCounts,
		"is_pro":     subscribed,
	})
}
