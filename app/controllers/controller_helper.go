package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/inceptionai/inception/internal/pkg/usercontext"
)

// currentUserID returns the authenticated user's id, or 0 for anonymous
// requests.
func currentUserID(c *fiber.Ctx) uint {
	return usercontext.GetUserID(c)
}

func jsonError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":   code,
		"message": message,
	})
}

func jsonUnauthorized(c *fiber.Ctx) error {
	return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
