package controllers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/inceptionai/inception/internal/pkg/metrics/counter"
)

// HandleGetStats reports completed-generation totals per kind. Admin only.
func HandleGetStats(c *fiber.Ctx) error {
	totals, err := counter.Totals()
	if err != nil {
		log.Printf("failed to load generation totals: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Internal Error")
	}
	return c.JSON(fiber.Map{"generations": totals})
}
