package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// GetStats returns aggregate counts for the dashboard
func (h *Handler) GetStats(c *fiber.Ctx) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	stats, err := h.Stats.Stats(ctx)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"stats": stats})
}
