package handlers

import (
	"github.com/developia-II/ratemy-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) MyReviews(c *fiber.Ctx) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	reviews, err := h.Users.MyReviews(ctx, uid)
	if err != nil {
		return err
	}
	return c.JSON(reviews)
}

func (h *Handler) Saved(c *fiber.Ctx) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	saved, err := h.Users.Saved(ctx, uid)
	if err != nil {
		return err
	}
	return c.JSON(saved)
}

func (h *Handler) ToggleSavedInterviewer(c *fiber.Ctx) error {
	return h.toggleSaved(c, services.SavedInterviewers, "interviewer")
}

func (h *Handler) ToggleSavedManager(c *fiber.Ctx) error {
	return h.toggleSaved(c, services.SavedManagers, "manager")
}

func (h *Handler) toggleSaved(c *fiber.Ctx, kind services.SavedKind, what string) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	target, err := paramID(c, "id", what)
	if err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	saved, err := h.Users.ToggleSaved(ctx, uid, kind, target)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"saved": saved})
}
