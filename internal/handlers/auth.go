package handlers

import (
	"github.com/developia-II/ratemy-backend/internal/logging"
	"github.com/developia-II/ratemy-backend/internal/models"
	"github.com/developia-II/ratemy-backend/utils"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func (h *Handler) Register(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	resp, err := h.Auth.Register(ctx, req)
	if err != nil {
		return err
	}

	logging.FromCtx(c).Info("user registered", zap.String("user_id", resp.User.ID))
	return utils.Created(c, resp)
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	resp, err := h.Auth.Login(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

func (h *Handler) Verify(c *fiber.Ctx) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	user, err := h.Auth.Verify(ctx, c.Params("token"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Email verified",
		"user":    user,
	})
}

// Me returns the authenticated user's profile
func (h *Handler) Me(c *fiber.Ctx) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	user, err := h.Users.Profile(ctx, uid)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": user})
}
