package handlers

import (
	"github.com/developia-II/ratemy-backend/internal/models"
	"github.com/developia-II/ratemy-backend/utils"
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) CreateReply(c *fiber.Ctx) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	var req models.ReplyRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	reply, err := h.Replies.Create(ctx, uid, req)
	if err != nil {
		return err
	}
	return utils.Created(c, reply)
}

func (h *Handler) ListReplies(c *fiber.Ctx) error {
	id, err := paramID(c, "reviewId", "review")
	if err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	replies, err := h.Replies.List(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"replies": replies})
}
