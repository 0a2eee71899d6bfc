package handlers

import (
	"github.com/developia-II/ratemy-backend/internal/models"
	"github.com/developia-II/ratemy-backend/internal/services"
	"github.com/developia-II/ratemy-backend/utils"
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) ListManagers(c *fiber.Ctx) error {
	f := services.ManagerFilter{Query: c.Query("q")}
	if raw := c.Query("department"); raw != "" {
		id, err := utils.ObjectID(raw, "department")
		if err != nil {
			return err
		}
		f.Department = id
	}
	if raw := c.Query("company"); raw != "" {
		id, err := utils.ObjectID(raw, "company")
		if err != nil {
			return err
		}
		f.Company = id
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	page, err := h.Managers.List(ctx, f, services.ParsePage(c.Query("page"), c.Query("limit")))
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (h *Handler) GetManager(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "manager")
	if err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	m, err := h.Managers.Get(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(m)
}

func (h *Handler) ManagerReviews(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "manager")
	if err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	reviews, err := h.Managers.Reviews(ctx, id, viewer(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"reviews": reviews})
}

func (h *Handler) CreateManager(c *fiber.Ctx) error {
	var req models.ManagerRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	m, err := h.Managers.Create(ctx, req)
	if err != nil {
		return err
	}
	return utils.Created(c, m)
}

func (h *Handler) UpdateManager(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "manager")
	if err != nil {
		return err
	}
	var req models.ManagerRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	m, err := h.Managers.Update(ctx, id, req)
	if err != nil {
		return err
	}
	return c.JSON(m)
}

func (h *Handler) DeleteManager(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "manager")
	if err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.Managers.Delete(ctx, id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Manager deleted"})
}

func (h *Handler) FlagManager(c *fiber.Ctx) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", "manager")
	if err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	count, err := h.Managers.Flag(ctx, id, uid)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"flagCount": count})
}

func (h *Handler) ManagerSummary(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "manager")
	if err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	name, texts, err := h.Managers.ReviewTexts(ctx, id)
	if err != nil {
		return err
	}
	summary, err := h.Summaries.Summarize(ctx, "manager", name, texts)
	if err != nil {
		return err
	}
	return c.JSON(summary)
}

func (h *Handler) SubmitManagerReview(c *fiber.Ctx) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	var req models.ManagerReviewRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	review, manager, created, err := h.Managers.Submit(ctx, uid, req)
	if err != nil {
		return err
	}

	return utils.Upserted(c, created, fiber.Map{
		"review":  review,
		"manager": manager,
	})
}

func (h *Handler) UpdateManagerReview(c *fiber.Ctx) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", "review")
	if err != nil {
		return err
	}
	var req models.ManagerReviewUpdate
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	review, manager, err := h.Managers.UpdateReview(ctx, id, uid, req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"review":  review,
		"manager": manager,
	})
}

func (h *Handler) DeleteManagerReview(c *fiber.Ctx) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", "review")
	if err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	manager, err := h.Managers.DeleteReview(ctx, id, uid)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Review deleted",
		"manager": manager,
	})
}

func (h *Handler) LikeManagerReview(c *fiber.Ctx) error {
	return h.reactManagerReview(c, services.Like)
}

func (h *Handler) DislikeManagerReview(c *fiber.Ctx) error {
	return h.reactManagerReview(c, services.Dislike)
}

func (h *Handler) reactManagerReview(c *fiber.Ctx, kind services.Reaction) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", "review")
	if err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	counts, err := h.Managers.ReactReview(ctx, id, uid, kind)
	if err != nil {
		return err
	}
	return c.JSON(counts)
}

func (h *Handler) FlagManagerReview(c *fiber.Ctx) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", "review")
	if err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	count, err := h.Managers.FlagReview(ctx, id, uid)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"flagCount": count})
}
