package handlers

import (
	"github.com/developia-II/ratemy-backend/internal/models"
	"github.com/developia-II/ratemy-backend/internal/services"
	"github.com/developia-II/ratemy-backend/utils"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ListInterviewers supports ?q=, ?company=, ?page= and ?limit=.
func (h *Handler) ListInterviewers(c *fiber.Ctx) error {
	var company primitive.ObjectID
	if raw := c.Query("company"); raw != "" {
		id, err := utils.ObjectID(raw, "company")
		if err != nil {
			return err
		}
		company = id
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	page, err := h.Interviewers.List(ctx, c.Query("q"), company, services.ParsePage(c.Query("page"), c.Query("limit")))
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (h *Handler) GetInterviewer(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "interviewer")
	if err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	i, err := h.Interviewers.Get(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(i)
}

func (h *Handler) CreateInterviewer(c *fiber.Ctx) error {
	var req models.InterviewerRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	i, err := h.Interviewers.Create(ctx, req)
	if err != nil {
		return err
	}
	return utils.Created(c, i)
}

func (h *Handler) UpdateInterviewer(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "interviewer")
	if err != nil {
		return err
	}
	var req models.InterviewerRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	i, err := h.Interviewers.Update(ctx, id, req)
	if err != nil {
		return err
	}
	return c.JSON(i)
}

func (h *Handler) DeleteInterviewer(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "interviewer")
	if err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.Interviewers.Delete(ctx, id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Interviewer deleted"})
}

func (h *Handler) RateInterviewer(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "interviewer")
	if err != nil {
		return err
	}
	var req models.RatingRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}
	return h.rate(c, id, req)
}

// CreateReview is RateInterviewer with the interviewer named in the body.
func (h *Handler) CreateReview(c *fiber.Ctx) error {
	var req models.ReviewRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}
	id, err := utils.ObjectID(req.Interviewer, "interviewer")
	if err != nil {
		return err
	}
	return h.rate(c, id, models.RatingRequest{Rating: req.Rating, ReviewText: req.ReviewText})
}

func (h *Handler) rate(c *fiber.Ctx, id primitive.ObjectID, req models.RatingRequest) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	i, r, created, err := h.Interviewers.Rate(ctx, id, uid, req)
	if err != nil {
		return err
	}

	return utils.Upserted(c, created, fiber.Map{
		"interviewer": i,
		"rating":      r,
		"created":     created,
	})
}

func (h *Handler) AddAnswer(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "interviewer")
	if err != nil {
		return err
	}
	var req models.AnswerRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	i, err := h.Interviewers.AddAnswer(ctx, id, req.Answer)
	if err != nil {
		return err
	}
	return utils.Created(c, i)
}

func (h *Handler) LikeRating(c *fiber.Ctx) error {
	return h.reactRating(c, services.Like)
}

func (h *Handler) DislikeRating(c *fiber.Ctx) error {
	return h.reactRating(c, services.Dislike)
}

func (h *Handler) reactRating(c *fiber.Ctx, kind services.Reaction) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", "interviewer")
	if err != nil {
		return err
	}
	ratingID, err := paramID(c, "reviewId", "review")
	if err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	counts, err := h.Interviewers.React(ctx, id, ratingID, uid, kind)
	if err != nil {
		return err
	}
	return c.JSON(counts)
}

func (h *Handler) InterviewerSummary(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "interviewer")
	if err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	name, texts, err := h.Interviewers.ReviewTexts(ctx, id)
	if err != nil {
		return err
	}
	summary, err := h.Summaries.Summarize(ctx, "interviewer", name, texts)
	if err != nil {
		return err
	}
	return c.JSON(summary)
}

// ListReviews returns the ratings of ?interviewer=, newest first.
func (h *Handler) ListReviews(c *fiber.Ctx) error {
	id, err := utils.ObjectID(c.Query("interviewer"), "interviewer")
	if err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	reviews, err := h.Interviewers.Reviews(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"reviews": reviews})
}

func (h *Handler) MyInterviewerReviews(c *fiber.Ctx) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	reviews, err := h.Interviewers.ReviewsBy(ctx, uid)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"reviews": reviews})
}
