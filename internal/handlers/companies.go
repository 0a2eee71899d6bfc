package handlers

import (
	"github.com/developia-II/ratemy-backend/internal/models"
	"github.com/developia-II/ratemy-backend/internal/services"
	"github.com/developia-II/ratemy-backend/utils"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (h *Handler) ListCompanies(c *fiber.Ctx) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	page, err := h.Companies.List(ctx, c.Query("q"), services.ParsePage(c.Query("page"), c.Query("limit")))
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (h *Handler) GetCompany(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "company")
	if err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	company, err := h.Companies.Get(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(company)
}

func (h *Handler) CompanyInterviewers(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "company")
	if err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	if _, err := h.Companies.Get(ctx, id); err != nil {
		return err
	}
	list, err := h.Interviewers.ByCompany(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"interviewers": list})
}

func (h *Handler) CompanyReviews(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "company")
	if err != nil {
		return err
	}
	return h.companyReviews(c, id)
}

// ListCompanyReviews is CompanyReviews addressed by ?company=.
func (h *Handler) ListCompanyReviews(c *fiber.Ctx) error {
	id, err := utils.ObjectID(c.Query("company"), "company")
	if err != nil {
		return err
	}
	return h.companyReviews(c, id)
}

func (h *Handler) companyReviews(c *fiber.Ctx, id primitive.ObjectID) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	reviews, err := h.Companies.Reviews(ctx, id, viewer(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"reviews": reviews})
}

func (h *Handler) CompanyRatings(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "company")
	if err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	ratings, err := h.Companies.Ratings(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(ratings)
}

func (h *Handler) CreateCompany(c *fiber.Ctx) error {
	var req models.CompanyRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	company, err := h.Companies.Create(ctx, req)
	if err != nil {
		return err
	}
	return utils.Created(c, company)
}

func (h *Handler) UpdateCompany(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "company")
	if err != nil {
		return err
	}
	var req models.CompanyRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	company, err := h.Companies.Update(ctx, id, req)
	if err != nil {
		return err
	}
	return c.JSON(company)
}

func (h *Handler) DeleteCompany(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "company")
	if err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.Companies.Delete(ctx, id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Company deleted"})
}

func (h *Handler) SubmitCompanyReview(c *fiber.Ctx) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	var req models.CompanyReviewRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	review, err := h.Companies.SubmitReview(ctx, uid, req)
	if err != nil {
		return err
	}
	return utils.Created(c, review)
}

func (h *Handler) DeleteCompanyReview(c *fiber.Ctx) error {
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
	if err := h.Companies.DeleteReview(ctx, id, uid); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Review deleted"})
}
