package handlers

import (
	"context"
	"time"

	"github.com/developia-II/ratemy-backend/internal/database"
	"github.com/developia-II/ratemy-backend/internal/logging"
	"github.com/developia-II/ratemy-backend/internal/services"
	"github.com/developia-II/ratemy-backend/utils"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler serves the HTTP API on top of the services.
type Handler struct {
	DB           *database.DB
	Auth         *services.AuthService
	Users        *services.UserService
	Interviewers *services.InterviewerService
	Managers     *services.ManagerService
	Companies    *services.CompanyService
	Replies      *services.ReplyService
	Stats        *services.StatsService
	Summaries    *services.SummaryService
	Resources    *services.Resources

	Secret  string
	Timeout time.Duration
}

// ctx bounds the storage calls of one request.
func (h *Handler) ctx(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return context.WithTimeout(c.UserContext(), timeout)
}

// ErrorHandler writes every error returned by a handler as {"message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code, msg := utils.StatusOf(err)
	if code >= fiber.StatusInternalServerError {
		logging.FromCtx(c).Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}
	return utils.ErrorResponse(c, code, msg)
}

// Routes mounts /healthz and every route under /api.
func (h *Handler) Routes(app *fiber.App) {
	app.Get("/healthz", h.Health)

	auth := AuthMiddleware(h.Secret)
	optional := OptionalAuth(h.Secret)
	api := app.Group("/api")

	a := api.Group("/auth")
	a.Post("/register", h.Register)
	a.Post("/login", h.Login)
	a.Get("/verify/:token", h.Verify)
	a.Get("/me", auth, h.Me)

	u := api.Group("/user", auth)
	u.Get("/profile", h.Me)
	u.Get("/my-reviews", h.MyReviews)
	u.Get("/saved", h.Saved)
	u.Post("/saved/interviewers/:id", h.ToggleSavedInterviewer)
	u.Post("/saved/managers/:id", h.ToggleSavedManager)

	i := api.Group("/interviewers")
	i.Get("/", h.ListInterviewers)
	i.Get("/:id", h.GetInterviewer)
	i.Get("/:id/summary", h.InterviewerSummary)
	i.Post("/", auth, h.CreateInterviewer)
	i.Put("/:id", auth, h.UpdateInterviewer)
	i.Delete("/:id", auth, h.DeleteInterviewer)
	i.Post("/:id/rating", auth, h.RateInterviewer)
	i.Post("/:id/answers", auth, h.AddAnswer)
	i.Post("/:id/reviews/:reviewId/like", auth, h.LikeRating)
	i.Post("/:id/reviews/:reviewId/dislike", auth, h.DislikeRating)

	r := api.Group("/reviews")
	r.Get("/", h.ListReviews)
	r.Get("/mine", auth, h.MyInterviewerReviews)
	r.Post("/", auth, h.CreateReview)

	rp := api.Group("/replies")
	rp.Post("/", auth, h.CreateReply)
	rp.Get("/:reviewId", h.ListReplies)

	m := api.Group("/managers")
	m.Get("/", h.ListManagers)
	m.Get("/:id", h.GetManager)
	m.Get("/:id/reviews", optional, h.ManagerReviews)
	m.Get("/:id/summary", h.ManagerSummary)
	m.Post("/", auth, h.CreateManager)
	m.Put("/:id", auth, h.UpdateManager)
	m.Delete("/:id", auth, h.DeleteManager)
	m.Post("/:id/flag", auth, h.FlagManager)

	mr := api.Group("/manager-reviews", auth)
	mr.Post("/", h.SubmitManagerReview)
	mr.Put("/:id", h.UpdateManagerReview)
	mr.Delete("/:id", h.DeleteManagerReview)
	mr.Post("/:id/like", h.LikeManagerReview)
	mr.Post("/:id/dislike", h.DislikeManagerReview)
	mr.Post("/:id/flag", h.FlagManagerReview)

	co := api.Group("/companies")
	co.Get("/", h.ListCompanies)
	co.Get("/:id", h.GetCompany)
	co.Get("/:id/interviewers", h.CompanyInterviewers)
	co.Get("/:id/reviews", optional, h.CompanyReviews)
	co.Get("/:id/ratings", h.CompanyRatings)
	co.Post("/", auth, h.CreateCompany)
	co.Put("/:id", auth, h.UpdateCompany)
	co.Delete("/:id", auth, h.DeleteCompany)

	cr := api.Group("/company-reviews")
	cr.Get("/", optional, h.ListCompanyReviews)
	cr.Post("/", auth, h.SubmitCompanyReview)
	cr.Delete("/:id", auth, h.DeleteCompanyReview)

	res := h.Resources
	mountResource(api, "/branches", "branch", res.Branches, auth, h.ctx)
	mountResource(api, "/departments", "department", res.Departments, auth, h.ctx)
	mountResource(api, "/job-postings", "job posting", res.JobPostings, auth, h.ctx)
	mountResource(api, "/job-applications", "job application", res.JobApplications, auth, h.ctx)
	mountResource(api, "/job-types", "job type", res.JobTypes, auth, h.ctx)
	mountResource(api, "/experience-levels", "experience level", res.ExperienceLevels, auth, h.ctx)
	mountResource(api, "/skills", "skill", res.Skills, auth, h.ctx)
	mountResource(api, "/states", "state", res.States, auth, h.ctx)
	mountResource(api, "/resumes", "resume", res.Resumes, auth, h.ctx)
	mountResource(api, "/hosts", "host", res.Hosts, auth, h.ctx)
	mountResource(api, "/pending-hosts", "pending host", res.PendingHosts, auth, h.ctx)

	api.Get("/stats", h.GetStats)
}

// Health reports whether MongoDB answers.
func (h *Handler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()
	if err := h.DB.Ping(ctx); err != nil {
		logging.FromCtx(c).Warn("health check failed", zap.Error(err))
		return utils.Unavailable("Database unavailable")
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
