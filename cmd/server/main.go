package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/developia-II/ratemy-backend/internal/config"
	"github.com/developia-II/ratemy-backend/internal/database"
	"github.com/developia-II/ratemy-backend/internal/handlers"
	"github.com/developia-II/ratemy-backend/internal/logging"
	"github.com/developia-II/ratemy-backend/internal/mailer"
	"github.com/developia-II/ratemy-backend/internal/ratelimit"
	"github.com/developia-II/ratemy-backend/internal/services"
	"github.com/developia-II/ratemy-backend/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := logging.Init(cfg.Log.Level, cfg.Log.Pretty); err != nil {
		log.Fatal("Failed to init logger:", err)
	}
	l := logging.L()
	defer func() { _ = l.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.Connect(ctx, cfg.Mongo)
	if err != nil {
		l.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Disconnect(); err != nil {
			l.Warn("mongo disconnect", zap.Error(err))
		}
	}()
	if err := db.EnsureIndexes(ctx); err != nil {
		l.Fatal("failed to create indexes", zap.Error(err))
	}

	limitStore, err := ratelimit.NewStorage(ctx, cfg.Redis)
	if err != nil {
		l.Warn("redis unavailable, rate limiting in memory", zap.Error(err))
		limitStore = nil
	}
	if limitStore != nil {
		defer limitStore.Close()
	}

	h := newHandler(cfg, db)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
		JSONDecoder:  utils.StrictJSONDecoder,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.FrontendURL,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE",
	}))
	app.Use(ratelimit.Middleware(cfg.Limit, limitStore))

	h.Routes(app)

	l.Info("summaries", zap.Bool("enabled", h.Summaries.Enabled()), zap.String("model", cfg.Groq.Model))
	l.Info("mail", zap.Bool("enabled", cfg.SMTP.Enabled()))

	errc := make(chan error, 1)
	go func() {
		l.Info("server starting", zap.String("port", cfg.Port))
		errc <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errc:
		if err != nil && !errors.Is(err, context.Canceled) {
			l.Error("server stopped", zap.Error(err))
		}
	case <-ctx.Done():
		l.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			l.Error("shutdown", zap.Error(err))
		}
	}
}

func newHandler(cfg *config.Config, db *database.DB) *handlers.Handler {
	now := services.Clock(time.Now)

	interviewers := services.NewInterviewerService(db, now)
	managers := services.NewManagerService(db, now)
	companies := services.NewCompanyService(db, now)
	users := services.NewUserService(db, interviewers, managers, companies)

	return &handlers.Handler{
		DB:           db,
		Auth:         services.NewAuthService(db, mailer.New(cfg.SMTP), cfg.JWT.Secret, cfg.JWT.TTL, cfg.AppURL, now),
		Users:        users,
		Interviewers: interviewers,
		Managers:     managers,
		Companies:    companies,
		Replies:      services.NewReplyService(db, interviewers, users, now),
		Stats:        services.NewStatsService(db),
		Summaries:    services.NewSummaryService(cfg.Groq),
		Resources:    services.NewResources(db, now),
		Secret:       cfg.JWT.Secret,
		Timeout:      cfg.RequestTimeout,
	}
}
