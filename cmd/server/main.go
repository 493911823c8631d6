package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/notify"
	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/scoring"
	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/store"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Database
	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(db)
	logging.Setup(pgLogHandler)

	cleanupDone := make(chan struct{})
	logging.StartCleanup(db, cfg.LogRetentionDays, cleanupDone)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Alert event bus is optional; without REDIS_ADDR alerts are only stored.
	var publisher notify.Publisher = notify.NopPublisher{}
	redisClient, err := notify.NewRedisClient(context.Background(), cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		slog.Warn("redis unavailable, alert publishing disabled", "addr", cfg.RedisAddr, "error", err)
	} else if redisClient != nil {
		publisher = notify.NewRedisPublisher(redisClient)
		slog.Info("alert publishing enabled", "addr", cfg.RedisAddr)
	}

	// Services
	st := store.NewGorm(db)
	scorer := scoring.New(cfg)
	phones := services.NewPhoneRegistry(st, cfg.Scoring.DefaultRegion)
	alerts := services.NewAlertManager(st, publisher, cfg.Scoring)
	family := services.NewFamilyLinkRegistry(st)
	detection := services.NewDetectionOrchestrator(st, phones, scorer, alerts, cfg.Scoring)
	reports := services.NewReportService(st, phones)
	authService := services.NewAuthService(st, cfg)
	slog.Info("risk scorer ready", "scorer", cfg.RiskScorer, "provider", cfg.AIProvider)

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: handlers.ErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	routes.Setup(app, cfg, st, routes.Handlers{
		Auth:      handlers.NewAuthHandler(authService),
		Health:    handlers.NewHealthHandler(database.Pinger(db), cfg.RiskScorer),
		Phone:     handlers.NewPhoneHandler(phones),
		Detection: handlers.NewDetectionHandler(detection),
		Alert:     handlers.NewAlertHandler(alerts),
		Family:    handlers.NewFamilyHandler(family),
		Report:    handlers.NewReportHandler(reports),
	}, routes.DefaultLimits)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			slog.Error("redis close error", "error", err)
		}
	}

	// Close database connections
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}
