package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/store"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	Health    *handlers.HealthHandler
	Phone     *handlers.PhoneHandler
	Detection *handlers.DetectionHandler
	Alert     *handlers.AlertHandler
	Family    *handlers.FamilyHandler
	Report    *handlers.ReportHandler
}

// Limits is requests per minute per IP. Zero disables a limiter.
type Limits struct {
	API  int
	Auth int
}

var DefaultLimits = Limits{API: 60, Auth: 10}

func Setup(app *fiber.App, cfg *config.Config, st store.Store, h Handlers, limits Limits) {
	api := app.Group("/api")

	if limits.API > 0 {
		api.Use(perIPLimiter(limits.API))
	}

	api.Get("/health", h.Health.Check)

	// Auth-specific rate limit is stricter than the API one.
	auth := api.Group("/auth")
	if limits.Auth > 0 {
		auth.Use(perIPLimiter(limits.Auth))
	}
	auth.Post("/register", h.Auth.Register)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/refresh", h.Auth.Refresh)

	// JWT is applied per route/group so public routes stay public.
	jwt := middleware.JWTProtected(cfg)
	api.Post("/auth/logout", jwt, h.Auth.Logout)
	api.Delete("/auth/account", jwt, h.Auth.DeleteAccount)
	api.Get("/auth/me", jwt, h.Auth.Me)

	detect := api.Group("/scam-detection", jwt)
	detect.Post("/detect", h.Detection.Detect)
	detect.Post("/bulk-check", h.Detection.BulkCheck)
	detect.Get("/risk-assessment/:phone", h.Detection.RiskAssessment)
	detect.Get("/history", h.Detection.History)
	detect.Get("/stats", h.Detection.Stats)

	phone := api.Group("/phone", jwt)
	phone.Post("/check", h.Phone.Check)
	phone.Post("/add", h.Phone.Add)
	phone.Post("/search", h.Phone.Search)
	phone.Get("/flagged", h.Phone.Flagged)
	phone.Get("/mine", h.Phone.Mine)
	phone.Get("/:id", h.Phone.GetByID)

	alerts := api.Group("/alerts", jwt)
	alerts.Get("/", h.Alert.List)
	alerts.Get("/unread-count", h.Alert.UnreadCount)
	alerts.Get("/critical", h.Alert.Critical)
	alerts.Get("/severity/:severity", h.Alert.BySeverity)
	alerts.Put("/mark-all-read", h.Alert.MarkAllRead)
	alerts.Put("/:id/read", h.Alert.MarkRead)
	alerts.Put("/:id/acknowledge", h.Alert.Acknowledge)
	alerts.Delete("/:id", h.Alert.Delete)

	family := api.Group("/family", jwt)
	family.Post("/link", h.Family.Link)
	family.Get("/links", h.Family.List)
	family.Get("/link/:elderly_id", h.Family.Status)
	family.Delete("/link/:elderly_id", h.Family.Unlink)
	family.Put("/link/:elderly_id/notify", h.Family.SetNotify)

	reports := api.Group("/reports", jwt)
	reports.Post("/phone", h.Report.ReportPhone)
	reports.Post("/sms", h.Report.ReportSMS)
	reports.Get("/", h.Report.List)

	admin := api.Group("/admin", jwt, middleware.AdminRequired(st, cfg))
	admin.Post("/phone/flag", h.Phone.Flag)
	admin.Get("/reports/type/:type", h.Report.ListByType)
	admin.Get("/reports/:id", h.Report.Get)
	admin.Put("/reports/:id/status", h.Report.UpdateStatus)
}

func perIPLimiter(perMinute int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               perMinute,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	})
}
