package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/dto"
)

type HealthHandler struct {
	ping   func() error
	scorer string
}

// NewHealthHandler reports the database through ping and names the active
// risk scorer.
func NewHealthHandler(ping func() error, scorer string) *HealthHandler {
	return &HealthHandler{ping: ping, scorer: scorer}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	dbStatus := "ok"
	if h.ping != nil {
		if err := h.ping(); err != nil {
			dbStatus = "unhealthy: " + err.Error()
		}
	}

	return c.JSON(dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
		Scorer:    h.scorer,
	})
}
