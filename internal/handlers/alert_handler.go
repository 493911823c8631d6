package handlers

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/services"
)

type AlertHandler struct {
	alerts *services.AlertManager
}

func NewAlertHandler(alerts *services.AlertManager) *AlertHandler {
	return &AlertHandler{alerts: alerts}
}

func (h *AlertHandler) List(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	alerts, err := h.alerts.List(c.UserContext(), userID,
		c.QueryInt("limit", 50),
		c.QueryInt("offset", 0),
		c.QueryBool("unread_only", false),
	)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(alertList(alerts))
}

func (h *AlertHandler) UnreadCount(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	n, err := h.alerts.UnreadCount(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.UnreadCountResponse{UnreadCount: n})
}

func (h *AlertHandler) MarkAllRead(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	n, err := h.alerts.MarkAllRead(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MarkAllReadResponse{
		Message: fmt.Sprintf("Marked %d alerts as read", n),
		Updated: n,
	})
}

func (h *AlertHandler) Critical(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	alerts, err := h.alerts.Critical(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(alertList(alerts))
}

func (h *AlertHandler) BySeverity(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	alerts, err := h.alerts.BySeverity(c.UserContext(), userID, c.Params("severity"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(alertList(alerts))
}

func (h *AlertHandler) MarkRead(c *fiber.Ctx) error {
	return h.transition(c, h.alerts.MarkRead)
}

func (h *AlertHandler) Acknowledge(c *fiber.Ctx) error {
	return h.transition(c, h.alerts.Acknowledge)
}

// transition applies an owner-scoped, idempotent state change to one alert.
func (h *AlertHandler) transition(c *fiber.Ctx, apply func(ctx context.Context, alertID, userID uuid.UUID) (*models.Alert, error)) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	alertID, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	alert, err := apply(c.UserContext(), alertID, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(alert)
}

func (h *AlertHandler) Delete(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	alertID, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	deleted, err := h.alerts.Delete(c.UserContext(), alertID, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.DeleteAlertResponse{Deleted: deleted})
}

func alertList(alerts []models.Alert) dto.AlertListResponse {
	if alerts == nil {
		alerts = []models.Alert{}
	}
	return dto.AlertListResponse{Alerts: alerts, Count: len(alerts)}
}
