package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/services"
)

type DetectionHandler struct {
	detection *services.DetectionOrchestrator
}

func NewDetectionHandler(detection *services.DetectionOrchestrator) *DetectionHandler {
	return &DetectionHandler{detection: detection}
}

func (h *DetectionHandler) Detect(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req dto.DetectScamRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	resp, err := h.detection.DetectScam(c.UserContext(), userID, req.PhoneNumber, req.Context)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

func (h *DetectionHandler) BulkCheck(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req dto.BulkCheckRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	return c.JSON(h.detection.BulkDetect(c.UserContext(), userID, req.PhoneNumbers))
}

func (h *DetectionHandler) RiskAssessment(c *fiber.Ctx) error {
	phone, err := paramPath(c, "phone")
	if err != nil {
		return err
	}

	resp, err := h.detection.RiskAssessment(c.UserContext(), phone, c.Query("context"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

func (h *DetectionHandler) History(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	resp, err := h.detection.History(c.UserContext(), userID, c.QueryInt("limit", 10))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

func (h *DetectionHandler) Stats(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	resp, err := h.detection.Stats(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}
