package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/services"
)

type ReportHandler struct {
	reports *services.ReportService
}

func NewReportHandler(reports *services.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func (h *ReportHandler) ReportPhone(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req dto.ReportPhoneRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	report, err := h.reports.ReportPhone(c.UserContext(), userID, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

func (h *ReportHandler) ReportSMS(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req dto.ReportSMSRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	report, err := h.reports.ReportSMS(c.UserContext(), userID, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

func (h *ReportHandler) List(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	reports, err := h.reports.ListReports(c.UserContext(), userID, c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(reportList(reports))
}

// Admin

func (h *ReportHandler) Get(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	report, err := h.reports.GetReport(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

func (h *ReportHandler) ListByType(c *fiber.Ctx) error {
	reports, err := h.reports.ListByType(c.UserContext(), c.Params("type"), c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(reportList(reports))
}

func (h *ReportHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	var req dto.UpdateReportStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	report, err := h.reports.UpdateStatus(c.UserContext(), id, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

func reportList(reports []models.Report) []models.Report {
	if reports == nil {
		return []models.Report{}
	}
	return reports
}
