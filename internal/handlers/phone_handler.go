package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/services"
)

const defaultFlagScore = 50

type PhoneHandler struct {
	phones *services.PhoneRegistry
}

func NewPhoneHandler(phones *services.PhoneRegistry) *PhoneHandler {
	return &PhoneHandler{phones: phones}
}

func (h *PhoneHandler) Check(c *fiber.Ctx) error {
	var req dto.CheckPhoneRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	res, err := h.phones.Check(c.UserContext(), req.PhoneNumber)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

func (h *PhoneHandler) Add(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req dto.AddPhoneRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	phone, err := h.phones.Add(c.UserContext(), req, &userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(phone)
}

// Flag is the operator action behind the admin route.
func (h *PhoneHandler) Flag(c *fiber.Ctx) error {
	var req dto.FlagPhoneRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	score := defaultFlagScore
	if req.RiskScore != nil {
		score = *req.RiskScore
	}

	phone, err := h.phones.Flag(c.UserContext(), req.PhoneNumber, req.Reason, score)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(phone)
}

func (h *PhoneHandler) Flagged(c *fiber.Ctx) error {
	phones, err := h.phones.ListFlagged(c.UserContext(), c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(phones)
}

func (h *PhoneHandler) GetByID(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	phone, err := h.phones.GetByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(phone)
}

func (h *PhoneHandler) Search(c *fiber.Ctx) error {
	var req dto.SearchPhoneRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	phones, err := h.phones.Search(c.UserContext(), req.Query, req.Limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(phones)
}

func (h *PhoneHandler) Mine(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	phones, err := h.phones.ListByOwner(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(phones)
}
