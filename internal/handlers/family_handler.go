package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/services"
)

// FamilyHandler serves the caller's side of a family link: the caller is
// the family member, :elderly_id is the protected account.
type FamilyHandler struct {
	family *services.FamilyLinkRegistry
}

func NewFamilyHandler(family *services.FamilyLinkRegistry) *FamilyHandler {
	return &FamilyHandler{family: family}
}

func (h *FamilyHandler) Link(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req dto.LinkFamilyRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	link, err := h.family.Link(c.UserContext(), req.ElderlyUserID, userID, services.LinkDetails{
		Name:         req.Name,
		Relationship: req.Relationship,
		PhoneNumber:  req.PhoneNumber,
		Email:        req.Email,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(link)
}

func (h *FamilyHandler) Status(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	elderlyID, err := paramUUID(c, "elderly_id")
	if err != nil {
		return err
	}

	st, err := h.family.Status(c.UserContext(), elderlyID, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(st)
}

func (h *FamilyHandler) Unlink(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	elderlyID, err := paramUUID(c, "elderly_id")
	if err != nil {
		return err
	}

	if err := h.family.Unlink(c.UserContext(), elderlyID, userID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Family link removed"})
}

func (h *FamilyHandler) List(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	links, err := h.family.ListLinks(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	if links == nil {
		links = []models.FamilyMember{}
	}
	return c.JSON(links)
}

func (h *FamilyHandler) SetNotify(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	elderlyID, err := paramUUID(c, "elderly_id")
	if err != nil {
		return err
	}

	var req dto.SetNotifyRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	link, err := h.family.SetNotify(c.UserContext(), elderlyID, userID, *req.NotifyOnAlert)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(link)
}
