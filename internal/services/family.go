package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/store"
)

// FamilyLinkRegistry links an elderly (primary) account to family accounts
// that receive copies of its alerts.
type FamilyLinkRegistry struct {
	store store.Store
}

func NewFamilyLinkRegistry(st store.Store) *FamilyLinkRegistry {
	return &FamilyLinkRegistry{store: st}
}

// LinkDetails is the descriptive part of a new link.
type LinkDetails struct {
	Name         string
	Relationship string
	PhoneNumber  string
	Email        string
}

func (f *FamilyLinkRegistry) Link(ctx context.Context, primaryID, linkedID uuid.UUID, details LinkDetails) (*models.FamilyMember, error) {
	if primaryID == linkedID {
		return nil, ErrSelfLink
	}

	primary, err := f.store.Users().FindByID(ctx, primaryID)
	if isNotFound(err) {
		return nil, ErrLinkUserMissing
	}
	if err != nil {
		return nil, storeErr("find primary user", err)
	}
	if !primary.IsElderly {
		return nil, ErrNotElderly
	}
	if _, err := f.store.Users().FindByID(ctx, linkedID); err != nil {
		if isNotFound(err) {
			return nil, ErrLinkUserMissing
		}
		return nil, storeErr("find linked user", err)
	}

	link := &models.FamilyMember{
		UserID:           primaryID,
		LinkedUserID:     linkedID,
		Name:             details.Name,
		Relationship:     details.Relationship,
		PhoneNumber:      details.PhoneNumber,
		Email:            details.Email,
		NotifyOnAlert:    true,
		IsPrimaryContact: true,
	}
	if err := f.store.Family().Create(ctx, link); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrFamilyLinkExists
		}
		return nil, storeErr("create family link", err)
	}
	return link, nil
}

func (f *FamilyLinkRegistry) Status(ctx context.Context, primaryID, linkedID uuid.UUID) (dto.FamilyLinkStatus, error) {
	link, err := f.store.Family().Find(ctx, primaryID, linkedID)
	if isNotFound(err) {
		return dto.FamilyLinkStatus{}, nil
	}
	if err != nil {
		return dto.FamilyLinkStatus{}, storeErr("find family link", err)
	}
	id, notify := link.ID, link.NotifyOnAlert
	return dto.FamilyLinkStatus{Linked: true, LinkID: &id, NotifyOnAlert: &notify}, nil
}

func (f *FamilyLinkRegistry) Unlink(ctx context.Context, primaryID, linkedID uuid.UUID) error {
	err := f.store.Family().Delete(ctx, primaryID, linkedID)
	if isNotFound(err) {
		return ErrFamilyLinkNotFound
	}
	return storeErr("delete family link", err)
}

// ListLinks returns links where userID is either side.
func (f *FamilyLinkRegistry) ListLinks(ctx context.Context, userID uuid.UUID) ([]models.FamilyMember, error) {
	links, err := f.store.Family().ListForUser(ctx, userID)
	return links, storeErr("list family links", err)
}

func (f *FamilyLinkRegistry) SetNotify(ctx context.Context, primaryID, linkedID uuid.UUID, notify bool) (*models.FamilyMember, error) {
	link, err := f.store.Family().SetNotify(ctx, primaryID, linkedID, notify)
	if isNotFound(err) {
		return nil, ErrFamilyLinkNotFound
	}
	return link, storeErr("update family link", err)
}
