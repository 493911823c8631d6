// Package store defines the persistence ports used by the services, with a
// GORM/Postgres implementation and an in-memory implementation.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/models"
	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
)

// Store groups the per-entity stores. Transaction runs fn in one unit of
// work: everything fn writes through tx is committed together or not at
// all. Nested calls create savepoints, so an inner failure does not abort
// the outer unit.
type Store interface {
	Users() UserStore
	Tokens() TokenStore
	Phones() PhoneStore
	Scans() ScanStore
	Alerts() AlertStore
	Family() FamilyStore
	Reports() ReportStore
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// Delete removes the user and everything the user owns.
	Delete(ctx context.Context, id uuid.UUID) error
}

type TokenStore interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	FindActive(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, tokenHash string) error
}

type PhoneStore interface {
	FindByNumber(ctx context.Context, number string) (*models.PhoneNumber, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.PhoneNumber, error)
	// Touch sets last_checked on an existing record and returns it.
	Touch(ctx context.Context, number string, at time.Time) (*models.PhoneNumber, error)
	// Create is a strict insert; ErrDuplicate when the number exists.
	Create(ctx context.Context, phone *models.PhoneNumber) error
	// CreateIfAbsent inserts phone unless its number exists and returns the
	// stored row either way.
	CreateIfAbsent(ctx context.Context, phone *models.PhoneNumber) (*models.PhoneNumber, bool, error)
	// UpsertFlag marks the number flagged, replacing reason and score.
	UpsertFlag(ctx context.Context, seed *models.PhoneNumber, at time.Time) (*models.PhoneNumber, error)
	// EscalateFlag marks the number flagged and sets
	// risk_score = max(risk_score, seed.RiskScore). The reason is replaced
	// only when the score rises.
	EscalateFlag(ctx context.Context, seed *models.PhoneNumber, at time.Time) (*models.PhoneNumber, error)
	// MergeRiskScore atomically sets risk_score = max(risk_score, candidate).
	MergeRiskScore(ctx context.Context, number string, candidate int, at time.Time) (*models.PhoneNumber, error)
	ListFlagged(ctx context.Context, limit, offset int) ([]models.PhoneNumber, error)
	Search(ctx context.Context, query string, limit int) ([]models.PhoneNumber, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.PhoneNumber, error)
}

type ScanStore interface {
	CreateRequest(ctx context.Context, req *models.ScanRequest) error
	SetStatus(ctx context.Context, id uuid.UUID, status models.ScanStatus, completedAt *time.Time) error
	CreateResult(ctx context.Context, result *models.DetectionResult) error
	ListRequests(ctx context.Context, userID uuid.UUID, limit int) ([]models.ScanRequest, error)
	CountRequests(ctx context.Context, userID uuid.UUID) (int64, error)
	CountResults(ctx context.Context, userID uuid.UUID) (int64, error)
}

// AlertFilter selects a user's alerts. Results are ordered newest first.
type AlertFilter struct {
	UserID             uuid.UUID
	UnreadOnly         bool
	UnacknowledgedOnly bool
	Severity           models.Severity
	Limit              int
	Offset             int
}

type AlertStore interface {
	Create(ctx context.Context, alert *models.Alert) error
	// MarkRead and Acknowledge only touch alerts owned by userID and return
	// ErrNotFound otherwise. Acknowledge keeps the first acknowledgement.
	MarkRead(ctx context.Context, id, userID uuid.UUID) (*models.Alert, error)
	Acknowledge(ctx context.Context, id, userID uuid.UUID, at time.Time) (*models.Alert, error)
	// MarkAllRead marks every unread alert of userID read and returns how
	// many changed.
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id, userID uuid.UUID) (bool, error)
	List(ctx context.Context, filter AlertFilter) ([]models.Alert, error)
	Count(ctx context.Context, filter AlertFilter) (int64, error)
}

type FamilyStore interface {
	Create(ctx context.Context, link *models.FamilyMember) error
	Find(ctx context.Context, primaryID, linkedID uuid.UUID) (*models.FamilyMember, error)
	Delete(ctx context.Context, primaryID, linkedID uuid.UUID) error
	SetNotify(ctx context.Context, primaryID, linkedID uuid.UUID, notify bool) (*models.FamilyMember, error)
	ListNotifiable(ctx context.Context, primaryID uuid.UUID) ([]models.FamilyMember, error)
	// ListForUser returns links where the user is either side.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.FamilyMember, error)
}

type ReportStore interface {
	Create(ctx context.Context, report *models.Report) error
	CreateSMS(ctx context.Context, sms *models.SMSLog) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Report, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Report, error)
	ListByType(ctx context.Context, reportType string, limit, offset int) ([]models.Report, error)
	// UpdateStatus sets status, replaces admin notes when notes is non-empty
	// and sets resolved_at when resolvedAt is non-nil.
	UpdateStatus(ctx context.Context, id uuid.UUID, status, notes string, resolvedAt *time.Time, at time.Time) (*models.Report, error)
}
