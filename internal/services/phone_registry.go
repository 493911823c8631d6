package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/scoring"
	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/store"
)

const (
	// maxKeyDigits is the E.164 limit on a full international number.
	maxKeyDigits        = 15
	defaultFlagScore    = 50
	maxListLimit        = 100
	phoneNotFoundNotice = "Phone number not found in database."
)

// PhoneRegistry owns lookup, creation and flagging of phone records keyed
// by the normalized number.
type PhoneRegistry struct {
	store  store.Store
	region string
	now    func() time.Time
}

func NewPhoneRegistry(st store.Store, defaultRegion string) *PhoneRegistry {
	return &PhoneRegistry{store: st, region: defaultRegion, now: time.Now}
}

// WithStore returns a copy bound to st, typically a transaction.
func (r *PhoneRegistry) WithStore(st store.Store) *PhoneRegistry {
	cp := *r
	cp.store = st
	return &cp
}

func (r *PhoneRegistry) Normalize(raw string) string {
	return scoring.Normalize(raw)
}

func (r *PhoneRegistry) key(raw string) (string, error) {
	key := scoring.Normalize(raw)
	digits := strings.TrimPrefix(key, "+")
	if digits == "" || len(digits) > maxKeyDigits {
		return "", ErrInvalidPhone
	}
	return key, nil
}

// Lookup returns the record for key and refreshes its last_checked.
func (r *PhoneRegistry) Lookup(ctx context.Context, key string) (*models.PhoneNumber, error) {
	phone, err := r.store.Phones().Touch(ctx, key, r.now().UTC())
	if isNotFound(err) {
		return nil, ErrPhoneNotFound
	}
	if err != nil {
		return nil, storeErr("lookup phone", err)
	}
	return phone, nil
}

// Check is the caller-facing lookup: a miss is a result, not an error.
func (r *PhoneRegistry) Check(ctx context.Context, raw string) (dto.PhoneCheckResult, error) {
	key, err := r.key(raw)
	if err != nil {
		return dto.PhoneCheckResult{}, err
	}
	phone, err := r.Lookup(ctx, key)
	if errors.Is(err, ErrPhoneNotFound) {
		return notFoundResult(key), nil
	}
	if err != nil {
		return dto.PhoneCheckResult{}, err
	}
	return checkResult(phone), nil
}

// CreateOrGetByKey inserts defaults under key unless the number exists and
// reports whether a row was created.
func (r *PhoneRegistry) CreateOrGetByKey(ctx context.Context, key string, defaults models.PhoneNumber) (*models.PhoneNumber, bool, error) {
	defaults.Number = key
	r.fillCountry(&defaults)
	phone, created, err := r.store.Phones().CreateIfAbsent(ctx, &defaults)
	if err != nil {
		return nil, false, storeErr("create phone", err)
	}
	return phone, created, nil
}

// Add is the strict insert used by the "add phone" operation.
func (r *PhoneRegistry) Add(ctx context.Context, req dto.AddPhoneRequest, ownerID *uuid.UUID) (*models.PhoneNumber, error) {
	key, err := r.key(req.PhoneNumber)
	if err != nil {
		return nil, err
	}
	phone := &models.PhoneNumber{
		Number:      key,
		CountryCode: req.CountryCode,
		Info:        req.Info,
		Origin:      req.Origin,
		OwnerID:     ownerID,
	}
	r.fillCountry(phone)

	if err := r.store.Phones().Create(ctx, phone); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrDuplicatePhone
		}
		return nil, storeErr("add phone", err)
	}
	return phone, nil
}

// Flag upserts flagged state. Reason and score replace what was stored.
func (r *PhoneRegistry) Flag(ctx context.Context, raw, reason string, score int) (*models.PhoneNumber, error) {
	key, err := r.key(raw)
	if err != nil {
		return nil, err
	}
	seed := &models.PhoneNumber{
		Number:     key,
		FlagReason: reason,
		RiskScore:  clampScore(score),
	}
	r.fillCountry(seed)

	phone, err := r.store.Phones().UpsertFlag(ctx, seed, r.now().UTC())
	if err != nil {
		return nil, storeErr("flag phone", err)
	}
	slog.Info("phone flagged", "phone", key, "risk_score", phone.RiskScore)
	return phone, nil
}

// Escalate flags key on behalf of a detection. Unlike Flag it never lowers
// a stored score, including when two first sightings race on the insert.
func (r *PhoneRegistry) Escalate(ctx context.Context, key, reason string, score int) (*models.PhoneNumber, error) {
	seed := &models.PhoneNumber{
		Number:     key,
		FlagReason: reason,
		RiskScore:  clampScore(score),
	}
	r.fillCountry(seed)

	phone, err := r.store.Phones().EscalateFlag(ctx, seed, r.now().UTC())
	if err != nil {
		return nil, storeErr("escalate phone", err)
	}
	slog.Info("phone escalated", "phone", key, "risk_score", phone.RiskScore)
	return phone, nil
}

// MergeRiskScore raises the stored score to candidate, never lowering it.
func (r *PhoneRegistry) MergeRiskScore(ctx context.Context, key string, candidate int) (*models.PhoneNumber, error) {
	phone, err := r.store.Phones().MergeRiskScore(ctx, key, clampScore(candidate), r.now().UTC())
	if isNotFound(err) {
		return nil, ErrPhoneNotFound
	}
	if err != nil {
		return nil, storeErr("merge risk score", err)
	}
	return phone, nil
}

func (r *PhoneRegistry) ListFlagged(ctx context.Context, limit, offset int) ([]models.PhoneNumber, error) {
	phones, err := r.store.Phones().ListFlagged(ctx, listLimit(limit), max(offset, 0))
	return phones, storeErr("list flagged phones", err)
}

func (r *PhoneRegistry) GetByID(ctx context.Context, id uuid.UUID) (*models.PhoneNumber, error) {
	phone, err := r.store.Phones().FindByID(ctx, id)
	if isNotFound(err) {
		return nil, ErrPhoneNotFound
	}
	return phone, storeErr("get phone", err)
}

func (r *PhoneRegistry) Search(ctx context.Context, query string, limit int) ([]models.PhoneNumber, error) {
	if digits := scoring.Normalize(query); len(digits) >= 2 {
		query = digits
	}
	phones, err := r.store.Phones().Search(ctx, query, listLimit(limit))
	return phones, storeErr("search phones", err)
}

func (r *PhoneRegistry) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.PhoneNumber, error) {
	phones, err := r.store.Phones().ListByOwner(ctx, ownerID)
	return phones, storeErr("list owned phones", err)
}

func (r *PhoneRegistry) fillCountry(p *models.PhoneNumber) {
	if p.CountryCode != nil && *p.CountryCode != "" {
		return
	}
	if cc := scoring.CountryCode(p.Number, r.region); cc != "" {
		p.CountryCode = &cc
	}
}

func checkResult(p *models.PhoneNumber) dto.PhoneCheckResult {
	id, created := p.ID, p.CreatedAt
	return dto.PhoneCheckResult{
		Found:       true,
		PhoneNumber: p.Number,
		PhoneID:     &id,
		IsFlagged:   p.IsFlagged,
		FlagReason:  p.FlagReason,
		RiskScore:   p.RiskScore,
		Info:        p.Info,
		Origin:      p.Origin,
		LastChecked: p.LastChecked,
		CreatedAt:   &created,
	}
}

func notFoundResult(key string) dto.PhoneCheckResult {
	return dto.PhoneCheckResult{PhoneNumber: key, Message: phoneNotFoundNotice}
}

func clampScore(v int) int {
	return min(max(v, 0), 100)
}

func listLimit(limit int) int {
	if limit <= 0 || limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
