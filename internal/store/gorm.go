package store

import (
	"context"
	"errors"
	"time"

	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Gorm is the Postgres-backed Store. The *gorm.DB should be opened with
// TranslateError so unique violations surface as gorm.ErrDuplicatedKey.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func (g *Gorm) Users() UserStore     { return gormUsers{g.db} }
func (g *Gorm) Tokens() TokenStore   { return gormTokens{g.db} }
func (g *Gorm) Phones() PhoneStore   { return gormPhones{g.db} }
func (g *Gorm) Scans() ScanStore     { return gormScans{g.db} }
func (g *Gorm) Alerts() AlertStore   { return gormAlerts{g.db} }
func (g *Gorm) Family() FamilyStore  { return gormFamily{g.db} }
func (g *Gorm) Reports() ReportStore { return gormReports{g.db} }

func (g *Gorm) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Gorm{db: tx})
	})
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

// --- users ---

type gormUsers struct{ db *gorm.DB }

func (s gormUsers) Create(ctx context.Context, user *models.User) error {
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

func (s gormUsers) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s gormUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s gormUsers) Delete(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		scans := tx.Model(&models.ScanRequest{}).Select("id").Where("user_id = ?", id)
		steps := []*gorm.DB{
			tx.Where("user_id = ? OR family_member_id IN (?)", id,
				tx.Model(&models.FamilyMember{}).Select("id").Where("user_id = ? OR linked_user_id = ?", id, id)).
				Delete(&models.Alert{}),
			tx.Where("user_id = ? OR linked_user_id = ?", id, id).Delete(&models.FamilyMember{}),
			tx.Where("scan_request_id IN (?)", scans).Delete(&models.DetectionResult{}),
			tx.Where("user_id = ?", id).Delete(&models.ScanRequest{}),
			tx.Where("user_id = ?", id).Delete(&models.Report{}),
			tx.Where("user_id = ?", id).Delete(&models.SMSLog{}),
			tx.Where("owner_id = ?", id).Delete(&models.PhoneNumber{}),
			tx.Where("user_id = ?", id).Delete(&models.RefreshToken{}),
		}
		for _, step := range steps {
			if step.Error != nil {
				return step.Error
			}
		}
		res := tx.Unscoped().Delete(&models.User{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// --- refresh tokens ---

type gormTokens struct{ db *gorm.DB }

func (s gormTokens) Create(ctx context.Context, token *models.RefreshToken) error {
	return translate(s.db.WithContext(ctx).Create(token).Error)
}

func (s gormTokens) FindActive(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	err := s.db.WithContext(ctx).Where("token_hash = ? AND revoked = false", tokenHash).First(&token).Error
	if err != nil {
		return nil, translate(err)
	}
	return &token, nil
}

func (s gormTokens) Revoke(ctx context.Context, tokenHash string) error {
	return s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ? AND revoked = ?", tokenHash, false).
		Updates(map[string]interface{}{"revoked": true, "revoked_at": time.Now().UTC()}).Error
}

// --- phone numbers ---

type gormPhones struct{ db *gorm.DB }

func (s gormPhones) FindByNumber(ctx context.Context, number string) (*models.PhoneNumber, error) {
	var phone models.PhoneNumber
	if err := s.db.WithContext(ctx).Where("number = ?", number).First(&phone).Error; err != nil {
		return nil, translate(err)
	}
	return &phone, nil
}

func (s gormPhones) FindByID(ctx context.Context, id uuid.UUID) (*models.PhoneNumber, error) {
	var phone models.PhoneNumber
	if err := s.db.WithContext(ctx).First(&phone, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &phone, nil
}

func (s gormPhones) Touch(ctx context.Context, number string, at time.Time) (*models.PhoneNumber, error) {
	res := s.db.WithContext(ctx).Model(&models.PhoneNumber{}).
		Where("number = ?", number).
		UpdateColumn("last_checked", at)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.FindByNumber(ctx, number)
}

func (s gormPhones) Create(ctx context.Context, phone *models.PhoneNumber) error {
	return translate(s.db.WithContext(ctx).Create(phone).Error)
}

func (s gormPhones) CreateIfAbsent(ctx context.Context, phone *models.PhoneNumber) (*models.PhoneNumber, bool, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "number"}}, DoNothing: true}).
		Create(phone)
	if res.Error != nil {
		return nil, false, translate(res.Error)
	}
	if res.RowsAffected == 1 {
		return phone, true, nil
	}
	existing, err := s.FindByNumber(ctx, phone.Number)
	return existing, false, err
}

func (s gormPhones) UpsertFlag(ctx context.Context, seed *models.PhoneNumber, at time.Time) (*models.PhoneNumber, error) {
	seed.IsFlagged = true
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "number"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"is_flagged":  true,
				"flag_reason": seed.FlagReason,
				"risk_score":  seed.RiskScore,
				"updated_at":  at,
			}),
		}).
		Create(seed).Error
	if err != nil {
		return nil, translate(err)
	}
	return s.FindByNumber(ctx, seed.Number)
}

// EscalateFlag resolves insert races in the statement itself: the losing
// insert lands in DO UPDATE, where EXCLUDED is its own row.
func (s gormPhones) EscalateFlag(ctx context.Context, seed *models.PhoneNumber, at time.Time) (*models.PhoneNumber, error) {
	seed.IsFlagged = true
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "number"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"is_flagged":  true,
				"flag_reason": gorm.Expr("CASE WHEN EXCLUDED.risk_score > phone_numbers.risk_score THEN EXCLUDED.flag_reason ELSE phone_numbers.flag_reason END"),
				"risk_score":  gorm.Expr("GREATEST(phone_numbers.risk_score, EXCLUDED.risk_score)"),
				"updated_at":  at,
			}),
		}).
		Create(seed).Error
	if err != nil {
		return nil, translate(err)
	}
	return s.FindByNumber(ctx, seed.Number)
}

// MergeRiskScore relies on Postgres evaluating every SET expression against
// the pre-update row, and on the row lock taken by UPDATE, so concurrent
// merges converge on the maximum.
func (s gormPhones) MergeRiskScore(ctx context.Context, number string, candidate int, at time.Time) (*models.PhoneNumber, error) {
	res := s.db.WithContext(ctx).Exec(
		`UPDATE phone_numbers
		    SET updated_at = CASE WHEN ? > risk_score THEN ? ELSE updated_at END,
		        risk_score = GREATEST(risk_score, ?)
		  WHERE number = ?`,
		candidate, at, candidate, number,
	)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.FindByNumber(ctx, number)
}

func (s gormPhones) ListFlagged(ctx context.Context, limit, offset int) ([]models.PhoneNumber, error) {
	var phones []models.PhoneNumber
	err := s.db.WithContext(ctx).
		Where("is_flagged = ?", true).
		Order("updated_at DESC").
		Scopes(paginate(limit, offset)).
		Find(&phones).Error
	return phones, err
}

func (s gormPhones) Search(ctx context.Context, query string, limit int) ([]models.PhoneNumber, error) {
	var phones []models.PhoneNumber
	like := "%" + query + "%"
	err := s.db.WithContext(ctx).
		Where("number LIKE ? OR info ILIKE ? OR origin ILIKE ?", like, like, like).
		Order("updated_at DESC").
		Scopes(paginate(limit, 0)).
		Find(&phones).Error
	return phones, err
}

func (s gormPhones) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.PhoneNumber, error) {
	var phones []models.PhoneNumber
	err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&phones).Error
	return phones, err
}

// --- scans ---

type gormScans struct{ db *gorm.DB }

func (s gormScans) CreateRequest(ctx context.Context, req *models.ScanRequest) error {
	return translate(s.db.WithContext(ctx).Create(req).Error)
}

func (s gormScans) SetStatus(ctx context.Context, id uuid.UUID, status models.ScanStatus, completedAt *time.Time) error {
	res := s.db.WithContext(ctx).Model(&models.ScanRequest{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "completed_at": completedAt})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s gormScans) CreateResult(ctx context.Context, result *models.DetectionResult) error {
	return translate(s.db.WithContext(ctx).Create(result).Error)
}

func (s gormScans) ListRequests(ctx context.Context, userID uuid.UUID, limit int) ([]models.ScanRequest, error) {
	var reqs []models.ScanRequest
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("timestamp DESC").Scopes(paginate(limit, 0)).Find(&reqs).Error
	return reqs, err
}

func (s gormScans) CountRequests(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.ScanRequest{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func (s gormScans) CountResults(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.DetectionResult{}).
		Joins("JOIN scan_requests ON scan_requests.id = scam_detection_results.scan_request_id").
		Where("scan_requests.user_id = ?", userID).
		Count(&n).Error
	return n, err
}

// --- alerts ---

type gormAlerts struct{ db *gorm.DB }

func (s gormAlerts) Create(ctx context.Context, alert *models.Alert) error {
	return translate(s.db.WithContext(ctx).Create(alert).Error)
}

func (s gormAlerts) find(ctx context.Context, id, userID uuid.UUID) (*models.Alert, error) {
	var alert models.Alert
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&alert).Error; err != nil {
		return nil, translate(err)
	}
	return &alert, nil
}

func (s gormAlerts) MarkRead(ctx context.Context, id, userID uuid.UUID) (*models.Alert, error) {
	err := s.db.WithContext(ctx).Model(&models.Alert{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true).Error
	if err != nil {
		return nil, err
	}
	return s.find(ctx, id, userID)
}

func (s gormAlerts) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Alert{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (s gormAlerts) Acknowledge(ctx context.Context, id, userID uuid.UUID, at time.Time) (*models.Alert, error) {
	err := s.db.WithContext(ctx).Model(&models.Alert{}).
		Where("id = ? AND user_id = ? AND is_acknowledged = ?", id, userID, false).
		Updates(map[string]interface{}{
			"is_acknowledged": true,
			"acknowledged_at": at,
			"acknowledged_by": userID,
		}).Error
	if err != nil {
		return nil, err
	}
	return s.find(ctx, id, userID)
}

func (s gormAlerts) Delete(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Alert{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s gormAlerts) filtered(ctx context.Context, f AlertFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.Alert{}).Where("user_id = ?", f.UserID)
	if f.UnreadOnly {
		q = q.Where("is_read = ?", false)
	}
	if f.UnacknowledgedOnly {
		q = q.Where("is_acknowledged = ?", false)
	}
	if f.Severity != "" {
		q = q.Where("severity = ?", f.Severity)
	}
	return q
}

func (s gormAlerts) List(ctx context.Context, f AlertFilter) ([]models.Alert, error) {
	var alerts []models.Alert
	err := s.filtered(ctx, f).Order("created_at DESC").Scopes(paginate(f.Limit, f.Offset)).Find(&alerts).Error
	return alerts, err
}

func (s gormAlerts) Count(ctx context.Context, f AlertFilter) (int64, error) {
	var n int64
	err := s.filtered(ctx, f).Count(&n).Error
	return n, err
}

// --- family ---

type gormFamily struct{ db *gorm.DB }

func (s gormFamily) Create(ctx context.Context, link *models.FamilyMember) error {
	return translate(s.db.WithContext(ctx).Omit("User", "LinkedUser").Create(link).Error)
}

func (s gormFamily) Find(ctx context.Context, primaryID, linkedID uuid.UUID) (*models.FamilyMember, error) {
	var link models.FamilyMember
	err := s.db.WithContext(ctx).Where("user_id = ? AND linked_user_id = ?", primaryID, linkedID).First(&link).Error
	if err != nil {
		return nil, translate(err)
	}
	return &link, nil
}

func (s gormFamily) Delete(ctx context.Context, primaryID, linkedID uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND linked_user_id = ?", primaryID, linkedID).
		Delete(&models.FamilyMember{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s gormFamily) SetNotify(ctx context.Context, primaryID, linkedID uuid.UUID, notify bool) (*models.FamilyMember, error) {
	res := s.db.WithContext(ctx).Model(&models.FamilyMember{}).
		Where("user_id = ? AND linked_user_id = ?", primaryID, linkedID).
		Update("notify_on_alert", notify)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.Find(ctx, primaryID, linkedID)
}

func (s gormFamily) ListNotifiable(ctx context.Context, primaryID uuid.UUID) ([]models.FamilyMember, error) {
	var links []models.FamilyMember
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND notify_on_alert = ?", primaryID, true).
		Order("created_at ASC").
		Find(&links).Error
	return links, err
}

func (s gormFamily) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.FamilyMember, error) {
	var links []models.FamilyMember
	err := s.db.WithContext(ctx).
		Where("user_id = ? OR linked_user_id = ?", userID, userID).
		Order("created_at ASC").
		Find(&links).Error
	return links, err
}

// --- reports ---

type gormReports struct{ db *gorm.DB }

func (s gormReports) Create(ctx context.Context, report *models.Report) error {
	return translate(s.db.WithContext(ctx).Create(report).Error)
}

func (s gormReports) CreateSMS(ctx context.Context, sms *models.SMSLog) error {
	return translate(s.db.WithContext(ctx).Create(sms).Error)
}

func (s gormReports) FindByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	var report models.Report
	if err := s.db.WithContext(ctx).First(&report, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &report, nil
}

func (s gormReports) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Report, error) {
	var reports []models.Report
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scopes(paginate(limit, offset)).
		Find(&reports).Error
	return reports, err
}

func (s gormReports) ListByType(ctx context.Context, reportType string, limit, offset int) ([]models.Report, error) {
	var reports []models.Report
	err := s.db.WithContext(ctx).
		Where("report_type = ?", reportType).
		Order("created_at DESC").
		Scopes(paginate(limit, offset)).
		Find(&reports).Error
	return reports, err
}

func (s gormReports) UpdateStatus(ctx context.Context, id uuid.UUID, status, notes string, resolvedAt *time.Time, at time.Time) (*models.Report, error) {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": at,
	}
	if notes != "" {
		updates["admin_notes"] = notes
	}
	if resolvedAt != nil {
		updates["resolved_at"] = *resolvedAt
	}
	res := s.db.WithContext(ctx).Model(&models.Report{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.FindByID(ctx, id)
}

// paginate applies limit and offset only when positive.
func paginate(limit, offset int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if limit > 0 {
			db = db.Limit(limit)
		}
		if offset > 0 {
			db = db.Offset(offset)
		}
		return db
	}
}
