package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/store"
)

const (
	reportOrigin    = "user_report"
	smsReportOrigin = "sms_report"
	smsReportReason = "Reported for suspicious messages"
)

type ReportService struct {
	store  store.Store
	phones *PhoneRegistry
	now    func() time.Time
}

func NewReportService(st store.Store, phones *PhoneRegistry) *ReportService {
	return &ReportService{store: st, phones: phones, now: time.Now}
}

// ReportPhone records a user report, creating the phone record on first
// sighting. A record created this way is not flagged.
func (s *ReportService) ReportPhone(ctx context.Context, userID uuid.UUID, req dto.ReportPhoneRequest) (*models.Report, error) {
	key, err := s.phones.key(req.PhoneNumber)
	if err != nil {
		return nil, err
	}

	var report *models.Report
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		info := "Reported by user " + userID.String()
		origin := reportOrigin
		phone, _, err := s.phones.WithStore(tx).CreateOrGetByKey(ctx, key, models.PhoneNumber{
			Info:      &info,
			Origin:    &origin,
			IsFlagged: false,
			RiskScore: defaultFlagScore,
		})
		if err != nil {
			return err
		}

		phoneID := phone.ID
		report = &models.Report{
			UserID:          userID,
			ReportType:      models.ReportPhone,
			Reason:          req.Reason,
			Status:          models.ReportPending,
			Priority:        priorityOrDefault(req.Priority),
			ReportedPhoneID: &phoneID,
		}
		return storeErr("create report", tx.Reports().Create(ctx, report))
	})
	if err != nil {
		return nil, err
	}
	slog.Info("phone reported", "action", "report_phone", "user_id", userID.String(), "phone", key)
	return report, nil
}

// ReportSMS reports the sender of a suspicious message. The sender's record
// is created unflagged on first sighting; the message body, when given, is
// kept as an SMS log the report points to.
func (s *ReportService) ReportSMS(ctx context.Context, userID uuid.UUID, req dto.ReportSMSRequest) (*models.Report, error) {
	key, err := s.phones.key(req.SenderPhone)
	if err != nil {
		return nil, err
	}

	var report *models.Report
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		info := "Reported for suspicious messages by user " + userID.String()
		origin := smsReportOrigin
		phone, _, err := s.phones.WithStore(tx).CreateOrGetByKey(ctx, key, models.PhoneNumber{
			Info:       &info,
			Origin:     &origin,
			IsFlagged:  false,
			FlagReason: smsReportReason,
			RiskScore:  defaultFlagScore,
		})
		if err != nil {
			return err
		}

		phoneID := phone.ID
		report = &models.Report{
			UserID:          userID,
			ReportType:      models.ReportSMS,
			Reason:          req.Reason,
			Status:          models.ReportPending,
			Priority:        priorityOrDefault(req.Priority),
			ReportedPhoneID: &phoneID,
		}

		if req.MessageBody != "" {
			sms := &models.SMSLog{
				UserID:      userID,
				PhoneID:     &phoneID,
				Sender:      key,
				MessageBody: req.MessageBody,
				MessageType: "incoming",
				RiskScore:   defaultFlagScore,
			}
			if err := tx.Reports().CreateSMS(ctx, sms); err != nil {
				return storeErr("create sms log", err)
			}
			report.ReportedSMSID = &sms.ID
		}
		return storeErr("create report", tx.Reports().Create(ctx, report))
	})
	if err != nil {
		return nil, err
	}
	slog.Info("sms sender reported", "action", "report_sms", "user_id", userID.String(), "phone", key)
	return report, nil
}

func (s *ReportService) ListReports(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Report, error) {
	reports, err := s.store.Reports().ListByUser(ctx, userID, listLimit(limit), max(offset, 0))
	return reports, storeErr("list reports", err)
}

func (s *ReportService) GetReport(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	report, err := s.store.Reports().FindByID(ctx, id)
	if isNotFound(err) {
		return nil, ErrReportNotFound
	}
	return report, storeErr("get report", err)
}

func (s *ReportService) ListByType(ctx context.Context, reportType string, limit, offset int) ([]models.Report, error) {
	if !models.ValidReportType(reportType) {
		return nil, ErrInvalidReport
	}
	reports, err := s.store.Reports().ListByType(ctx, reportType, listLimit(limit), max(offset, 0))
	return reports, storeErr("list reports by type", err)
}

// UpdateStatus moves a report through review. Resolving or dismissing it
// stamps resolved_at; empty notes keep the existing ones.
func (s *ReportService) UpdateStatus(ctx context.Context, id uuid.UUID, req dto.UpdateReportStatusRequest) (*models.Report, error) {
	now := s.now().UTC()
	var resolvedAt *time.Time
	if models.ReportClosed(req.Status) {
		resolvedAt = &now
	}

	report, err := s.store.Reports().UpdateStatus(ctx, id, req.Status, req.AdminNotes, resolvedAt, now)
	if isNotFound(err) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, storeErr("update report status", err)
	}
	slog.Info("report status updated", "action", "update_report", "report_id", id.String(), "status", req.Status)
	return report, nil
}

func priorityOrDefault(p string) string {
	if p == "" {
		return "medium"
	}
	return p
}
