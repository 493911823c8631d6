package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/notify"
	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/store"
)

// AlertManager creates alerts, derives severity, handles read and
// acknowledge transitions, and fans alerts out to linked family accounts.
type AlertManager struct {
	store     store.Store
	publisher notify.Publisher
	cfg       config.ScoringConfig
	now       func() time.Time

	// outbox holds alerts created inside a transaction until Flush.
	outbox *[]models.Alert
}

func NewAlertManager(st store.Store, publisher notify.Publisher, cfg config.ScoringConfig) *AlertManager {
	if publisher == nil {
		publisher = notify.NopPublisher{}
	}
	return &AlertManager{store: st, publisher: publisher, cfg: cfg, now: time.Now}
}

// WithStore binds the manager to a transaction. Alerts created through the
// returned manager are published only when Flush is called after commit.
func (m *AlertManager) WithStore(st store.Store) *AlertManager {
	cp := *m
	cp.store = st
	cp.outbox = &[]models.Alert{}
	return &cp
}

// Flush publishes alerts buffered by a transaction-bound manager.
func (m *AlertManager) Flush(ctx context.Context) {
	if m.outbox == nil {
		return
	}
	pending := *m.outbox
	*m.outbox = nil
	m.publish(ctx, pending...)
}

func (m *AlertManager) SeverityFor(riskScore int) models.Severity {
	switch {
	case riskScore >= m.cfg.CriticalAt:
		return models.SeverityCritical
	case riskScore >= m.cfg.HighAt:
		return models.SeverityHigh
	case riskScore >= m.cfg.MediumAt:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

func (m *AlertManager) CreateScamAlert(ctx context.Context, userID uuid.UUID, phoneKey string, riskScore int, detectionResultID uuid.UUID, message string) (*models.Alert, error) {
	if message == "" {
		message = fmt.Sprintf("Possible scam call detected from %s", phoneKey)
	}
	return m.create(ctx, &models.Alert{
		UserID:            userID,
		DetectionResultID: detectionResultID,
		AlertType:         models.AlertScamDetected,
		Severity:          m.SeverityFor(riskScore),
		Message:           message,
	})
}

func (m *AlertManager) CreateSuspiciousActivityAlert(ctx context.Context, userID uuid.UUID, description string, detectionResultID uuid.UUID) (*models.Alert, error) {
	return m.create(ctx, &models.Alert{
		UserID:            userID,
		DetectionResultID: detectionResultID,
		AlertType:         models.AlertSuspiciousActivity,
		Severity:          models.SeverityMedium,
		Message:           "Suspicious activity detected: " + description,
	})
}

// create persists the primary alert and then fans out. Fan-out errors are
// logged and reported, never returned.
func (m *AlertManager) create(ctx context.Context, alert *models.Alert) (*models.Alert, error) {
	alert.CreatedAt = m.now().UTC()
	if err := m.store.Alerts().Create(ctx, alert); err != nil {
		return nil, storeErr("create alert", err)
	}
	m.emit(ctx, *alert)

	secondary, err := m.NotifyFamily(ctx, alert.UserID, alert)
	if err != nil {
		slog.Error("family notification failed",
			"action", "notify_family",
			"user_id", alert.UserID.String(),
			"alert_id", alert.ID.String(),
			"error", err.Error(),
		)
		sentry.CaptureException(err)
		return alert, nil
	}
	if len(secondary) > 0 {
		slog.Info("family notified", "alert_id", alert.ID.String(), "count", len(secondary))
	}
	m.emit(ctx, secondary...)
	return alert, nil
}

// NotifyFamily creates one secondary alert per link of userID that has
// notify_on_alert set. The secondaries are written in their own nested
// unit so a failure leaves the primary alert intact.
func (m *AlertManager) NotifyFamily(ctx context.Context, userID uuid.UUID, alert *models.Alert) ([]models.Alert, error) {
	var sent []models.Alert
	err := m.store.Transaction(ctx, func(tx store.Store) error {
		sent = sent[:0]
		links, err := tx.Family().ListNotifiable(ctx, userID)
		if err != nil {
			return err
		}
		for _, link := range links {
			linkID := link.ID
			secondary := models.Alert{
				UserID:            link.LinkedUserID,
				FamilyMemberID:    &linkID,
				DetectionResultID: alert.DetectionResultID,
				AlertType:         alert.AlertType,
				Severity:          alert.Severity,
				Message:           "On behalf of your family member: " + alert.Message,
				CreatedAt:         m.now().UTC(),
			}
			if err := tx.Alerts().Create(ctx, &secondary); err != nil {
				return err
			}
			sent = append(sent, secondary)
		}
		return nil
	})
	if err != nil {
		return nil, storeErr("notify family", err)
	}
	return sent, nil
}

func (m *AlertManager) MarkRead(ctx context.Context, alertID, userID uuid.UUID) (*models.Alert, error) {
	alert, err := m.store.Alerts().MarkRead(ctx, alertID, userID)
	if isNotFound(err) {
		return nil, ErrAlertNotFound
	}
	return alert, storeErr("mark alert read", err)
}

func (m *AlertManager) Acknowledge(ctx context.Context, alertID, userID uuid.UUID) (*models.Alert, error) {
	alert, err := m.store.Alerts().Acknowledge(ctx, alertID, userID, m.now().UTC())
	if isNotFound(err) {
		return nil, ErrAlertNotFound
	}
	return alert, storeErr("acknowledge alert", err)
}

// MarkAllRead marks every unread alert of userID read in one update and
// returns how many changed.
func (m *AlertManager) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := m.store.Alerts().MarkAllRead(ctx, userID)
	return n, storeErr("mark all alerts read", err)
}

// Delete reports whether an alert was removed; a missing alert is not an
// error.
func (m *AlertManager) Delete(ctx context.Context, alertID, userID uuid.UUID) (bool, error) {
	deleted, err := m.store.Alerts().Delete(ctx, alertID, userID)
	return deleted, storeErr("delete alert", err)
}

func (m *AlertManager) List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Alert, error) {
	alerts, err := m.store.Alerts().List(ctx, store.AlertFilter{
		UserID:     userID,
		UnreadOnly: unreadOnly,
		Limit:      listLimit(limit),
		Offset:     max(offset, 0),
	})
	return alerts, storeErr("list alerts", err)
}

func (m *AlertManager) BySeverity(ctx context.Context, userID uuid.UUID, severity string) ([]models.Alert, error) {
	if !models.ValidSeverity(severity) {
		return nil, ErrInvalidSeverity
	}
	alerts, err := m.store.Alerts().List(ctx, store.AlertFilter{UserID: userID, Severity: models.Severity(severity)})
	return alerts, storeErr("list alerts by severity", err)
}

// Critical lists critical alerts that are not yet acknowledged.
func (m *AlertManager) Critical(ctx context.Context, userID uuid.UUID) ([]models.Alert, error) {
	alerts, err := m.store.Alerts().List(ctx, store.AlertFilter{
		UserID:             userID,
		Severity:           models.SeverityCritical,
		UnacknowledgedOnly: true,
	})
	return alerts, storeErr("list critical alerts", err)
}

func (m *AlertManager) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := m.store.Alerts().Count(ctx, store.AlertFilter{UserID: userID, UnreadOnly: true})
	return n, storeErr("count unread alerts", err)
}

func (m *AlertManager) emit(ctx context.Context, alerts ...models.Alert) {
	if m.outbox != nil {
		*m.outbox = append(*m.outbox, alerts...)
		return
	}
	m.publish(ctx, alerts...)
}

func (m *AlertManager) publish(ctx context.Context, alerts ...models.Alert) {
	for i := range alerts {
		if err := m.publisher.Publish(ctx, &alerts[i]); err != nil {
			slog.Warn("alert publish failed", "alert_id", alerts[i].ID.String(), "error", err)
		}
	}
}
