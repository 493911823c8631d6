package models

import (
	"time"

	"github.com/google/uuid"
)

type AlertType string

const (
	AlertScamDetected       AlertType = "scam_detected"
	AlertSuspiciousActivity AlertType = "suspicious_activity"
	AlertHighRisk           AlertType = "high_risk"
	AlertUrgent             AlertType = "urgent"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func ValidSeverity(s string) bool {
	switch Severity(s) {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Alert is a user-facing notification. FamilyMemberID is set on secondary
// alerts fanned out through a family link.
type Alert struct {
	ID                uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID            uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	FamilyMemberID    *uuid.UUID `gorm:"type:uuid;index" json:"family_member_id,omitempty"`
	DetectionResultID uuid.UUID  `gorm:"type:uuid;not null;index" json:"detection_result_id"`
	AlertType         AlertType  `gorm:"size:30;not null" json:"alert_type"`
	Severity          Severity   `gorm:"size:20;not null;default:'medium';index" json:"severity"`
	Message           string     `gorm:"type:text;not null" json:"message"`
	IsRead            bool       `gorm:"default:false;index" json:"is_read"`
	IsAcknowledged    bool       `gorm:"default:false" json:"is_acknowledged"`
	AcknowledgedAt    *time.Time `json:"acknowledged_at,omitempty"`
	AcknowledgedBy    *uuid.UUID `gorm:"type:uuid" json:"acknowledged_by,omitempty"`
	CreatedAt         time.Time  `gorm:"index" json:"created_at"`
}

func (Alert) TableName() string {
	return "alerts"
}
