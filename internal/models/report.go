package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ReportPhone   = "phone"
	ReportWebsite = "website"
	ReportSMS     = "sms"
	ReportGeneral = "general"
)

const (
	ReportPending   = "pending"
	ReportReviewed  = "reviewed"
	ReportResolved  = "resolved"
	ReportDismissed = "dismissed"
)

// ValidReportType reports whether t can be listed by type.
func ValidReportType(t string) bool {
	switch t {
	case ReportPhone, ReportWebsite, ReportSMS, ReportGeneral:
		return true
	}
	return false
}

// ReportClosed reports whether status ends the review.
func ReportClosed(status string) bool {
	return status == ReportResolved || status == ReportDismissed
}

// Report is a user's report of a phone number (or other scam source).
type Report struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	ReportType      string     `gorm:"size:20;not null;index" json:"report_type"`
	Reason          string     `gorm:"type:text;not null" json:"reason"`
	Status          string     `gorm:"size:20;not null;default:'pending'" json:"status"`
	Priority        string     `gorm:"size:20;default:'medium'" json:"priority"`
	AdminNotes      string     `gorm:"type:text" json:"admin_notes,omitempty"`
	ReportedPhoneID *uuid.UUID `gorm:"type:uuid;index" json:"reported_phone_id,omitempty"`
	ReportedSMSID   *uuid.UUID `gorm:"type:uuid;index" json:"reported_sms_id,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
