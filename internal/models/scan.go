package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SourceType string

const (
	SourcePhone      SourceType = "phone"
	SourceScreenshot SourceType = "screenshot"
	SourceWebsite    SourceType = "website"
	SourceSMS        SourceType = "sms"
)

type ScanStatus string

const (
	ScanPending    ScanStatus = "pending"
	ScanProcessing ScanStatus = "processing"
	ScanCompleted  ScanStatus = "completed"
	ScanFailed     ScanStatus = "failed"
)

type ResultLabel string

const (
	LabelSafe       ResultLabel = "safe"
	LabelUnknown    ResultLabel = "unknown"
	LabelSuspicious ResultLabel = "suspicious"
	LabelScam       ResultLabel = "scam"
)

// Rank orders labels by severity: safe < unknown < suspicious < scam.
func (l ResultLabel) Rank() int {
	switch l {
	case LabelUnknown:
		return 1
	case LabelSuspicious:
		return 2
	case LabelScam:
		return 3
	default:
		return 0
	}
}

// IsThreat reports whether the label alone is enough to raise an alert.
func (l ResultLabel) IsThreat() bool {
	return l == LabelScam || l == LabelSuspicious
}

// ScanRequest tracks one detection attempt.
type ScanRequest struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	SourceType  SourceType `gorm:"size:20;not null" json:"source_type"`
	SourceFrom  string     `gorm:"size:100;not null" json:"source_from"`
	Status      ScanStatus `gorm:"size:20;not null;default:'pending'" json:"status"`
	Priority    string     `gorm:"size:20;default:'medium'" json:"priority"`
	Notes       string     `gorm:"type:text" json:"notes,omitempty"`
	Timestamp   time.Time  `gorm:"not null;index" json:"timestamp"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (ScanRequest) TableName() string {
	return "scan_requests"
}

// DetectionResult is the immutable outcome of a ScanRequest.
type DetectionResult struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ScanRequestID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"scan_request_id"`
	SourceType      SourceType     `gorm:"size:20;not null" json:"source_type"`
	SourceID        *uuid.UUID     `gorm:"type:uuid" json:"source_id,omitempty"`
	ResultLabel     ResultLabel    `gorm:"size:20;not null" json:"result_label"`
	ConfidenceScore int            `gorm:"type:integer;not null" json:"confidence_score"`
	RiskScore       int            `gorm:"type:integer;default:0" json:"risk_score"`
	DetectionMethod string         `gorm:"size:100" json:"detection_method"`
	AnalysisDetails string         `gorm:"type:text" json:"analysis_details"`
	RiskFactors     datatypes.JSON `gorm:"type:jsonb;default:'[]'" json:"risk_factors"`
	AIModelVersion  string         `gorm:"size:50" json:"ai_model_version"`
	ProcessingMs    int64          `json:"processing_ms"`
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`
}

func (DetectionResult) TableName() string {
	return "scam_detection_results"
}
