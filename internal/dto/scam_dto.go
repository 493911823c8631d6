package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/scoring"
)

// --- phone registry ---

type CheckPhoneRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,min=3,max=32"`
}

type AddPhoneRequest struct {
	PhoneNumber string  `json:"phone_number" validate:"required,min=3,max=32"`
	CountryCode *string `json:"country_code" validate:"omitempty,max=5"`
	Info        *string `json:"info" validate:"omitempty,max=2000"`
	Origin      *string `json:"origin" validate:"omitempty,max=100"`
}

type FlagPhoneRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,min=3,max=32"`
	Reason      string `json:"reason" validate:"required,max=255"`
	RiskScore   *int   `json:"risk_score" validate:"omitempty,min=0,max=100"`
}

type SearchPhoneRequest struct {
	Query string `json:"query" validate:"required,min=2,max=64"`
	Limit int    `json:"limit" validate:"omitempty,min=1,max=100"`
}

// PhoneCheckResult is the registry snapshot for one number. When Found is
// false only PhoneNumber and Message are meaningful.
type PhoneCheckResult struct {
	Found       bool       `json:"found"`
	PhoneNumber string     `json:"phone_number"`
	PhoneID     *uuid.UUID `json:"phone_id,omitempty"`
	IsFlagged   bool       `json:"is_flagged"`
	FlagReason  string     `json:"flag_reason,omitempty"`
	RiskScore   int        `json:"risk_score"`
	Info        *string    `json:"info,omitempty"`
	Origin      *string    `json:"origin,omitempty"`
	LastChecked *time.Time `json:"last_checked,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	Message     string     `json:"message,omitempty"`
}

// --- detection ---

type DetectScamRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,min=3,max=32"`
	Context     string `json:"context" validate:"max=4000"`
}

type BulkCheckRequest struct {
	PhoneNumbers []string `json:"phone_numbers" validate:"required,min=1,max=50,dive,required,min=3,max=32"`
}

type DetectScamResponse struct {
	PhoneCheck            PhoneCheckResult `json:"phone_check"`
	Analysis              scoring.Judgment `json:"ai_analysis"`
	DetectionResultID     uuid.UUID        `json:"detection_result_id"`
	ScanRequestID         uuid.UUID        `json:"scan_request_id"`
	AlertCreated          bool             `json:"alert_created"`
	AlertID               *uuid.UUID       `json:"alert_id,omitempty"`
	Recommendation        string           `json:"recommendation"`
	RecommendationMessage string           `json:"recommendation_message"`
}

type BulkCheckItem struct {
	PhoneNumber string              `json:"phone_number"`
	Result      *DetectScamResponse `json:"result,omitempty"`
	Error       string              `json:"error,omitempty"`
}

type BulkCheckResponse struct {
	Results []BulkCheckItem `json:"results"`
	Checked int             `json:"checked"`
	Failed  int             `json:"failed"`
}

type RiskAssessmentResponse struct {
	PhoneNumber           string           `json:"phone_number"`
	OverallRiskScore      int              `json:"overall_risk_score"`
	RiskLevel             string           `json:"risk_level"`
	DatabaseCheck         PhoneCheckResult `json:"database_check"`
	Analysis              scoring.Judgment `json:"ai_analysis"`
	Recommendation        string           `json:"recommendation"`
	RecommendationMessage string           `json:"recommendation_message"`
}

type ScanSummary struct {
	ID         uuid.UUID         `json:"id"`
	SourceFrom string            `json:"source_from"`
	SourceType models.SourceType `json:"source_type"`
	Status     models.ScanStatus `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
}

type DetectionHistoryResponse struct {
	ScanRequests     int64         `json:"scan_requests"`
	DetectionResults int64         `json:"detection_results"`
	Alerts           int64         `json:"alerts"`
	RecentScans      []ScanSummary `json:"recent_scans"`
}

type DetectionStatsResponse struct {
	TotalScans       int64   `json:"total_scans"`
	DetectionResults int64   `json:"detection_results"`
	TotalAlerts      int64   `json:"total_alerts"`
	UnreadAlerts     int64   `json:"unread_alerts"`
	CriticalAlerts   int64   `json:"critical_alerts"`
	AlertRate        float64 `json:"alert_rate"`
}

// --- alerts ---

type AlertListResponse struct {
	Alerts []models.Alert `json:"alerts"`
	Count  int            `json:"count"`
}

type UnreadCountResponse struct {
	UnreadCount int64 `json:"unread_count"`
}

type MarkAllReadResponse struct {
	Message string `json:"message"`
	Updated int64  `json:"updated"`
}

type DeleteAlertResponse struct {
	Deleted bool `json:"deleted"`
}

// --- family ---

type LinkFamilyRequest struct {
	ElderlyUserID uuid.UUID `json:"elderly_user_id" validate:"required"`
	Name          string    `json:"name" validate:"required,max=255"`
	Relationship  string    `json:"relationship" validate:"omitempty,max=100"`
	PhoneNumber   string    `json:"phone_number" validate:"omitempty,max=32"`
	Email         string    `json:"email" validate:"omitempty,email,max=255"`
}

type SetNotifyRequest struct {
	NotifyOnAlert *bool `json:"notify_on_alert" validate:"required"`
}

type FamilyLinkStatus struct {
	Linked        bool       `json:"linked"`
	LinkID        *uuid.UUID `json:"link_id,omitempty"`
	NotifyOnAlert *bool      `json:"notify_on_alert,omitempty"`
}

// --- reports ---

type ReportPhoneRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,min=3,max=32"`
	Reason      string `json:"reason" validate:"required,max=2000"`
	Priority    string `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
}

// ReportSMSRequest reports the sender of a suspicious message. The body is
// optional and stored alongside the report when present.
type ReportSMSRequest struct {
	SenderPhone string `json:"sender_phone" validate:"required,min=3,max=32"`
	Reason      string `json:"reason" validate:"required,max=2000"`
	Priority    string `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	MessageBody string `json:"message_body" validate:"max=5000"`
}

type UpdateReportStatusRequest struct {
	Status     string `json:"status" validate:"required,oneof=pending reviewed resolved dismissed"`
	AdminNotes string `json:"admin_notes" validate:"max=2000"`
}
