package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/scoring"
	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/store"
)

const (
	RecommendBlock   = "block"
	RecommendCaution = "caution"
	RecommendWarning = "warning"
	RecommendSafe    = "safe"
)

var recommendationMessages = map[string]string{
	RecommendBlock:   "BLOCK: This number has been identified as a scam. Do not answer or call back.",
	RecommendCaution: "CAUTION: This number shows suspicious patterns. Proceed with caution.",
	RecommendWarning: "WARNING: This number has been flagged in our database. Avoid contact.",
	RecommendSafe:    "SAFE: No immediate concerns detected, but remain vigilant.",
}

// DetectionOrchestrator runs one phone scan end to end: scan request,
// registry lookup, scoring, detection result, registry merge and alerting.
type DetectionOrchestrator struct {
	store  store.Store
	phones *PhoneRegistry
	scorer scoring.RiskScorer
	alerts *AlertManager
	cfg    config.ScoringConfig
	now    func() time.Time
}

func NewDetectionOrchestrator(st store.Store, phones *PhoneRegistry, scorer scoring.RiskScorer, alerts *AlertManager, cfg config.ScoringConfig) *DetectionOrchestrator {
	return &DetectionOrchestrator{
		store:  st,
		phones: phones,
		scorer: scorer,
		alerts: alerts,
		cfg:    cfg,
		now:    time.Now,
	}
}

// DetectScam records a processing scan request, then runs lookup through
// alerting in one transaction. On failure the request is marked failed and
// the error is returned unchanged.
func (o *DetectionOrchestrator) DetectScam(ctx context.Context, userID uuid.UUID, rawPhone, contextText string) (*dto.DetectScamResponse, error) {
	key, err := o.phones.key(rawPhone)
	if err != nil {
		return nil, err
	}

	started := o.now()
	scan := &models.ScanRequest{
		UserID:     userID,
		SourceType: models.SourcePhone,
		SourceFrom: key,
		Status:     models.ScanProcessing,
		Priority:   "medium",
		Timestamp:  started.UTC(),
	}
	if err := o.store.Scans().CreateRequest(ctx, scan); err != nil {
		return nil, storeErr("create scan request", err)
	}

	var (
		resp   *dto.DetectScamResponse
		alerts *AlertManager
	)
	err = o.store.Transaction(ctx, func(tx store.Store) error {
		alerts = o.alerts.WithStore(tx)
		var err error
		resp, err = o.detect(ctx, tx, o.phones.WithStore(tx), alerts, scan, contextText, started)
		return err
	})
	if err != nil {
		if serr := o.store.Scans().SetStatus(ctx, scan.ID, models.ScanFailed, nil); serr != nil {
			slog.Error("mark scan failed", "scan_id", scan.ID.String(), "error", serr.Error())
		}
		slog.Error("scam detection failed",
			"action", "detect_scam",
			"user_id", userID.String(),
			"phone", key,
			"scan_id", scan.ID.String(),
			"error", err.Error(),
		)
		return nil, err
	}

	alerts.Flush(ctx)
	return resp, nil
}

func (o *DetectionOrchestrator) detect(ctx context.Context, tx store.Store, phones *PhoneRegistry, alerts *AlertManager, scan *models.ScanRequest, contextText string, started time.Time) (*dto.DetectScamResponse, error) {
	key := scan.SourceFrom

	record, err := phones.Lookup(ctx, key)
	if err != nil && !errors.Is(err, ErrPhoneNotFound) {
		return nil, err
	}

	judgment := o.scorer.Score(ctx, key, contextText)

	factors, err := json.Marshal(judgment.Factors)
	if err != nil {
		return nil, fmt.Errorf("encode risk factors: %w", err)
	}
	result := &models.DetectionResult{
		ScanRequestID:   scan.ID,
		SourceType:      models.SourcePhone,
		ResultLabel:     judgment.Label,
		ConfidenceScore: judgment.Confidence,
		RiskScore:       judgment.RiskScore,
		DetectionMethod: judgment.Method,
		AnalysisDetails: judgment.Reason,
		RiskFactors:     datatypes.JSON(factors),
		AIModelVersion:  judgment.Model,
		ProcessingMs:    o.now().Sub(started).Milliseconds(),
	}
	if record != nil {
		id := record.ID
		result.SourceID = &id
	}
	if err := tx.Scans().CreateResult(ctx, result); err != nil {
		return nil, storeErr("create detection result", err)
	}

	switch {
	case record != nil:
		if record, err = phones.MergeRiskScore(ctx, key, judgment.RiskScore); err != nil {
			return nil, err
		}
	case judgment.Label.IsThreat():
		if record, err = phones.Escalate(ctx, key, judgment.Reason, judgment.RiskScore); err != nil {
			return nil, err
		}
	}

	check := notFoundResult(key)
	if record != nil {
		check = checkResult(record)
	}

	resp := &dto.DetectScamResponse{
		PhoneCheck:        check,
		Analysis:          judgment,
		DetectionResultID: result.ID,
		ScanRequestID:     scan.ID,
	}

	if check.IsFlagged || judgment.Label.IsThreat() {
		message := fmt.Sprintf("Scam detected from %s. AI confidence: %d%%", key, judgment.Confidence)
		alert, err := alerts.CreateScamAlert(ctx, scan.UserID, key, max(check.RiskScore, judgment.RiskScore), result.ID, message)
		if err != nil {
			return nil, err
		}
		resp.AlertCreated = true
		resp.AlertID = &alert.ID
	}

	completed := o.now().UTC()
	if err := tx.Scans().SetStatus(ctx, scan.ID, models.ScanCompleted, &completed); err != nil {
		return nil, storeErr("complete scan request", err)
	}

	resp.Recommendation = Recommendation(judgment.Label, check.IsFlagged)
	resp.RecommendationMessage = recommendationMessages[resp.Recommendation]
	return resp, nil
}

// Recommendation depends only on the label and the registry flag.
func Recommendation(label models.ResultLabel, flagged bool) string {
	switch {
	case label == models.LabelScam:
		return RecommendBlock
	case label == models.LabelSuspicious:
		return RecommendCaution
	case flagged:
		return RecommendWarning
	default:
		return RecommendSafe
	}
}

// RiskLevel buckets an overall score for the assessment view.
func (o *DetectionOrchestrator) RiskLevel(score int) string {
	switch {
	case score >= o.cfg.CriticalAt:
		return "CRITICAL"
	case score >= o.cfg.HighAt:
		return "HIGH"
	case score >= o.cfg.MediumAt:
		return "MEDIUM"
	case score >= o.cfg.UnknownAt:
		return "LOW"
	default:
		return "SAFE"
	}
}

// RiskAssessment scores a number against the registry without recording a
// scan or raising alerts.
func (o *DetectionOrchestrator) RiskAssessment(ctx context.Context, rawPhone, contextText string) (*dto.RiskAssessmentResponse, error) {
	check, err := o.phones.Check(ctx, rawPhone)
	if err != nil {
		return nil, err
	}
	judgment := o.scorer.Score(ctx, check.PhoneNumber, contextText)
	overall := max(check.RiskScore, judgment.RiskScore)
	rec := Recommendation(judgment.Label, check.IsFlagged)

	return &dto.RiskAssessmentResponse{
		PhoneNumber:           check.PhoneNumber,
		OverallRiskScore:      overall,
		RiskLevel:             o.RiskLevel(overall),
		DatabaseCheck:         check,
		Analysis:              judgment,
		Recommendation:        rec,
		RecommendationMessage: recommendationMessages[rec],
	}, nil
}

// BulkDetect runs DetectScam for each number in order. One number failing
// does not stop the rest.
func (o *DetectionOrchestrator) BulkDetect(ctx context.Context, userID uuid.UUID, numbers []string) *dto.BulkCheckResponse {
	out := &dto.BulkCheckResponse{Results: make([]dto.BulkCheckItem, 0, len(numbers))}
	for _, n := range numbers {
		item := dto.BulkCheckItem{PhoneNumber: n}
		resp, err := o.DetectScam(ctx, userID, n, "")
		if err != nil {
			item.Error = publicMessage(err)
			out.Failed++
		} else {
			item.Result = resp
		}
		out.Results = append(out.Results, item)
		out.Checked++
	}
	return out
}

func (o *DetectionOrchestrator) History(ctx context.Context, userID uuid.UUID, limit int) (*dto.DetectionHistoryResponse, error) {
	scans, err := o.store.Scans().ListRequests(ctx, userID, listLimit(limit))
	if err != nil {
		return nil, storeErr("list scan requests", err)
	}
	total, results, alerts, err := o.totals(ctx, userID)
	if err != nil {
		return nil, err
	}

	recent := make([]dto.ScanSummary, 0, len(scans))
	for _, s := range scans {
		recent = append(recent, dto.ScanSummary{
			ID:         s.ID,
			SourceFrom: s.SourceFrom,
			SourceType: s.SourceType,
			Status:     s.Status,
			Timestamp:  s.Timestamp,
		})
	}
	return &dto.DetectionHistoryResponse{
		ScanRequests:     total,
		DetectionResults: results,
		Alerts:           alerts,
		RecentScans:      recent,
	}, nil
}

func (o *DetectionOrchestrator) Stats(ctx context.Context, userID uuid.UUID) (*dto.DetectionStatsResponse, error) {
	total, results, alerts, err := o.totals(ctx, userID)
	if err != nil {
		return nil, err
	}
	unread, err := o.store.Alerts().Count(ctx, store.AlertFilter{UserID: userID, UnreadOnly: true})
	if err != nil {
		return nil, storeErr("count unread alerts", err)
	}
	critical, err := o.store.Alerts().Count(ctx, store.AlertFilter{UserID: userID, Severity: models.SeverityCritical})
	if err != nil {
		return nil, storeErr("count critical alerts", err)
	}

	stats := &dto.DetectionStatsResponse{
		TotalScans:       total,
		DetectionResults: results,
		TotalAlerts:      alerts,
		UnreadAlerts:     unread,
		CriticalAlerts:   critical,
	}
	if total > 0 {
		stats.AlertRate = float64(alerts) / float64(total)
	}
	return stats, nil
}

func (o *DetectionOrchestrator) totals(ctx context.Context, userID uuid.UUID) (scans, results, alerts int64, err error) {
	if scans, err = o.store.Scans().CountRequests(ctx, userID); err != nil {
		return 0, 0, 0, storeErr("count scan requests", err)
	}
	if results, err = o.store.Scans().CountResults(ctx, userID); err != nil {
		return 0, 0, 0, storeErr("count detection results", err)
	}
	if alerts, err = o.store.Alerts().Count(ctx, store.AlertFilter{UserID: userID}); err != nil {
		return 0, 0, 0, storeErr("count alerts", err)
	}
	return scans, results, alerts, nil
}

// publicMessage hides store details from per-item bulk errors.
func publicMessage(err error) string {
	if errors.Is(err, ErrStore) {
		return "internal failure"
	}
	return err.Error()
}
