// Package scoring maps a phone number and optional context text to a risk
// judgment. Implementations are interchangeable behind RiskScorer.
package scoring

import (
	"context"
	"strings"

	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/models"
)

const noRiskFactors = "No specific risk factors identified"

// Judgment is one scorer verdict.
type Judgment struct {
	Label      models.ResultLabel `json:"result_label"`
	RiskScore  int                `json:"risk_score"`
	Confidence int                `json:"confidence_score"`
	Factors    []string           `json:"risk_factors"`
	Reason     string             `json:"reason"`
	Method     string             `json:"detection_method"`
	Model      string             `json:"model_version"`
}

// RiskScorer scores a normalized phone key. Identical inputs must produce
// identical judgments for the heuristic; model-backed scorers fall back to
// it when their provider fails.
type RiskScorer interface {
	Score(ctx context.Context, phoneKey, contextText string) Judgment
}

// Thresholds turns a raw score into label and confidence.
type Thresholds struct {
	ScamAt       int
	SuspiciousAt int
	UnknownAt    int
}

func ThresholdsFrom(cfg config.ScoringConfig) Thresholds {
	return Thresholds{ScamAt: cfg.ScamAt, SuspiciousAt: cfg.SuspiciousAt, UnknownAt: cfg.UnknownAt}
}

func (t Thresholds) Label(score int) models.ResultLabel {
	switch {
	case score >= t.ScamAt:
		return models.LabelScam
	case score >= t.SuspiciousAt:
		return models.LabelSuspicious
	case score >= t.UnknownAt:
		return models.LabelUnknown
	default:
		return models.LabelSafe
	}
}

// Finalize clamps the score and derives label, confidence and reason.
func (t Thresholds) Finalize(j Judgment) Judgment {
	j.RiskScore = clamp(j.RiskScore, 0, 100)
	j.Label = t.Label(j.RiskScore)
	j.Confidence = Confidence(j.RiskScore)
	if j.Factors == nil {
		j.Factors = []string{}
	}
	j.Reason = Reason(j.Factors)
	return j
}

func Confidence(score int) int {
	return min(score+20, 95)
}

func Reason(factors []string) string {
	if len(factors) == 0 {
		return noRiskFactors
	}
	return strings.Join(factors, ", ")
}

// New picks the scorer named by cfg.RiskScorer.
func New(cfg *config.Config) RiskScorer {
	heuristic := NewHeuristic(cfg.Scoring)
	if strings.EqualFold(cfg.RiskScorer, "llm") {
		return NewLLMScorer(cfg, heuristic)
	}
	return heuristic
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
