package scoring

import (
	"context"
	"fmt"
	"strings"

	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/config"
)

const (
	heuristicMethod  = "heuristic_analysis"
	heuristicVersion = "v1.0"
)

// Heuristic is the placeholder rule-based policy: prefix, international
// and keyword weights summed and clamped to [0, 100].
type Heuristic struct {
	cfg        config.ScoringConfig
	thresholds Thresholds
	keywords   []string
}

func NewHeuristic(cfg config.ScoringConfig) *Heuristic {
	keywords := make([]string, 0, len(cfg.ScamKeywords))
	for _, k := range cfg.ScamKeywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			keywords = append(keywords, k)
		}
	}
	return &Heuristic{cfg: cfg, thresholds: ThresholdsFrom(cfg), keywords: keywords}
}

func (h *Heuristic) Score(_ context.Context, phoneKey, contextText string) Judgment {
	j := Judgment{Method: heuristicMethod, Model: heuristicVersion}
	key := Normalize(phoneKey)
	parsed := ParsePhone(key, h.cfg.DefaultRegion, h.cfg.HomeCountryCode)

	for _, prefix := range h.cfg.HighRiskPrefixes[parsed.CountryCode] {
		if strings.HasPrefix(parsed.NationalNumber, prefix) {
			j.RiskScore += h.cfg.PrefixWeight
			j.Factors = append(j.Factors, fmt.Sprintf("High-risk number prefix %s", prefix))
			break
		}
	}

	if parsed.International && parsed.CountryCode != h.cfg.HomeCountryCode {
		j.RiskScore += h.cfg.InternationalWeight
		if parsed.CountryCode == "" {
			j.Factors = append(j.Factors, "International number")
		} else {
			j.Factors = append(j.Factors, fmt.Sprintf("International number (+%s)", parsed.CountryCode))
		}
	}

	if kw := h.matchKeyword(contextText); kw != "" {
		j.RiskScore += h.cfg.KeywordWeight
		j.Factors = append(j.Factors, fmt.Sprintf("Suspicious context (%q)", kw))
	}

	return h.thresholds.Finalize(j)
}

func (h *Heuristic) matchKeyword(text string) string {
	if text == "" {
		return ""
	}
	lower := strings.ToLower(text)
	for _, k := range h.keywords {
		if strings.Contains(lower, k) {
			return k
		}
	}
	return ""
}
