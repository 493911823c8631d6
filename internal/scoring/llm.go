package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/config"
)

const llmMethod = "llm_analysis"

const llmSystemPrompt = `You are a phone-scam analyst. Given a phone number and optional message text the user received, estimate how likely the contact is a scam.
Respond with JSON only: {"risk_score": <integer 0-100>, "risk_factors": [<short strings>]}.
Use an empty risk_factors list when nothing looks risky.`

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type llmVerdict struct {
	RiskScore   int      `json:"risk_score"`
	RiskFactors []string `json:"risk_factors"`
}

// LLMScorer asks an OpenAI-compatible chat-completions endpoint for a
// verdict and falls back to the heuristic when the provider is not
// configured or fails.
type LLMScorer struct {
	client     *resty.Client
	apiURL     string
	apiKey     string
	model      string
	thresholds Thresholds
	fallback   RiskScorer
}

func NewLLMScorer(cfg *config.Config, fallback RiskScorer) *LLMScorer {
	apiURL, apiKey, model := cfg.OpenAIAPIURL, cfg.OpenAIAPIKey, cfg.OpenAIModel
	if strings.EqualFold(cfg.AIProvider, "gemini") {
		apiURL, apiKey, model = cfg.GeminiAPIURL, cfg.GeminiAPIKey, cfg.GeminiModel
	}

	timeout := cfg.AITimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(1).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &LLMScorer{
		client:     client,
		apiURL:     apiURL,
		apiKey:     apiKey,
		model:      model,
		thresholds: ThresholdsFrom(cfg.Scoring),
		fallback:   fallback,
	}
}

func (s *LLMScorer) Score(ctx context.Context, phoneKey, contextText string) Judgment {
	if s.apiKey == "" {
		return s.fallback.Score(ctx, phoneKey, contextText)
	}

	verdict, err := s.ask(ctx, Normalize(phoneKey), contextText)
	if err != nil {
		slog.Warn("llm scoring failed, using heuristic", "phone", phoneKey, "error", err)
		return s.fallback.Score(ctx, phoneKey, contextText)
	}

	return s.thresholds.Finalize(Judgment{
		RiskScore: verdict.RiskScore,
		Factors:   verdict.RiskFactors,
		Method:    llmMethod,
		Model:     s.model,
	})
}

func (s *LLMScorer) ask(ctx context.Context, phoneKey, contextText string) (*llmVerdict, error) {
	prompt := "Phone number: " + phoneKey
	if contextText != "" {
		prompt += "\nMessage text: " + contextText
	}

	var completion chatResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(s.apiKey).
		SetBody(chatRequest{
			Model: s.model,
			Messages: []chatMessage{
				{Role: "system", Content: llmSystemPrompt},
				{Role: "user", Content: prompt},
			},
			Temperature: 0,
		}).
		SetResult(&completion).
		Post(s.apiURL)
	if err != nil {
		return nil, fmt.Errorf("call ai provider: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("ai provider status %d", resp.StatusCode())
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("no response from ai provider")
	}

	return parseVerdict(completion.Choices[0].Message.Content)
}

// parseVerdict accepts bare JSON, fenced JSON, or JSON embedded in prose.
func parseVerdict(content string) (*llmVerdict, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var v llmVerdict
	if err := json.Unmarshal([]byte(content), &v); err == nil {
		return &v, nil
	}
	start, end := strings.Index(content, "{"), strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, errors.New("ai verdict is not json")
	}
	if err := json.Unmarshal([]byte(content[start : end+1]), &v); err != nil {
		return nil, fmt.Errorf("parse ai verdict: %w", err)
	}
	return &v, nil
}
