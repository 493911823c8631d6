package scoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/models"
)

func llmConfig(url string) *config.Config {
	return &config.Config{
		RiskScorer:   "llm",
		AIProvider:   "openai",
		OpenAIAPIKey: "test-key",
		OpenAIAPIURL: url,
		OpenAIModel:  "gpt-test",
		AITimeout:    2 * time.Second,
		Scoring:      config.DefaultScoring(),
	}
}

func completionServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-test", req.Model)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": content}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLLMScorer_UsesProviderVerdict(t *testing.T) {
	srv := completionServer(t, http.StatusOK, "```json\n{\"risk_score\": 130, \"risk_factors\": [\"impersonates bank\"]}\n```")
	cfg := llmConfig(srv.URL)

	s := New(cfg)
	require.IsType(t, &LLMScorer{}, s)

	j := s.Score(context.Background(), "+1 (800) 555-1234", "verify your account")

	assert.Equal(t, 100, j.RiskScore)
	assert.Equal(t, models.LabelScam, j.Label)
	assert.Equal(t, 95, j.Confidence)
	assert.Equal(t, "impersonates bank", j.Reason)
	assert.Equal(t, llmMethod, j.Method)
	assert.Equal(t, "gpt-test", j.Model)
}

func TestLLMScorer_FallsBackOnProviderError(t *testing.T) {
	srv := completionServer(t, http.StatusInternalServerError, "")
	cfg := llmConfig(srv.URL)

	j := New(cfg).Score(context.Background(), "+18005551234", "your account is suspended")

	assert.Equal(t, heuristicMethod, j.Method)
	assert.Equal(t, 60, j.RiskScore)
}

func TestLLMScorer_FallsBackWithoutKey(t *testing.T) {
	cfg := llmConfig("http://127.0.0.1:0")
	cfg.OpenAIAPIKey = ""

	j := New(cfg).Score(context.Background(), "+12345678901", "")

	assert.Equal(t, heuristicMethod, j.Method)
	assert.Equal(t, models.LabelSafe, j.Label)
}

func TestParseVerdict_ProseWrapped(t *testing.T) {
	v, err := parseVerdict(`Sure. {"risk_score": 42, "risk_factors": []} Hope that helps.`)
	require.NoError(t, err)
	assert.Equal(t, 42, v.RiskScore)

	_, err = parseVerdict("no json here")
	assert.Error(t, err)
}
