package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// AI providers (LLM-backed risk scoring)
	RiskScorer   string // heuristic, llm
	AIProvider   string // openai, gemini
	OpenAIAPIKey string
	OpenAIAPIURL string
	OpenAIModel  string
	GeminiAPIKey string
	GeminiAPIURL string
	GeminiModel  string
	AITimeout    time.Duration

	// Scoring policy
	Scoring ScoringConfig

	// Admin
	AdminEmails  string
	AdminUserIDs string
	AdminToken   string

	// Server
	Port        string
	CORSOrigins string
	AppEnv      string
	SentryDSN   string

	// Alert event bus (optional)
	RedisAddr     string
	RedisPassword string

	LogRetentionDays int
}

// ScoringConfig holds the placeholder weights and thresholds of the
// heuristic risk policy and the alert severity buckets.
type ScoringConfig struct {
	HomeCountryCode  string
	DefaultRegion    string
	HighRiskPrefixes map[string][]string
	ScamKeywords     []string

	PrefixWeight        int
	InternationalWeight int
	KeywordWeight       int

	ScamAt       int
	SuspiciousAt int
	UnknownAt    int

	CriticalAt int
	HighAt     int
	MediumAt   int
}

const (
	defaultHighRiskPrefixes = "1:800|888|877|866|855|844|833|900;84:1900|24|28"
	defaultScamKeywords     = "urgent,account,suspended,verify,social security,irs,tax"
)

func Load() *Config {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "scamshield_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m")),
		JWTRefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h")),

		RiskScorer:   getEnv("RISK_SCORER", "heuristic"),
		AIProvider:   getEnv("AI_PROVIDER", "openai"),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIAPIURL: getEnv("OPENAI_API_URL", "https://api.openai.com/v1/chat/completions"),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiAPIURL: getEnv("GEMINI_API_URL", "https://generativelanguage.googleapis.com/v1beta/openai/chat/completions"),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		AITimeout:    parseDuration(getEnv("AI_TIMEOUT", "30s")),

		Scoring: ScoringConfig{
			HomeCountryCode:     strings.TrimPrefix(getEnv("HOME_COUNTRY_CODE", "1"), "+"),
			DefaultRegion:       getEnv("DEFAULT_REGION", "US"),
			HighRiskPrefixes:    ParsePrefixes(getEnv("HIGH_RISK_PREFIXES", defaultHighRiskPrefixes)),
			ScamKeywords:        parseCSV(getEnv("SCAM_KEYWORDS", defaultScamKeywords)),
			PrefixWeight:        getInt("RISK_WEIGHT_PREFIX", 20),
			InternationalWeight: getInt("RISK_WEIGHT_INTERNATIONAL", 25),
			KeywordWeight:       getInt("RISK_WEIGHT_KEYWORD", 40),
			ScamAt:              getInt("LABEL_SCAM_AT", 70),
			SuspiciousAt:        getInt("LABEL_SUSPICIOUS_AT", 40),
			UnknownAt:           getInt("LABEL_UNKNOWN_AT", 20),
			CriticalAt:          getInt("SEVERITY_CRITICAL_AT", 80),
			HighAt:              getInt("SEVERITY_HIGH_AT", 60),
			MediumAt:            getInt("SEVERITY_MEDIUM_AT", 40),
		},

		AdminEmails:  getEnv("ADMIN_EMAILS", ""),
		AdminUserIDs: getEnv("ADMIN_USER_IDS", ""),
		AdminToken:   getEnv("ADMIN_TOKEN", ""),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		AppEnv:      getEnv("APP_ENV", "development"),
		SentryDSN:   getEnv("SENTRY_DSN", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		LogRetentionDays: getInt("LOG_RETENTION_DAYS", 30),
	}
}

// DefaultScoring returns the scoring policy with built-in defaults and no
// environment lookups.
func DefaultScoring() ScoringConfig {
	return ScoringConfig{
		HomeCountryCode:     "1",
		DefaultRegion:       "US",
		HighRiskPrefixes:    ParsePrefixes(defaultHighRiskPrefixes),
		ScamKeywords:        parseCSV(defaultScamKeywords),
		PrefixWeight:        20,
		InternationalWeight: 25,
		KeywordWeight:       40,
		ScamAt:              70,
		SuspiciousAt:        40,
		UnknownAt:           20,
		CriticalAt:          80,
		HighAt:              60,
		MediumAt:            40,
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// ParsePrefixes reads "cc:p1|p2;cc:p3" into a country-code keyed map of
// national-number prefixes.
func ParsePrefixes(s string) map[string][]string {
	out := make(map[string][]string)
	for _, group := range strings.Split(s, ";") {
		cc, list, ok := strings.Cut(strings.TrimSpace(group), ":")
		if !ok {
			continue
		}
		cc = strings.TrimPrefix(strings.TrimSpace(cc), "+")
		for _, p := range strings.Split(list, "|") {
			if p = strings.TrimSpace(p); p != "" {
				out[cc] = append(out[cc], p)
			}
		}
	}
	return out
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 15 * time.Minute
	}
	return d
}
