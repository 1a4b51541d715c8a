package llm

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Settings holds the orchestration tunables. Chain and ladder values come
// from environment-style configuration; zero values fall back to defaults.
type Settings struct {
	// Chain is an explicit comma-separated provider chain. When set it wins
	// over the ladder.
	Chain string
	// Ladder holds up to four explicit fallback stages, primary first.
	Ladder []string

	GroqDailyLimit int
	Cooldown       time.Duration
	AttemptTimeout time.Duration

	HFWindow         time.Duration
	HFMaxRequests    int
	HFMaxConcurrent  int
	HFMaxRetries     int
	HFRetryBaseDelay time.Duration
}

// DefaultSettings reads orchestration settings from environment variables
// with sensible defaults.
func DefaultSettings() Settings {
	return Settings{
		Chain: os.Getenv("LLM_PROVIDER_CHAIN"),
		Ladder: []string{
			os.Getenv("LLM_PROVIDER"),
			os.Getenv("LLM_FALLBACK_PROVIDER"),
			os.Getenv("LLM_FALLBACK_PROVIDER_2"),
			os.Getenv("LLM_FALLBACK_PROVIDER_3"),
		},
		GroqDailyLimit:   envInt("GROQ_DAILY_LIMIT", 100),
		Cooldown:         envMillis("LLM_COOLDOWN_MS", 10*time.Second),
		AttemptTimeout:   time.Duration(envInt("LLM_TIMEOUT_SECONDS", 45)) * time.Second,
		HFWindow:         envMillis("HF_RATE_WINDOW_MS", time.Minute),
		HFMaxRequests:    envInt("HF_RATE_MAX_REQUESTS", 8),
		HFMaxConcurrent:  envInt("HF_MAX_CONCURRENT", 2),
		HFMaxRetries:     envInt("HF_MAX_RETRIES", 3),
		HFRetryBaseDelay: envMillis("HF_RETRY_BASE_DELAY_MS", 2*time.Second),
	}
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func envMillis(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return def
	}
	return time.Duration(parsed) * time.Millisecond
}
