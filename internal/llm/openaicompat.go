package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	chatMaxAttempts = 3
	chatTemperature = 0.4
	chatMaxTokens   = 2048
)

// invoker executes one provider call, returning the raw assistant text.
// The text is expected to contain embedded JSON; extraction happens in the
// orchestrator.
type invoker interface {
	Invoke(ctx context.Context, cfg ProviderConfig, prompt string) (string, error)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// chatCompletions calls any OpenAI-compatible chat-completions endpoint
// (groq, together, the Hugging Face router). Transient failures are retried
// with 2^attempt-second backoff up to three attempts, each attempt bounded
// by its own deadline. pace, when set, is awaited before every retry
// dispatch so each upstream call counts against the caller's window.
type chatCompletions struct {
	httpClient     *http.Client
	attemptTimeout time.Duration
	sleep          func(time.Duration)
	pace           func(context.Context) error
}

func newChatCompletions(attemptTimeout time.Duration) *chatCompletions {
	return &chatCompletions{
		httpClient:     &http.Client{},
		attemptTimeout: attemptTimeout,
		sleep:          time.Sleep,
	}
}

func (c *chatCompletions) Invoke(ctx context.Context, cfg ProviderConfig, prompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: chatTemperature,
		MaxTokens:   chatMaxTokens,
	})
	if err != nil {
		return "", classify(cfg.Provider, 0, err)
	}

	var lastErr *ProviderError
	for attempt := 1; attempt <= chatMaxAttempts; attempt++ {
		if attempt > 1 && c.pace != nil {
			if err := c.pace(ctx); err != nil {
				return "", classify(cfg.Provider, 0, err)
			}
		}
		content, pe := c.attemptOnce(ctx, cfg, payload)
		if pe == nil {
			return content, nil
		}
		lastErr = pe
		if !isTransient(pe.Status, pe.Err) {
			break
		}
		if attempt == chatMaxAttempts {
			lastErr = &ProviderError{
				Provider:   cfg.Provider,
				Kind:       pe.Kind,
				Status:     pe.Status,
				Message:    fmt.Sprintf("%s (retries exhausted after %d attempts)", pe.Message, chatMaxAttempts),
				RetryAfter: pe.RetryAfter,
				Err:        pe.Err,
			}
			break
		}
		delay := time.Duration(1<<uint(attempt)) * time.Second
		log.Printf("llm retry provider=%s attempt=%d delay=%s error=%s", cfg.Provider, attempt, delay, sanitizeError(pe))
		c.sleep(delay)
		if err := ctx.Err(); err != nil {
			return "", classify(cfg.Provider, 0, err)
		}
	}
	return "", lastErr
}

func (c *chatCompletions) attemptOnce(ctx context.Context, cfg ProviderConfig, payload []byte) (string, *ProviderError) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, cfg.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return "", classify(cfg.Provider, 0, err)
	}
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", classify(cfg.Provider, 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classify(cfg.Provider, 0, err)
	}
	if resp.StatusCode != http.StatusOK {
		pe := classify(cfg.Provider, resp.StatusCode, fmt.Errorf("http status %d: %s", resp.StatusCode, snippet(body)))
		if resp.StatusCode == http.StatusTooManyRequests {
			pe.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		}
		return "", pe
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", classify(cfg.Provider, 0, fmt.Errorf("response parse: %w", err))
	}
	if parsed.Error != nil {
		return "", classify(cfg.Provider, 0, fmt.Errorf("upstream error: %s (%s)", parsed.Error.Message, parsed.Error.Type))
	}
	if len(parsed.Choices) == 0 {
		return "", classify(cfg.Provider, 0, fmt.Errorf("response missing choices"))
	}
	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", classify(cfg.Provider, 0, fmt.Errorf("response empty content"))
	}
	return content, nil
}

// parseRetryAfter handles both forms of the Retry-After header: delay
// seconds and an HTTP date.
func parseRetryAfter(raw string) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(raw); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

func snippet(body []byte) string {
	const maxLen = 200
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		s = s[:maxLen]
	}
	return s
}
