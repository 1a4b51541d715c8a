package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"strings"
	"time"
)

// hfInvoker paces Hugging Face calls through the shared throttle and retries
// rate-limit responses locally, honoring the upstream's advertised retry
// hint when one is present.
type hfInvoker struct {
	chat       *chatCompletions
	throttle   *Throttle
	maxRetries int
	baseDelay  time.Duration
	sleep      func(time.Duration)
}

func newHFInvoker(chat *chatCompletions, throttle *Throttle, maxRetries int, baseDelay time.Duration) *hfInvoker {
	return &hfInvoker{
		chat:       chat,
		throttle:   throttle,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		sleep:      time.Sleep,
	}
}

func (h *hfInvoker) Invoke(ctx context.Context, cfg ProviderConfig, prompt string) (string, error) {
	if err := h.throttle.Acquire(ctx); err != nil {
		return "", classify(cfg.Provider, 0, err)
	}
	defer h.throttle.Release()

	var lastErr error
	for attempt := 0; attempt < h.maxRetries; attempt++ {
		if attempt > 0 {
			if err := h.throttle.Pace(ctx); err != nil {
				return "", classify(cfg.Provider, 0, err)
			}
		}
		content, err := h.chat.Invoke(ctx, cfg, prompt)
		if err == nil {
			return content, nil
		}
		lastErr = err

		var pe *ProviderError
		if !errors.As(err, &pe) || pe.Kind != KindRateLimited {
			return "", err
		}
		if attempt == h.maxRetries-1 {
			break
		}

		delay := h.retryDelay(pe, attempt)
		log.Printf("llm rate-limited provider=%s attempt=%d delay=%s", cfg.Provider, attempt+1, delay)
		h.sleep(delay)
		if err := ctx.Err(); err != nil {
			return "", classify(cfg.Provider, 0, err)
		}
	}
	return "", &ProviderError{
		Provider: cfg.Provider,
		Kind:     KindRateLimited,
		Status:   429,
		Message:  fmt.Sprintf("rate limit retries exhausted after %d attempts", h.maxRetries),
		Err:      lastErr,
	}
}

// retryDelay prefers the upstream's retry hint, falling back to exponential
// backoff from the base delay with random jitter. The Retry-After header is
// checked first; some upstreams only put the hint in the error body.
func (h *hfInvoker) retryDelay(pe *ProviderError, attempt int) time.Duration {
	if pe != nil && pe.RetryAfter > 0 {
		return pe.RetryAfter
	}
	if hint := retryAfterHint(pe); hint > 0 {
		return hint
	}
	delay := h.baseDelay * time.Duration(1<<uint(attempt))
	jitter := time.Duration(rand.Int63n(int64(h.baseDelay)/2 + 1))
	return delay + jitter
}

// retryAfterHint parses a "retry-after: N" fragment out of the upstream
// error body, when the provider advertised one.
func retryAfterHint(pe *ProviderError) time.Duration {
	if pe == nil || pe.Err == nil {
		return 0
	}
	msg := strings.ToLower(pe.Err.Error())
	idx := strings.Index(msg, "retry-after")
	if idx == -1 {
		return 0
	}
	rest := strings.TrimLeft(msg[idx+len("retry-after"):], ": \"")
	var digits strings.Builder
	for _, r := range rest {
		if r < '0' || r > '9' {
			break
		}
		digits.WriteRune(r)
	}
	secs, err := strconv.Atoi(digits.String())
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
