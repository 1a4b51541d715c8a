package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// ErrNoProviders is returned when the configured chain resolves to nothing.
// This is a configuration error and is never retried.
var ErrNoProviders = errors.New("no LLM providers configured")

// ErrorKind classifies a provider failure. The HTTP layer maps kinds to
// status codes instead of re-parsing message text.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindUnconfigured
	KindCooldown
	KindQuotaExceeded
	KindUnauthorized
	KindPaymentRequired
	KindRateLimited
	KindUnavailable
	KindMalformedOutput
	KindSchemaInvalid
	KindNetworkError
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnconfigured:
		return "unconfigured"
	case KindCooldown:
		return "cooldown"
	case KindQuotaExceeded:
		return "quota_exceeded"
	case KindUnauthorized:
		return "unauthorized"
	case KindPaymentRequired:
		return "payment_required"
	case KindRateLimited:
		return "rate_limited"
	case KindUnavailable:
		return "unavailable"
	case KindMalformedOutput:
		return "malformed_output"
	case KindSchemaInvalid:
		return "schema_invalid"
	case KindNetworkError:
		return "network_error"
	default:
		return "unknown"
	}
}

// ProviderError is a failure tagged with the originating provider, its
// classified kind, and the HTTP status when one is known. RetryAfter carries
// the upstream's Retry-After hint on rate-limit responses, zero when absent.
type ProviderError struct {
	Provider   Provider
	Kind       ErrorKind
	Status     int
	Message    string
	RetryAfter time.Duration
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Provider == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// AsProviderError unwraps err into a *ProviderError, tagging it with p when
// the error was raised without provider context (e.g. by the extractor).
func AsProviderError(p Provider, err error) *ProviderError {
	var pe *ProviderError
	if errors.As(err, &pe) {
		if pe.Provider == "" {
			pe.Provider = p
		}
		return pe
	}
	return classify(p, 0, err)
}

// classify maps an HTTP status (0 when unknown) and error into a tagged
// ProviderError. The mapping mirrors what callers relied on upstream: 401
// names the credential env var, 429 is a rate limit, 503 or a "loading"
// message is a warming model.
func classify(p Provider, status int, err error) *ProviderError {
	msg := ""
	if err != nil {
		msg = err.Error()
	}

	pe := &ProviderError{Provider: p, Status: status, Err: err}
	switch {
	case status == 401:
		pe.Kind = KindUnauthorized
		pe.Message = fmt.Sprintf("invalid credential, check %s", p.CredentialEnv())
	case status == 402:
		pe.Kind = KindPaymentRequired
		pe.Message = "payment required or insufficient credits"
	case status == 429:
		pe.Kind = KindRateLimited
		pe.Message = "rate limit exceeded"
	case status == 503 || strings.Contains(strings.ToLower(msg), "loading"):
		pe.Kind = KindUnavailable
		pe.Message = "model is loading or busy, try again shortly"
	case isNetworkError(err):
		pe.Kind = KindNetworkError
		pe.Message = "could not connect to provider, check internet connectivity"
	default:
		pe.Kind = KindUnknown
		pe.Message = msg
		if pe.Message == "" {
			pe.Message = "request failed"
		}
	}
	return pe
}

func isNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") ||
		strings.Contains(msg, "client.timeout")
}

// isTransient reports whether a failed attempt is worth retrying against
// the same provider.
func isTransient(status int, err error) bool {
	if status >= 500 && status <= 599 {
		return true
	}
	return isNetworkError(err)
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}
