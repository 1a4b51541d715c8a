package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"tailor-backend/internal/shared/metrics"
)

type fakeInvoker struct {
	calls int
	fn    func(cfg ProviderConfig, prompt string) (string, error)
}

func (f *fakeInvoker) Invoke(ctx context.Context, cfg ProviderConfig, prompt string) (string, error) {
	f.calls++
	return f.fn(cfg, prompt)
}

func succeedWith(t *testing.T) *fakeInvoker {
	t.Helper()
	payload := loadFixture(t, "testdata/valid_tailor.json")
	return &fakeInvoker{fn: func(ProviderConfig, string) (string, error) {
		return payload, nil
	}}
}

func failWith(err error) *fakeInvoker {
	return &fakeInvoker{fn: func(ProviderConfig, string) (string, error) {
		return "", err
	}}
}

func newTestOrchestrator(chain string, invokers map[Provider]invoker) *Orchestrator {
	return &Orchestrator{
		settings: Settings{Chain: chain, Cooldown: 10 * time.Second},
		usage:    NewUsageTracker(100, nil),
		invokers: invokers,
	}
}

func TestGenerateSkipsUnconfiguredProvider(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "gemini-key-0123456789")

	groq := failWith(errors.New("should not be called"))
	gemini := succeedWith(t)
	o := newTestOrchestrator("groq,gemini", map[Provider]invoker{
		ProviderGroq:   groq,
		ProviderGemini: gemini,
	})

	resp, err := o.GenerateTailored(context.Background(), "job", "resume")
	if err != nil {
		t.Fatalf("expected fallback success, got %v", err)
	}
	if resp.MatchScore != 87 {
		t.Fatalf("unexpected response: match_score=%v", resp.MatchScore)
	}
	if groq.calls != 0 {
		t.Fatalf("expected no network call to the unconfigured provider, got %d", groq.calls)
	}
	if gemini.calls != 1 {
		t.Fatalf("expected one call to the fallback, got %d", gemini.calls)
	}
}

func TestGenerateShortCredentialIsUnconfigured(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "short")
	t.Setenv("GEMINI_API_KEY", "gemini-key-0123456789")

	groq := failWith(errors.New("should not be called"))
	o := newTestOrchestrator("groq,gemini", map[Provider]invoker{
		ProviderGroq:   groq,
		ProviderGemini: succeedWith(t),
	})

	if _, err := o.GenerateTailored(context.Background(), "job", "resume"); err != nil {
		t.Fatalf("expected fallback success, got %v", err)
	}
	if groq.calls != 0 {
		t.Fatalf("expected short credential to skip without a call, got %d calls", groq.calls)
	}
}

func TestGenerateRateLimitArmsCooldownAndFallsBack(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "groq-key-0123456789")
	t.Setenv("GEMINI_API_KEY", "gemini-key-0123456789")

	groq := failWith(classify(ProviderGroq, 429, fmt.Errorf("http status 429: too many requests")))
	gemini := succeedWith(t)
	o := newTestOrchestrator("groq,gemini", map[Provider]invoker{
		ProviderGroq:   groq,
		ProviderGemini: gemini,
	})

	resp, err := o.GenerateTailored(context.Background(), "job", "resume")
	if err != nil {
		t.Fatalf("expected fallback success, got %v", err)
	}
	if resp == nil {
		t.Fatalf("expected a response")
	}
	if groq.calls != 1 {
		t.Fatalf("expected exactly one groq attempt in this request, got %d", groq.calls)
	}
	if gemini.calls != 1 {
		t.Fatalf("expected one gemini call, got %d", gemini.calls)
	}

	reason, skip := o.usage.SkipReason(ProviderGroq)
	if !skip || !strings.Contains(reason, "cooling down") {
		t.Fatalf("expected groq cooldown to be armed, got skip=%v reason=%q", skip, reason)
	}
}

func TestGenerateRetryExhaustionNamesProvider(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gemini-key-0123456789")

	gemini := failWith(&ProviderError{
		Provider: ProviderGemini,
		Kind:     KindNetworkError,
		Message:  "request timeout (retries exhausted after 3 attempts)",
	})
	o := newTestOrchestrator("gemini", map[Provider]invoker{
		ProviderGemini: gemini,
	})

	_, err := o.GenerateTailored(context.Background(), "job", "resume")
	if err == nil {
		t.Fatalf("expected failure")
	}
	if !strings.Contains(err.Error(), "gemini") {
		t.Fatalf("expected error to name the provider, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "retries exhausted") {
		t.Fatalf("expected error to indicate retry exhaustion, got %q", err.Error())
	}
	if gemini.calls != 1 {
		t.Fatalf("expected a single orchestrator-level attempt, got %d", gemini.calls)
	}
}

func TestGenerateMalformedOutputAdvancesChain(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "groq-key-0123456789")
	t.Setenv("GEMINI_API_KEY", "gemini-key-0123456789")

	groq := &fakeInvoker{fn: func(ProviderConfig, string) (string, error) {
		return "sorry, I cannot help with that", nil
	}}
	o := newTestOrchestrator("groq,gemini", map[Provider]invoker{
		ProviderGroq:   groq,
		ProviderGemini: succeedWith(t),
	})

	if _, err := o.GenerateTailored(context.Background(), "job", "resume"); err != nil {
		t.Fatalf("expected fallback to absorb malformed output, got %v", err)
	}
	if groq.calls != 1 {
		t.Fatalf("expected no local retry on malformed output, got %d calls", groq.calls)
	}
}

func TestGenerateMissingAdapterCountsFailedAttempt(t *testing.T) {
	t.Setenv("BYTEZ_API_KEY", "bytez-key-0123456789")
	t.Setenv("GEMINI_API_KEY", "gemini-key-0123456789")

	o := newTestOrchestrator("bytez,gemini", map[Provider]invoker{
		ProviderGemini: succeedWith(t),
	})

	if _, err := o.GenerateTailored(context.Background(), "job", "resume"); err != nil {
		t.Fatalf("expected fallback success, got %v", err)
	}
	series := `llm_provider_attempts_total{provider="bytez",outcome="failed"}`
	if !strings.Contains(metrics.Render(), series) {
		t.Fatalf("expected the missing-adapter attempt counted in metrics")
	}
}

func TestGenerateExhaustionReturnsLastError(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "groq-key-0123456789")
	t.Setenv("GEMINI_API_KEY", "gemini-key-0123456789")

	o := newTestOrchestrator("groq,gemini", map[Provider]invoker{
		ProviderGroq:   failWith(classify(ProviderGroq, 401, errors.New("http status 401"))),
		ProviderGemini: failWith(classify(ProviderGemini, 402, errors.New("http status 402"))),
	})

	_, err := o.GenerateTailored(context.Background(), "job", "resume")
	if err == nil {
		t.Fatalf("expected failure")
	}
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %T", err)
	}
	if pe.Provider != ProviderGemini || pe.Kind != KindPaymentRequired {
		t.Fatalf("expected last error from gemini payment failure, got provider=%s kind=%s", pe.Provider, pe.Kind)
	}
}

func TestGenerateAllSkippedReturnsGenericError(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	o := newTestOrchestrator("groq,gemini", map[Provider]invoker{
		ProviderGroq:   failWith(errors.New("unreachable")),
		ProviderGemini: failWith(errors.New("unreachable")),
	})

	_, err := o.GenerateTailored(context.Background(), "job", "resume")
	if err == nil {
		t.Fatalf("expected failure")
	}
	if !strings.Contains(err.Error(), "all providers failed or were skipped") {
		t.Fatalf("expected generic exhaustion error, got %q", err.Error())
	}
}

func TestGenerateQuotaSkipAfterSuccesses(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "groq-key-0123456789")
	t.Setenv("GEMINI_API_KEY", "gemini-key-0123456789")

	groq := succeedWith(t)
	gemini := succeedWith(t)
	o := newTestOrchestrator("groq,gemini", map[Provider]invoker{
		ProviderGroq:   groq,
		ProviderGemini: gemini,
	})
	o.usage = NewUsageTracker(1, nil)

	if _, err := o.GenerateTailored(context.Background(), "job", "resume"); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if _, err := o.GenerateTailored(context.Background(), "job", "resume"); err != nil {
		t.Fatalf("second request: %v", err)
	}

	if groq.calls != 1 {
		t.Fatalf("expected groq to be skipped once its daily quota was spent, got %d calls", groq.calls)
	}
	if gemini.calls != 1 {
		t.Fatalf("expected gemini to absorb the second request, got %d calls", gemini.calls)
	}
}

func TestGenerateHonorsContextCancellation(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "groq-key-0123456789")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := newTestOrchestrator("groq", map[Provider]invoker{
		ProviderGroq: succeedWith(t),
	})

	if _, err := o.GenerateTailored(ctx, "job", "resume"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}
