package llm

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"tailor-backend/internal/shared/metrics"
)

// A credential shorter than this is treated as unconfigured and the
// provider is skipped without a network call.
const minCredentialLen = 10

// AttemptOutcome summarizes how one provider fared during a request.
type AttemptOutcome string

const (
	OutcomeSkippedUnconfigured AttemptOutcome = "skipped-unconfigured"
	OutcomeSkippedCooldown     AttemptOutcome = "skipped-cooldown"
	OutcomeSkippedQuota        AttemptOutcome = "skipped-quota"
	OutcomeSucceeded           AttemptOutcome = "succeeded"
	OutcomeFailed              AttemptOutcome = "failed"
)

// Attempt records one provider's outcome for telemetry.
type Attempt struct {
	Provider Provider
	Outcome  AttemptOutcome
	Detail   string
}

// Orchestrator drives the provider chain for tailoring requests. One
// instance holds all per-provider usage and throttle state; construct it
// once at startup and share it across handlers.
type Orchestrator struct {
	settings Settings
	usage    *UsageTracker
	invokers map[Provider]invoker
}

// NewOrchestrator wires the per-provider adapters and shared state from the
// given settings.
func NewOrchestrator(s Settings) *Orchestrator {
	chat := newChatCompletions(s.AttemptTimeout)
	hfThrottle := NewThrottle(s.HFWindow, s.HFMaxRequests, s.HFMaxConcurrent)
	hfChat := newChatCompletions(s.AttemptTimeout)
	hfChat.pace = hfThrottle.Pace

	return &Orchestrator{
		settings: s,
		usage:    NewUsageTracker(s.GroqDailyLimit, nil),
		invokers: map[Provider]invoker{
			ProviderHuggingFace: newHFInvoker(hfChat, hfThrottle, s.HFMaxRetries, s.HFRetryBaseDelay),
			ProviderGroq:        chat,
			ProviderTogether:    chat,
			ProviderOpenRouter:  newOpenRouterInvoker(s.AttemptTimeout),
			ProviderBytez:       newBytezInvoker(s.AttemptTimeout),
			ProviderGemini:      newGeminiInvoker(s.AttemptTimeout),
			ProviderOpenAI:      newOpenAIInvoker(s.AttemptTimeout),
		},
	}
}

// GenerateTailored runs the provider chain for the given job description
// and resume text, returning the first validated result. Exactly one
// provider's output is ever returned; failures advance the chain and only
// exhausting it surfaces the last recorded error.
func (o *Orchestrator) GenerateTailored(ctx context.Context, jobDescription, resumeText string) (*TailorResponse, error) {
	chain := o.settings.BuildChain()
	if len(chain) == 0 {
		return nil, ErrNoProviders
	}

	genID := uuid.NewString()
	prompt := BuildTailorPrompt(jobDescription, resumeText)
	log.Printf("llm generate id=%s chain=%s", genID, joinProviders(chain))

	var attempts []Attempt
	var lastErr *ProviderError

	for _, p := range chain {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cfg := ResolveConfig(p)
		if len(cfg.APIKey) < minCredentialLen {
			attempts = append(attempts, Attempt{Provider: p, Outcome: OutcomeSkippedUnconfigured})
			metrics.IncProviderAttempt(string(p), string(OutcomeSkippedUnconfigured))
			log.Printf("llm skip id=%s provider=%s reason=unconfigured", genID, p)
			continue
		}

		if reason, skip := o.usage.SkipReason(p); skip {
			outcome := OutcomeSkippedCooldown
			if strings.Contains(reason, "daily limit") {
				outcome = OutcomeSkippedQuota
			}
			attempts = append(attempts, Attempt{Provider: p, Outcome: outcome, Detail: reason})
			metrics.IncProviderAttempt(string(p), string(outcome))
			log.Printf("llm skip id=%s provider=%s reason=%q", genID, p, reason)
			continue
		}

		inv, ok := o.invokers[p]
		if !ok {
			attempts = append(attempts, Attempt{Provider: p, Outcome: OutcomeFailed, Detail: "no adapter"})
			metrics.IncProviderAttempt(string(p), string(OutcomeFailed))
			log.Printf("llm skip id=%s provider=%s reason=%q", genID, p, "no adapter")
			continue
		}

		content, err := inv.Invoke(ctx, cfg, prompt)
		if err == nil {
			var resp *TailorResponse
			resp, err = ExtractTailorResponse(content)
			if err == nil {
				o.usage.RecordSuccess(p)
				attempts = append(attempts, Attempt{Provider: p, Outcome: OutcomeSucceeded})
				metrics.IncProviderAttempt(string(p), string(OutcomeSucceeded))
				log.Printf("llm success id=%s provider=%s model=%s", genID, p, cfg.Model)
				return resp, nil
			}
		}

		pe := AsProviderError(p, err)
		if pe.Kind == KindRateLimited {
			o.usage.RecordCooldown(p, o.settings.Cooldown)
		}
		lastErr = pe
		attempts = append(attempts, Attempt{Provider: p, Outcome: OutcomeFailed, Detail: sanitizeError(pe)})
		metrics.IncProviderAttempt(string(p), string(OutcomeFailed))
		log.Printf("llm attempt failed id=%s provider=%s kind=%s status=%d error=%s", genID, p, pe.Kind, pe.Status, sanitizeError(pe))
	}

	log.Printf("llm exhausted id=%s attempts=%s", genID, summarizeAttempts(attempts))
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, &ProviderError{
		Kind:    KindUnknown,
		Message: fmt.Sprintf("all providers failed or were skipped (%s)", summarizeAttempts(attempts)),
	}
}

func joinProviders(chain []Provider) string {
	names := make([]string, len(chain))
	for i, p := range chain {
		names[i] = string(p)
	}
	return strings.Join(names, ",")
}

func summarizeAttempts(attempts []Attempt) string {
	parts := make([]string, len(attempts))
	for i, a := range attempts {
		parts[i] = fmt.Sprintf("%s=%s", a.Provider, a.Outcome)
	}
	return strings.Join(parts, " ")
}
