package tailor

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"tailor-backend/internal/llm"
	"tailor-backend/internal/shared/metrics"
	"tailor-backend/internal/shared/server/respond"
)

// Generator produces a tailored resume for a job description.
type Generator interface {
	GenerateTailored(ctx context.Context, jobDescription, resumeText string) (*llm.TailorResponse, error)
}

// Handler serves the tailoring endpoint.
type Handler struct {
	generator     Generator
	maxInputChars int
}

// NewHandler constructs a Handler. maxInputChars caps each text input
// before it reaches the orchestrator; zero means the default of 8000.
func NewHandler(generator Generator, maxInputChars int) *Handler {
	if maxInputChars <= 0 {
		maxInputChars = 8000
	}
	return &Handler{generator: generator, maxInputChars: maxInputChars}
}

type tailorRequest struct {
	JobDescription string `json:"job_description"`
	ResumeText     string `json:"resume_text"`
}

// Generate handles POST /api/v1/tailor.
func (h *Handler) Generate(c *gin.Context) {
	var req tailorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "bad_request", "Invalid JSON body", nil)
		return
	}
	req.JobDescription = strings.TrimSpace(req.JobDescription)
	req.ResumeText = strings.TrimSpace(req.ResumeText)
	if req.JobDescription == "" || req.ResumeText == "" {
		respond.Error(c, http.StatusBadRequest, "bad_request", "job_description and resume_text are required", nil)
		return
	}
	req.JobDescription = truncate(req.JobDescription, h.maxInputChars)
	req.ResumeText = truncate(req.ResumeText, h.maxInputChars)

	metrics.IncTailorStarted()
	start := time.Now()

	result, err := h.generator.GenerateTailored(c.Request.Context(), req.JobDescription, req.ResumeText)
	metrics.ObserveTailorDurationMs(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.IncTailorFailed()
		status, code, details := mapError(c, err)
		respond.Error(c, status, code, err.Error(), details)
		return
	}

	metrics.IncTailorCompleted()
	respond.OK(c, result)
}

// truncate cuts s to at most limit bytes without splitting a multi-byte
// character.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

// mapError converts orchestration failures into HTTP statuses. Rate limits
// and quota exhaustion become 429, upstream unavailability and connectivity
// failures become 503, everything else is a 500.
func mapError(c *gin.Context, err error) (status int, code string, details any) {
	if errors.Is(err, llm.ErrNoProviders) {
		return http.StatusInternalServerError, "config", nil
	}

	var pe *llm.ProviderError
	if !errors.As(err, &pe) {
		return http.StatusInternalServerError, "internal", nil
	}

	c.Set("llmProvider", string(pe.Provider))
	details = gin.H{"provider": pe.Provider, "kind": pe.Kind.String()}

	switch pe.Kind {
	case llm.KindRateLimited, llm.KindCooldown, llm.KindQuotaExceeded:
		return http.StatusTooManyRequests, "rate_limited", details
	case llm.KindUnavailable, llm.KindNetworkError:
		return http.StatusServiceUnavailable, "unavailable", details
	default:
		return http.StatusInternalServerError, "generation_failed", details
	}
}
