package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// geminiInvoker posts a parts-based generateContent request and
// concatenates every returned text part.
type geminiInvoker struct {
	httpClient     *http.Client
	attemptTimeout time.Duration
}

func newGeminiInvoker(attemptTimeout time.Duration) *geminiInvoker {
	return &geminiInvoker{
		httpClient:     &http.Client{},
		attemptTimeout: attemptTimeout,
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

func (g *geminiInvoker) Invoke(ctx context.Context, cfg ProviderConfig, prompt string) (string, error) {
	payload, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", classify(cfg.Provider, 0, err)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, g.attemptTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(cfg.BaseURL, "/"), cfg.Model)
	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", classify(cfg.Provider, 0, err)
	}
	req.Header.Set("x-goog-api-key", cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", classify(cfg.Provider, 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classify(cfg.Provider, 0, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", classify(cfg.Provider, resp.StatusCode, fmt.Errorf("http status %d: %s", resp.StatusCode, snippet(body)))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", classify(cfg.Provider, 0, fmt.Errorf("response parse: %w", err))
	}
	if parsed.Error != nil {
		return "", classify(cfg.Provider, parsed.Error.Code, fmt.Errorf("upstream error: %s (%s)", parsed.Error.Message, parsed.Error.Status))
	}

	var b strings.Builder
	for _, cand := range parsed.Candidates {
		for _, part := range cand.Content.Parts {
			b.WriteString(part.Text)
		}
	}
	content := strings.TrimSpace(b.String())
	if content == "" {
		return "", classify(cfg.Provider, 0, fmt.Errorf("response empty content"))
	}
	return content, nil
}
