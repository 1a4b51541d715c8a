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

	"github.com/tidwall/gjson"
)

const (
	openRouterReferer = "https://tailor-backend.app"
	openRouterTitle   = "Resume Tailor"
)

// openRouterInvoker posts to OpenRouter's REST endpoint with its referer
// and title attribution headers and narrows the raw body itself.
type openRouterInvoker struct {
	httpClient     *http.Client
	attemptTimeout time.Duration
}

func newOpenRouterInvoker(attemptTimeout time.Duration) *openRouterInvoker {
	return &openRouterInvoker{
		httpClient:     &http.Client{},
		attemptTimeout: attemptTimeout,
	}
}

func (o *openRouterInvoker) Invoke(ctx context.Context, cfg ProviderConfig, prompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: chatTemperature,
		MaxTokens:   chatMaxTokens,
	})
	if err != nil {
		return "", classify(cfg.Provider, 0, err)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, o.attemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, cfg.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return "", classify(cfg.Provider, 0, err)
	}
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("HTTP-Referer", openRouterReferer)
	req.Header.Set("X-Title", openRouterTitle)

	resp, err := o.httpClient.Do(req)
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

	if errMsg := gjson.GetBytes(body, "error.message"); errMsg.Exists() {
		status := int(gjson.GetBytes(body, "error.code").Int())
		return "", classify(cfg.Provider, status, fmt.Errorf("upstream error: %s", errMsg.String()))
	}
	content := strings.TrimSpace(gjson.GetBytes(body, "choices.0.message.content").String())
	if content == "" {
		return "", classify(cfg.Provider, 0, fmt.Errorf("response empty content"))
	}
	return content, nil
}
