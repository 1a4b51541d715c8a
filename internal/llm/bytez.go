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

// bytezInvoker calls the Bytez one-shot run endpoint. The output field
// arrives in one of several shapes (a bare string, an object with content,
// or a list of generations), so the body is narrowed with gjson rather than
// unmarshalled into a fixed struct.
type bytezInvoker struct {
	httpClient     *http.Client
	attemptTimeout time.Duration
}

func newBytezInvoker(attemptTimeout time.Duration) *bytezInvoker {
	return &bytezInvoker{
		httpClient:     &http.Client{},
		attemptTimeout: attemptTimeout,
	}
}

type bytezRequest struct {
	Messages []chatMessage `json:"messages"`
}

func (b *bytezInvoker) Invoke(ctx context.Context, cfg ProviderConfig, prompt string) (string, error) {
	payload, err := json.Marshal(bytezRequest{
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", classify(cfg.Provider, 0, err)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, b.attemptTimeout)
	defer cancel()

	url := strings.TrimRight(cfg.BaseURL, "/") + "/" + cfg.Model
	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", classify(cfg.Provider, 0, err)
	}
	req.Header.Set("Authorization", "Key "+cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
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

	if upstreamErr := gjson.GetBytes(body, "error"); upstreamErr.Exists() && upstreamErr.String() != "" {
		return "", classify(cfg.Provider, 0, fmt.Errorf("upstream error: %s", upstreamErr.String()))
	}

	content := narrowBytezOutput(body)
	if content == "" {
		return "", classify(cfg.Provider, 0, fmt.Errorf("response empty content"))
	}
	return content, nil
}

// narrowBytezOutput extracts the assistant text from whichever shape the
// run endpoint used.
func narrowBytezOutput(body []byte) string {
	output := gjson.GetBytes(body, "output")
	if !output.Exists() {
		return ""
	}
	if output.Type == gjson.String {
		return strings.TrimSpace(output.String())
	}
	for _, path := range []string{"content", "0.generated_text", "0.content", "0.message.content"} {
		if v := output.Get(path); v.Exists() && v.Type == gjson.String {
			return strings.TrimSpace(v.String())
		}
	}
	return ""
}
