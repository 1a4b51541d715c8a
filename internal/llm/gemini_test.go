package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testGeminiConfig(url string) ProviderConfig {
	return ProviderConfig{
		Provider: ProviderGemini,
		APIKey:   "gemini-key-0123456789",
		BaseURL:  url,
		Model:    "gemini-2.0-flash",
	}
}

func TestGeminiInvokerConcatenatesParts(t *testing.T) {
	var gotKey, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-goog-api-key")
		gotPath = r.URL.Path
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"a\":"},{"text":"1}"}]}}]}`))
	}))
	defer srv.Close()

	g := newGeminiInvoker(5 * time.Second)
	content, err := g.Invoke(context.Background(), testGeminiConfig(srv.URL), "prompt")
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if content != `{"a":1}` {
		t.Fatalf("expected concatenated parts, got %q", content)
	}
	if gotKey != "gemini-key-0123456789" {
		t.Fatalf("expected api key header, got %q", gotKey)
	}
	if gotPath != "/models/gemini-2.0-flash:generateContent" {
		t.Fatalf("unexpected path %q", gotPath)
	}
}

func TestGeminiInvokerEnvelopeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer srv.Close()

	g := newGeminiInvoker(5 * time.Second)
	_, err := g.Invoke(context.Background(), testGeminiConfig(srv.URL), "prompt")
	var pe *ProviderError
	if !errors.As(err, &pe) || pe.Kind != KindRateLimited {
		t.Fatalf("expected rate-limited from envelope code, got %v", err)
	}
}

func TestGeminiInvokerEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	g := newGeminiInvoker(5 * time.Second)
	_, err := g.Invoke(context.Background(), testGeminiConfig(srv.URL), "prompt")
	if err == nil {
		t.Fatalf("expected error for empty candidates")
	}
}
