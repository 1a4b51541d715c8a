package llm

import (
	"os"
	"strings"
)

// Provider identifies a supported LLM vendor. Used as a map key everywhere.
type Provider string

const (
	ProviderHuggingFace Provider = "huggingface"
	ProviderOpenRouter  Provider = "openrouter"
	ProviderGroq        Provider = "groq"
	ProviderBytez       Provider = "bytez"
	ProviderGemini      Provider = "gemini"
	ProviderTogether    Provider = "together"
	ProviderOpenAI      Provider = "openai"
)

// SupportedProviders lists every provider the orchestrator can dispatch to,
// in no particular order.
var SupportedProviders = []Provider{
	ProviderHuggingFace,
	ProviderOpenRouter,
	ProviderGroq,
	ProviderBytez,
	ProviderGemini,
	ProviderTogether,
	ProviderOpenAI,
}

// ParseProvider normalizes a raw configuration token into a supported
// identifier. The second return is false when the token is unrecognized.
func ParseProvider(raw string) (Provider, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "huggingface", "hf":
		return ProviderHuggingFace, true
	case "openrouter":
		return ProviderOpenRouter, true
	case "groq":
		return ProviderGroq, true
	case "bytez":
		return ProviderBytez, true
	case "gemini", "google":
		return ProviderGemini, true
	case "together", "togetherai":
		return ProviderTogether, true
	case "openai":
		return ProviderOpenAI, true
	default:
		return "", false
	}
}

// ProviderConfig is the resolved connection configuration for one provider.
// It is recomputed per call because credentials can change between process
// restarts but never mid-request; nothing here is cached or persisted.
type ProviderConfig struct {
	Provider Provider
	APIKey   string
	BaseURL  string
	Model    string
}

// CredentialEnv returns the environment variable holding the provider's
// API key. One fixed name per identifier, no aliases.
func (p Provider) CredentialEnv() string {
	switch p {
	case ProviderHuggingFace:
		return "HF_TOKEN"
	case ProviderOpenRouter:
		return "OPENROUTER_API_KEY"
	case ProviderGroq:
		return "GROQ_API_KEY"
	case ProviderBytez:
		return "BYTEZ_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	case ProviderTogether:
		return "TOGETHER_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}

// ResolveConfig derives the connection configuration for p from the current
// environment. Pure function of identifier + environment, no side effects.
func ResolveConfig(p Provider) ProviderConfig {
	cfg := ProviderConfig{
		Provider: p,
		APIKey:   strings.TrimSpace(os.Getenv(p.CredentialEnv())),
	}
	switch p {
	case ProviderHuggingFace:
		cfg.BaseURL = envOr("HF_BASE_URL", "https://router.huggingface.co/v1/chat/completions")
		cfg.Model = envOr("HF_MODEL", "meta-llama/Meta-Llama-3-8B-Instruct")
	case ProviderOpenRouter:
		cfg.BaseURL = envOr("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1/chat/completions")
		cfg.Model = envOr("OPENROUTER_MODEL", "meta-llama/llama-3.1-8b-instruct:free")
	case ProviderGroq:
		cfg.BaseURL = envOr("GROQ_BASE_URL", "https://api.groq.com/openai/v1/chat/completions")
		cfg.Model = envOr("GROQ_MODEL", "llama-3.1-8b-instant")
	case ProviderBytez:
		cfg.BaseURL = envOr("BYTEZ_BASE_URL", "https://api.bytez.com/models/v2")
		cfg.Model = envOr("BYTEZ_MODEL", "google/gemma-2-2b-it")
	case ProviderGemini:
		cfg.BaseURL = envOr("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta")
		cfg.Model = envOr("GEMINI_MODEL", "gemini-1.5-flash")
	case ProviderTogether:
		cfg.BaseURL = envOr("TOGETHER_BASE_URL", "https://api.together.xyz/v1/chat/completions")
		cfg.Model = envOr("TOGETHER_MODEL", "meta-llama/Llama-3.3-70B-Instruct-Turbo-Free")
	case ProviderOpenAI:
		cfg.BaseURL = strings.TrimSpace(os.Getenv("OPENAI_BASE_URL"))
		cfg.Model = envOr("OPENAI_MODEL", "gpt-4o-mini")
	}
	return cfg
}

func envOr(key, def string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return def
}
