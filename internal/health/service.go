package health

import (
	"tailor-backend/internal/llm"
)

// Service reports process liveness and which LLM providers currently have
// credentials configured. It never reveals the credentials themselves.
type Service struct{}

// NewService constructs a new health service.
func NewService() *Service {
	return &Service{}
}

// Status returns the health payload served on the health endpoint.
func (s *Service) Status() map[string]any {
	providers := make(map[string]bool, len(llm.SupportedProviders))
	for _, p := range llm.SupportedProviders {
		cfg := llm.ResolveConfig(p)
		providers[string(p)] = cfg.APIKey != ""
	}
	return map[string]any{
		"ok":        true,
		"providers": providers,
	}
}
