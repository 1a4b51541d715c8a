package llm

import "strings"

// defaultChain is used when neither an explicit chain nor a fallback ladder
// is configured.
var defaultChain = []Provider{ProviderOpenRouter, ProviderGroq}

// chainDefaultProvider is what unrecognized tokens in an explicit chain
// normalize to instead of erroring.
const chainDefaultProvider = ProviderOpenRouter

// BuildChain computes the ordered list of distinct providers to attempt.
//
// Resolution order: an explicit comma-separated chain wins, then the
// fallback ladder, then the built-in default. Duplicates are dropped
// preserving first-seen order.
func (s Settings) BuildChain() []Provider {
	if trimmed := strings.TrimSpace(s.Chain); trimmed != "" {
		var chain []Provider
		for _, token := range strings.Split(trimmed, ",") {
			if strings.TrimSpace(token) == "" {
				continue
			}
			p, ok := ParseProvider(token)
			if !ok {
				p = chainDefaultProvider
			}
			chain = append(chain, p)
		}
		if deduped := dedupeProviders(chain); len(deduped) > 0 {
			return deduped
		}
	}

	var ladder []Provider
	for _, stage := range s.Ladder {
		if strings.TrimSpace(stage) == "" {
			continue
		}
		if p, ok := ParseProvider(stage); ok {
			ladder = append(ladder, p)
		}
	}
	if deduped := dedupeProviders(ladder); len(deduped) > 0 {
		return deduped
	}

	return append([]Provider(nil), defaultChain...)
}

func dedupeProviders(in []Provider) []Provider {
	seen := make(map[Provider]struct{}, len(in))
	var out []Provider
	for _, p := range in {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
