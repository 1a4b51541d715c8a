package llm

import (
	"reflect"
	"testing"
)

func TestBuildChainExplicit(t *testing.T) {
	cases := []struct {
		name  string
		chain string
		want  []Provider
	}{
		{
			name:  "simple chain",
			chain: "groq,gemini,openai",
			want:  []Provider{ProviderGroq, ProviderGemini, ProviderOpenAI},
		},
		{
			name:  "dedupes preserving first seen",
			chain: "groq,gemini,groq,gemini,openai",
			want:  []Provider{ProviderGroq, ProviderGemini, ProviderOpenAI},
		},
		{
			name:  "unknown tokens normalize to the default",
			chain: "nonsense,groq",
			want:  []Provider{ProviderOpenRouter, ProviderGroq},
		},
		{
			name:  "whitespace and case are tolerated",
			chain: " Groq , TOGETHER ,hf",
			want:  []Provider{ProviderGroq, ProviderTogether, ProviderHuggingFace},
		},
		{
			name:  "empty tokens are skipped",
			chain: ",,bytez,,",
			want:  []Provider{ProviderBytez},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Settings{Chain: tc.chain}.BuildChain()
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestBuildChainLadder(t *testing.T) {
	s := Settings{Ladder: []string{"gemini", "", "bogus", "groq"}}
	got := s.BuildChain()
	want := []Provider{ProviderGemini, ProviderGroq}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestBuildChainLadderDedupes(t *testing.T) {
	s := Settings{Ladder: []string{"groq", "groq", "groq", "groq"}}
	got := s.BuildChain()
	if !reflect.DeepEqual(got, []Provider{ProviderGroq}) {
		t.Fatalf("expected single groq, got %v", got)
	}
}

func TestBuildChainDefault(t *testing.T) {
	got := Settings{}.BuildChain()
	if !reflect.DeepEqual(got, defaultChain) {
		t.Fatalf("expected default chain %v, got %v", defaultChain, got)
	}
}

func TestBuildChainExplicitWinsOverLadder(t *testing.T) {
	s := Settings{Chain: "together", Ladder: []string{"groq"}}
	got := s.BuildChain()
	if !reflect.DeepEqual(got, []Provider{ProviderTogether}) {
		t.Fatalf("expected together, got %v", got)
	}
}

func TestBuildChainAlwaysDistinctAndSupported(t *testing.T) {
	chains := []string{
		"groq,groq,gemini",
		"junk,more-junk,openrouter",
		"huggingface,openrouter,groq,bytez,gemini,together,openai,huggingface",
		"",
	}
	supported := make(map[Provider]struct{}, len(SupportedProviders))
	for _, p := range SupportedProviders {
		supported[p] = struct{}{}
	}

	for _, raw := range chains {
		got := Settings{Chain: raw}.BuildChain()
		seen := make(map[Provider]struct{}, len(got))
		for _, p := range got {
			if _, ok := supported[p]; !ok {
				t.Fatalf("chain %q produced unsupported provider %q", raw, p)
			}
			if _, dup := seen[p]; dup {
				t.Fatalf("chain %q produced duplicate provider %q", raw, p)
			}
			seen[p] = struct{}{}
		}
		if len(got) == 0 {
			t.Fatalf("chain %q produced empty provider list", raw)
		}
	}
}

func TestParseProviderAliases(t *testing.T) {
	if p, ok := ParseProvider("hf"); !ok || p != ProviderHuggingFace {
		t.Fatalf("expected hf alias to parse, got %q ok=%v", p, ok)
	}
	if p, ok := ParseProvider("google"); !ok || p != ProviderGemini {
		t.Fatalf("expected google alias to parse, got %q ok=%v", p, ok)
	}
	if _, ok := ParseProvider("claude"); ok {
		t.Fatalf("expected unknown provider to fail parsing")
	}
}
