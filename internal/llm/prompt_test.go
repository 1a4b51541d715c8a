package llm

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestBuildTailorPromptSubstitutesInputs(t *testing.T) {
	prompt := BuildTailorPrompt("backend engineer role", "ten years of Go")
	if !strings.Contains(prompt, "backend engineer role") {
		t.Fatalf("prompt missing job description")
	}
	if !strings.Contains(prompt, "ten years of Go") {
		t.Fatalf("prompt missing resume text")
	}
	if strings.Contains(prompt, "{{JOB_DESCRIPTION}}") || strings.Contains(prompt, "{{RESUME_TEXT}}") {
		t.Fatalf("prompt still contains template placeholders")
	}
}

func TestBuildTailorPromptTruncatesInputs(t *testing.T) {
	long := strings.Repeat("x", promptInputLimit+500)
	prompt := BuildTailorPrompt(long, "resume")
	if strings.Contains(prompt, long) {
		t.Fatalf("expected job description truncated before substitution")
	}
	if !strings.Contains(prompt, long[:promptInputLimit]) {
		t.Fatalf("expected the first %d bytes retained", promptInputLimit)
	}
}

func TestTruncateKeepsRuneBoundaries(t *testing.T) {
	s := strings.Repeat("é", 10) // 2 bytes per rune

	for limit := 0; limit <= len(s); limit++ {
		got := truncate(s, limit)
		if len(got) > limit {
			t.Fatalf("limit %d: result %d bytes long", limit, len(got))
		}
		if !utf8.ValidString(got) {
			t.Fatalf("limit %d: truncation split a rune: %q", limit, got)
		}
	}

	if got := truncate("日本語テキスト", 7); !utf8.ValidString(got) || len(got) > 7 {
		t.Fatalf("expected valid UTF-8 within 7 bytes, got %q (%d bytes)", got, len(got))
	}
}
