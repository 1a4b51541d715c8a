package llm

import (
	_ "embed"
	"strings"
	"unicode/utf8"
)

//go:embed prompts/tailor_v1.txt
var tailorPromptV1 string

// promptInputLimit caps each input when building the prompt. The HTTP layer
// applies its own larger cap before text ever reaches the core.
const promptInputLimit = 3500

// BuildTailorPrompt renders the tailoring prompt for the given job
// description and resume text, truncating each to the prompt input limit.
func BuildTailorPrompt(jobDescription, resumeText string) string {
	prompt := strings.ReplaceAll(tailorPromptV1, "{{JOB_DESCRIPTION}}", truncate(jobDescription, promptInputLimit))
	return strings.ReplaceAll(prompt, "{{RESUME_TEXT}}", truncate(resumeText, promptInputLimit))
}

// truncate cuts s to at most limit bytes, stepping back to a rune boundary
// so a multi-byte character is never split.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
