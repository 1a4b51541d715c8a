package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractTailorResponse recovers the JSON object embedded in raw assistant
// text and validates it. The failure messages are distinct per stage and
// stable: downstream callers surface them verbatim.
func ExtractTailorResponse(raw string) (*TailorResponse, error) {
	cleaned := stripCodeFences(raw)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end < start {
		return nil, &ProviderError{
			Kind:    KindMalformedOutput,
			Message: "model did not return JSON, try again later",
		}
	}

	slice := cleaned[start : end+1]
	if strings.Count(slice, "{") != strings.Count(slice, "}") {
		return nil, &ProviderError{
			Kind:    KindMalformedOutput,
			Message: "incomplete JSON in model output",
		}
	}

	var resp TailorResponse
	if err := json.Unmarshal([]byte(slice), &resp); err != nil {
		return nil, &ProviderError{
			Kind:    KindMalformedOutput,
			Message: fmt.Sprintf("invalid JSON: %v", err),
			Err:     err,
		}
	}

	if err := resp.validateRequired([]byte(slice)); err != nil {
		return nil, &ProviderError{
			Kind:    KindSchemaInvalid,
			Message: err.Error(),
			Err:     err,
		}
	}
	return &resp, nil
}

// stripCodeFences removes Markdown fence markers while leaving the fenced
// content in place.
func stripCodeFences(raw string) string {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```JSON", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}
