package llm

import (
	"encoding/json"
	"fmt"
)

// TailorResponse is the validated output of a successful generation. It is
// immutable once produced; the orchestrator returns at most one provider's
// result and never merges across providers.
//
// JSON shape:
//
//	{
//	  "tailored": {
//	    "summary": "string",
//	    "skills": ["string"],
//	    "experience_bullets": ["string"],
//	    "suggested_keywords": ["string"],
//	    "dynamic_sections": {"<category>": ["string"]},
//	    "customization_suggestions": [{"suggestion": "string", "priority": "high|medium|low"}]
//	  },
//	  "resume": {"sections": {"<name>": "string"}, "full_text": "string"},
//	  "match_score": "number (0-100)",
//	  "application_strategy": "string",
//	  "projects": [{"name": "string", "description": "string", "relevance_score": "number"}],
//	  "competitive_analysis": "string"
//	}
type TailorResponse struct {
	Tailored            TailoredContent `json:"tailored"`
	Resume              TailoredResume  `json:"resume"`
	MatchScore          float64         `json:"match_score"`
	ApplicationStrategy string          `json:"application_strategy"`
	Projects            []Project       `json:"projects"`
	CompetitiveAnalysis string          `json:"competitive_analysis"`
}

type TailoredContent struct {
	Summary                  string              `json:"summary"`
	Skills                   []string            `json:"skills"`
	ExperienceBullets        []string            `json:"experience_bullets"`
	SuggestedKeywords        []string            `json:"suggested_keywords"`
	DynamicSections          map[string][]string `json:"dynamic_sections,omitempty"`
	CustomizationSuggestions []Suggestion        `json:"customization_suggestions"`
}

type SuggestionPriority string

const (
	PriorityHigh   SuggestionPriority = "high"
	PriorityMedium SuggestionPriority = "medium"
	PriorityLow    SuggestionPriority = "low"
)

type Suggestion struct {
	Suggestion string             `json:"suggestion"`
	Priority   SuggestionPriority `json:"priority"`
}

type TailoredResume struct {
	Sections map[string]string `json:"sections"`
	FullText string            `json:"full_text"`
}

type Project struct {
	Name           string  `json:"name"`
	Description    string  `json:"description,omitempty"`
	RelevanceScore float64 `json:"relevance_score"`
}

// requiredTopLevelKeys must all be present in the raw object; absent-field
// zero values are indistinguishable after unmarshal, so presence is checked
// against the raw JSON.
var requiredTopLevelKeys = []string{
	"tailored",
	"resume",
	"match_score",
	"application_strategy",
	"competitive_analysis",
}

// validateRequired checks key presence against the raw object, then field
// constraints against the parsed struct. Violations are reported with a
// stable "missing required fields" prefix.
func (r *TailorResponse) validateRequired(raw []byte) error {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return fmt.Errorf("missing required fields: response is not an object")
	}
	for _, key := range requiredTopLevelKeys {
		if _, ok := top[key]; !ok {
			return fmt.Errorf("missing required fields: %s", key)
		}
	}
	return r.Validate()
}

// Validate checks field-level schema constraints.
func (r *TailorResponse) Validate() error {
	if r.Tailored.Summary == "" {
		return fmt.Errorf("missing required fields: tailored.summary")
	}
	if len(r.Tailored.Skills) == 0 {
		return fmt.Errorf("missing required fields: tailored.skills")
	}
	if len(r.Tailored.ExperienceBullets) == 0 {
		return fmt.Errorf("missing required fields: tailored.experience_bullets")
	}
	if len(r.Tailored.SuggestedKeywords) == 0 {
		return fmt.Errorf("missing required fields: tailored.suggested_keywords")
	}
	for i, s := range r.Tailored.CustomizationSuggestions {
		if s.Suggestion == "" {
			return fmt.Errorf("missing required fields: tailored.customization_suggestions[%d].suggestion", i)
		}
		switch s.Priority {
		case PriorityHigh, PriorityMedium, PriorityLow:
		default:
			return fmt.Errorf("missing required fields: tailored.customization_suggestions[%d].priority must be high, medium or low", i)
		}
	}
	if r.Resume.FullText == "" {
		return fmt.Errorf("missing required fields: resume.full_text")
	}
	if r.MatchScore < 0 || r.MatchScore > 100 {
		return fmt.Errorf("missing required fields: match_score must be between 0 and 100")
	}
	if r.ApplicationStrategy == "" {
		return fmt.Errorf("missing required fields: application_strategy")
	}
	if r.CompetitiveAnalysis == "" {
		return fmt.Errorf("missing required fields: competitive_analysis")
	}
	return nil
}
