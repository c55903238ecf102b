package narrative

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"salesintel/models"
)

const fence = "```"

// StripCodeFences removes an enclosing ``` or ```json block around text.
func StripCodeFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, fence) {
		return s
	}
	s = strings.TrimPrefix(s, fence)
	s = strings.TrimLeftFunc(s, unicode.IsLetter)
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, fence)
	return strings.TrimSpace(s)
}

// wireNarrative mirrors models.Narrative with pointers so missing keys are
// distinguishable from empty ones.
type wireNarrative struct {
	ExecutiveSummary   *string          `json:"executive_summary"`
	KeyRisks           *textList        `json:"key_risks"`
	DataInsights       *textList        `json:"data_insights"`
	RecommendedActions *textList        `json:"recommended_actions"`
	ConfidenceScore    *json.RawMessage `json:"confidence_score"`
}

// textList accepts plain strings, numbers and {metric, value} objects.
type textList []string

func (l *textList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		text, err := flatten(item)
		if err != nil {
			return err
		}
		if text != "" {
			out = append(out, text)
		}
	}
	*l = out
	return nil
}

func flatten(item json.RawMessage) (string, error) {
	item = bytes.TrimSpace(item)
	if len(item) == 0 || string(item) == "null" {
		return "", nil
	}
	switch item[0] {
	case '"':
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	case '{':
		var obj struct {
			Metric string          `json:"metric"`
			Value  json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(item, &obj); err != nil {
			return "", err
		}
		if obj.Metric == "" {
			return compact(item), nil
		}
		value, err := scalar(obj.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s: %s", obj.Metric, value), nil
	default:
		return scalar(item)
	}
}

func scalar(v json.RawMessage) (string, error) {
	v = bytes.TrimSpace(v)
	if len(v) == 0 {
		return "", nil
	}
	if v[0] == '"' {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	return compact(v), nil
}

func compact(v json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, v); err != nil {
		return string(v)
	}
	return buf.String()
}

// ParseResponse decodes a service reply into a narrative. The reply may be
// fenced; all five keys must be present and the summary and confidence must
// be non-empty.
func ParseResponse(text string) (models.Narrative, error) {
	body := StripCodeFences(text)
	if body == "" {
		return models.Narrative{}, fmt.Errorf("%w: empty response", models.ErrNarrativeService)
	}

	var w wireNarrative
	if err := json.Unmarshal([]byte(body), &w); err != nil {
		return models.Narrative{}, fmt.Errorf("%w: decode response: %v", models.ErrNarrativeService, err)
	}

	switch {
	case w.ExecutiveSummary == nil || strings.TrimSpace(*w.ExecutiveSummary) == "":
		return models.Narrative{}, fmt.Errorf("%w: missing executive_summary", models.ErrNarrativeService)
	case w.KeyRisks == nil:
		return models.Narrative{}, fmt.Errorf("%w: missing key_risks", models.ErrNarrativeService)
	case w.DataInsights == nil:
		return models.Narrative{}, fmt.Errorf("%w: missing data_insights", models.ErrNarrativeService)
	case w.RecommendedActions == nil:
		return models.Narrative{}, fmt.Errorf("%w: missing recommended_actions", models.ErrNarrativeService)
	case w.ConfidenceScore == nil:
		return models.Narrative{}, fmt.Errorf("%w: missing confidence_score", models.ErrNarrativeService)
	}

	confidence, err := scalar(*w.ConfidenceScore)
	if err != nil || strings.TrimSpace(confidence) == "" || confidence == "null" {
		return models.Narrative{}, fmt.Errorf("%w: empty confidence_score", models.ErrNarrativeService)
	}

	return models.Narrative{
		ExecutiveSummary:   strings.TrimSpace(*w.ExecutiveSummary),
		KeyRisks:           []string(*w.KeyRisks),
		DataInsights:       []string(*w.DataInsights),
		RecommendedActions: []string(*w.RecommendedActions),
		ConfidenceScore:    strings.TrimSpace(confidence),
	}, nil
}
