package narrative

import (
	"encoding/json"
	"fmt"
	"strings"

	"salesintel/models"
)

// Request is the structured payload handed to the text-generation service.
type Request struct {
	Intent  models.Intent        `json:"intent"`
	Metrics models.MetricsBundle `json:"metrics"`
	Risk    models.RiskSummary   `json:"risk_summary"`
	Health  models.HealthScore   `json:"health"`
}

// NewRequest snapshots the artifacts for intent.
func NewRequest(intent models.Intent, in Input) Request {
	return Request{Intent: intent, Metrics: in.Metrics, Risk: in.Risk, Health: in.Health}
}

// BuildPrompt renders the instruction sent to the service. The model must
// answer only from the supplied numbers and reply with the five-field JSON
// object.
func BuildPrompt(query string, req Request) (string, error) {
	payload, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal narrative request: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are a sales analytics advisor writing for executives.\n")
	b.WriteString("Answer the following question clearly and concisely:\n\n")
	fmt.Fprintf(&b, "%q\n\n", strings.TrimSpace(query))
	b.WriteString("**Data (use only these numbers, do not invent figures):**\n")
	b.Write(payload)
	b.WriteString("\n\nRates and percentages in the data are fractions between 0 and 1; present them as percentages with two decimals.\n")
	b.WriteString("\n**Required Output:**\n")
	b.WriteString("Return a single JSON object and nothing else:\n")
	b.WriteString(`{
  "executive_summary": "",
  "key_risks": [],
  "data_insights": [],
  "recommended_actions": [],
  "confidence_score": ""
}`)
	b.WriteString("\n")
	return b.String(), nil
}
