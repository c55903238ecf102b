package models

// Intent is the closed set of question categories the guardrail recognizes.
type Intent string

const (
	IntentWinRate        Intent = "win_rate"
	IntentRisk           Intent = "risk"
	IntentStalled        Intent = "stalled"
	IntentACV            Intent = "acv"
	IntentLeadSource     Intent = "lead_source"
	IntentPipelineHealth Intent = "pipeline_health"
	IntentNone           Intent = "none"
)

// Narrative source markers.
const (
	SourceDeterministic = "deterministic"
	SourceDelegated     = "delegated"
	SourceFallback      = "fallback"
)

// InsightRequest defines the body of a query to the insights endpoint.
type InsightRequest struct {
	Query string `json:"query"`
}

// Narrative is the five-field executive answer.
type Narrative struct {
	ExecutiveSummary   string   `json:"executive_summary"`
	KeyRisks           []string `json:"key_risks"`
	DataInsights       []string `json:"data_insights"`
	RecommendedActions []string `json:"recommended_actions"`
	ConfidenceScore    string   `json:"confidence_score"`
}

// InsightResponse is everything the display layer needs to answer one question.
type InsightResponse struct {
	SessionID    string      `json:"session_id"`
	Query        string      `json:"query"`
	Intent       Intent      `json:"intent"`
	Narrative    Narrative   `json:"narrative"`
	Source       string      `json:"source"`
	FallbackUsed bool        `json:"fallback_used"`
	Charts       []ChartSpec `json:"charts"`
	Health       HealthScore `json:"health"`
}
