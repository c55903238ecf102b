package narrative

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesintel/models"
)

type fakeGenerator struct {
	reply  string
	err    error
	block  bool
	panics bool
	calls  int
	prompt string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	if f.panics {
		panic("boom")
	}
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.reply, f.err
}

func f64(v float64) *float64 { return &v }

func sampleInput() Input {
	return Input{
		Metrics: models.MetricsBundle{
			OverallWinRate:      0.6,
			WinRateByLeadSource: map[string]float64{"Inbound": 0.75, "Outbound": 0.3333, "Referral": 0.6},
			WeakestLeadSource:   &models.WeakestLeadSource{Source: "Outbound", WinRate: 0.3333},
			WinRateTrend: models.WinRateTrend{
				Direction:       models.TrendDeclining,
				LatestWinRate:   f64(0.5),
				PreviousWinRate: f64(0.6667),
				Quarters: []models.QuarterWinRate{
					{Quarter: "2024Q1", WinRate: 0.6667, ClosedDeals: 6},
					{Quarter: "2024Q2", WinRate: 0.5, ClosedDeals: 4},
				},
			},
			AverageSalesCycle:     32,
			MedianSalesCycle:      30,
			StalledDealPercentage: 0.1,
			ACVStats:              models.ACVStats{MeanACV: 12500.5, MedianACV: 10000, TotalRevenue: 125005},
			TotalDeals:            10,
			ClosedDeals:           10,
		},
		Risk: models.RiskSummary{
			AverageRiskScore:     33.08,
			HighRiskPercentage:   0.1,
			MediumRiskPercentage: 0.4,
			LowRiskPercentage:    0.5,
		},
		Health: models.HealthScore{Score: 69.33, Label: "Moderate Pipeline"},
	}
}

const validReply = `{
  "executive_summary": "Win rate is slipping.",
  "key_risks": ["Outbound underperforms"],
  "data_insights": ["Overall win rate: 60.00%", {"metric": "Stalled", "value": "10.00%"}, {"metric": "Deals", "value": 10}],
  "recommended_actions": ["Rebalance lead sources"],
  "confidence_score": "High"
}`

func assertComplete(t *testing.T, n models.Narrative) {
	t.Helper()
	assert.NotEmpty(t, n.ExecutiveSummary)
	assert.NotNil(t, n.KeyRisks)
	assert.NotNil(t, n.DataInsights)
	assert.NotNil(t, n.RecommendedActions)
	assert.NotEmpty(t, n.ConfidenceScore)
}

func TestDeterministicCoversEveryIntent(t *testing.T) {
	in := sampleInput()
	intents := []models.Intent{
		models.IntentWinRate, models.IntentRisk, models.IntentStalled,
		models.IntentACV, models.IntentLeadSource, models.IntentPipelineHealth,
		models.IntentNone, models.Intent("forecast"),
	}
	for _, intent := range intents {
		t.Run(string(intent), func(t *testing.T) {
			assertComplete(t, Deterministic(intent, in))
		})
	}
}

func TestDeterministicRiskTemplate(t *testing.T) {
	n := Deterministic(models.IntentRisk, sampleInput())

	assert.Equal(t, "10.00% of deals fall into the high-risk category with an average risk score of 33.08. "+
		"These deals are most likely to be lost, particularly those exceeding the median sales cycle.", n.ExecutiveSummary)
	assert.Contains(t, n.KeyRisks, "Stalled deals: 10.00%")
	assert.Equal(t, ConfidenceHigh, n.ConfidenceScore)
}

func TestDeterministicWinRate(t *testing.T) {
	in := sampleInput()
	n := Deterministic(models.IntentWinRate, in)
	assert.Contains(t, n.ExecutiveSummary, "declining, moving from 66.67% to 50.00%")
	assert.Contains(t, n.ExecutiveSummary, "Outbound with a win rate of 33.33%")

	in.Metrics.WinRateTrend = models.WinRateTrend{Direction: models.TrendInsufficient}
	in.Metrics.WeakestLeadSource = nil
	n = Deterministic(models.IntentWinRate, in)
	assert.Contains(t, n.ExecutiveSummary, "not enough quarterly history")
	assert.Contains(t, n.ExecutiveSummary, "No lead source has closed deals yet.")
	assert.Equal(t, []string{"Win-rate trend: Insufficient data"}, n.KeyRisks)
}

func TestDeterministicLeadSourceIsOrdered(t *testing.T) {
	n := Deterministic(models.IntentLeadSource, sampleInput())
	require.Len(t, n.DataInsights, 3)
	assert.True(t, strings.HasPrefix(n.DataInsights[0], "Inbound"))
	assert.True(t, strings.HasPrefix(n.DataInsights[2], "Referral"))
}

func TestDeterministicDefaultBranch(t *testing.T) {
	n := Deterministic(models.Intent("forecast"), sampleInput())
	assert.Contains(t, n.ExecutiveSummary, "affecting forecast")
	assert.Equal(t, ConfidenceModerate, n.ConfidenceScore)
}

func TestStripCodeFences(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}\n```":     `{"a":1}`,
		"```JSON {\"a\":1}```":    `{"a":1}`,
		"  {\"a\":1}  ":           `{"a":1}`,
	}
	for in, want := range cases {
		assert.Equal(t, want, StripCodeFences(in), "input %q", in)
	}
}

func TestParseResponse(t *testing.T) {
	n, err := ParseResponse("```json\n" + validReply + "\n```")
	require.NoError(t, err)
	assert.Equal(t, "Win rate is slipping.", n.ExecutiveSummary)
	assert.Equal(t, []string{"Overall win rate: 60.00%", "Stalled: 10.00%", "Deals: 10"}, n.DataInsights)
	assert.Equal(t, "High", n.ConfidenceScore)
}

func TestParseResponseRejectsIncompleteShapes(t *testing.T) {
	bad := []string{
		"",
		"not json",
		`{"executive_summary": "x", "key_risks": [], "data_insights": [], "recommended_actions": []}`,
		`{"executive_summary": "", "key_risks": [], "data_insights": [], "recommended_actions": [], "confidence_score": "High"}`,
		`{"executive_summary": "x", "data_insights": [], "recommended_actions": [], "confidence_score": "High"}`,
		`{"executive_summary": "x", "key_risks": [], "data_insights": [], "recommended_actions": [], "confidence_score": ""}`,
		`{"executive_summary": "x", "key_risks": "one", "data_insights": [], "recommended_actions": [], "confidence_score": "High"}`,
	}
	for _, reply := range bad {
		_, err := ParseResponse(reply)
		assert.ErrorIs(t, err, models.ErrNarrativeService, "reply %q", reply)
	}
}

func TestComposeDeterministicWithoutGenerator(t *testing.T) {
	res := NewComposer().Compose(context.Background(), "What is our risk?", models.IntentRisk, sampleInput())
	assert.Equal(t, models.SourceDeterministic, res.Source)
	assert.False(t, res.FallbackUsed)
	assertComplete(t, res.Narrative)
}

func TestComposeDelegated(t *testing.T) {
	gen := &fakeGenerator{reply: "```json\n" + validReply + "\n```"}
	res := NewComposer(WithGenerator(gen)).Compose(context.Background(), "Why is win rate dropping?", models.IntentWinRate, sampleInput())

	assert.Equal(t, models.SourceDelegated, res.Source)
	assert.False(t, res.FallbackUsed)
	assert.Equal(t, "Win rate is slipping.", res.Narrative.ExecutiveSummary)
	assert.Contains(t, gen.prompt, "Why is win rate dropping?")
	assert.Contains(t, gen.prompt, `"risk_summary"`)
}

func TestComposeFallsBackOnAnyFailure(t *testing.T) {
	cases := map[string]*fakeGenerator{
		"malformed":  {reply: "Sure! Here is your answer."},
		"wrong keys": {reply: `{"summary": "x"}`},
		"error":      {err: errors.New("connection refused")},
		"panic":      {panics: true},
	}
	want := Deterministic(models.IntentRisk, sampleInput())

	for name, gen := range cases {
		t.Run(name, func(t *testing.T) {
			res := NewComposer(WithGenerator(gen)).Compose(context.Background(), "Which deals are at risk?", models.IntentRisk, sampleInput())
			assert.Equal(t, models.SourceFallback, res.Source)
			assert.True(t, res.FallbackUsed)
			assert.Equal(t, want, res.Narrative)
			assertComplete(t, res.Narrative)
		})
	}
}

func TestComposeTimeoutFallsBack(t *testing.T) {
	gen := &fakeGenerator{block: true}
	c := NewComposer(WithGenerator(gen), WithTimeout(20*time.Millisecond))

	start := time.Now()
	res := c.Compose(context.Background(), "pipeline health?", models.IntentPipelineHealth, sampleInput())

	assert.True(t, res.FallbackUsed)
	assert.Less(t, time.Since(start), 2*time.Second)
}

type slowGenerator struct {
	delay time.Duration
}

func (g slowGenerator) Generate(context.Context, string) (string, error) {
	time.Sleep(g.delay)
	return validReply, nil
}

func TestComposeTimeoutBoundsGeneratorIgnoringContext(t *testing.T) {
	c := NewComposer(WithGenerator(slowGenerator{delay: 500 * time.Millisecond}), WithTimeout(20*time.Millisecond))

	start := time.Now()
	res := c.Compose(context.Background(), "pipeline health?", models.IntentPipelineHealth, sampleInput())

	assert.True(t, res.FallbackUsed)
	assert.Equal(t, models.SourceFallback, res.Source)
	assert.Less(t, time.Since(start), 250*time.Millisecond)
	assert.Equal(t, Deterministic(models.IntentPipelineHealth, sampleInput()), res.Narrative)
}

func TestComposeRateLimitFallsBackWithoutCalling(t *testing.T) {
	gen := &fakeGenerator{reply: validReply}
	c := NewComposer(WithGenerator(gen), WithRateLimit(0.001, 1))

	first := c.Compose(context.Background(), "win rate?", models.IntentWinRate, sampleInput())
	second := c.Compose(context.Background(), "win rate?", models.IntentWinRate, sampleInput())

	assert.Equal(t, models.SourceDelegated, first.Source)
	assert.Equal(t, models.SourceFallback, second.Source)
	assert.Equal(t, 1, gen.calls)
}

func TestRequestRoundTrip(t *testing.T) {
	req := NewRequest(models.IntentRisk, sampleInput())
	data, err := json.Marshal(req)
	require.NoError(t, err)

	var back Request
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, req, back)
}

func TestBuildPromptCarriesPayload(t *testing.T) {
	prompt, err := BuildPrompt("  How healthy is the pipeline? ", NewRequest(models.IntentPipelineHealth, sampleInput()))
	require.NoError(t, err)
	assert.Contains(t, prompt, `"How healthy is the pipeline?"`)
	assert.Contains(t, prompt, `"intent": "pipeline_health"`)
	assert.Contains(t, prompt, `"confidence_score": ""`)
}

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"a":`), genai.Text(`1}`)}},
		}},
	}
	text, err := responseText(resp)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, text)

	_, err = responseText(&genai.GenerateContentResponse{})
	assert.ErrorIs(t, err, models.ErrNarrativeService)
}
