package charts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesintel/models"
)

func scoredDeals() []models.ScoredDeal {
	mk := func(id string, amount float64, cycle int, risk float64) models.ScoredDeal {
		return models.ScoredDeal{
			Deal:      models.Deal{ID: id, DealAmount: amount, SalesCycleDays: cycle, LeadSource: "Inbound"},
			RiskScore: risk,
		}
	}
	return []models.ScoredDeal{
		mk("a", 1000, 10, 5),
		mk("b", 5000, 30, 25),
		mk("c", 20000, 60, 80),
		mk("d", 7000, 45, 55.5),
	}
}

func sampleInput() Input {
	return Input{
		Metrics: models.MetricsBundle{
			WinRateByLeadSource: map[string]float64{"Outbound": 0.25, "Inbound": 0.75},
			WinRateTrend: models.WinRateTrend{
				Direction: models.TrendImproving,
				Quarters: []models.QuarterWinRate{
					{Quarter: "2024Q1", WinRate: 0.4},
					{Quarter: "2024Q2", WinRate: 0.6},
				},
			},
		},
		Scored: scoredDeals(),
		Health: models.HealthScore{Score: 68.2, Label: "Moderate Pipeline"},
	}
}

func ids(specs []models.ChartSpec) []string {
	out := make([]string, len(specs))
	for i, s := range specs {
		out[i] = s.ID
	}
	return out
}

func TestRoute(t *testing.T) {
	in := sampleInput()
	cases := map[models.Intent][]string{
		models.IntentWinRate:        {IDWinRateTrend, IDWinRateBySource},
		models.IntentRisk:           {IDRiskHistogram},
		models.IntentACV:            {IDACVHistogram, IDACVVsRisk},
		models.IntentStalled:        {IDCycleHistogram},
		models.IntentLeadSource:     {IDWinRateBySource},
		models.IntentPipelineHealth: {IDHealthGauge, IDRiskHistogram},
	}
	for intent, want := range cases {
		assert.Equal(t, want, ids(Route(intent, in)), "intent %s", intent)
	}
	assert.Empty(t, Route(models.IntentNone, in))
	assert.Empty(t, Route(models.Intent("forecast"), in))
}

func TestWinRateBySourceIsSortedPercent(t *testing.T) {
	spec := WinRateBySource(map[string]float64{"Outbound": 0.25, "Inbound": 0.75})
	require.Len(t, spec.Points, 2)
	assert.Equal(t, "Inbound", spec.Points[0].Label)
	assert.Equal(t, 75.0, spec.Points[0].Y)
	assert.Equal(t, 25.0, spec.Points[1].Y)
	assert.Equal(t, models.ChartBar, spec.Kind)
}

func TestHistogramCountsEveryValue(t *testing.T) {
	values := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 100}
	bins := Histogram(values, HistogramBins)
	require.Len(t, bins, HistogramBins)

	total := 0
	for _, b := range bins {
		total += b.Count
	}
	assert.Equal(t, len(values), total)
	assert.Equal(t, 0.0, bins[0].Lower)
	assert.Equal(t, 100.0, bins[HistogramBins-1].Upper)
	assert.Equal(t, 1, bins[HistogramBins-1].Count)
}

func TestHistogramEdgeCases(t *testing.T) {
	assert.Nil(t, Histogram(nil, HistogramBins))

	bins := Histogram([]float64{42, 42, 42}, 3)
	require.Len(t, bins, 3)
	assert.Equal(t, 41.5, bins[0].Lower)
	assert.Equal(t, 42.5, bins[2].Upper)
	assert.Equal(t, 3, bins[1].Count)
}

func TestHealthGauge(t *testing.T) {
	spec := HealthGauge(models.HealthScore{Score: 68.2})
	require.NotNil(t, spec.Gauge)
	assert.Equal(t, 68.2, spec.Gauge.Value)
	require.Len(t, spec.Gauge.Steps, 3)
	assert.Equal(t, models.GaugeStep{From: 55, To: 75, Color: "orange"}, spec.Gauge.Steps[1])
}

func TestACVVsRisk(t *testing.T) {
	spec := ACVVsRisk(scoredDeals())
	require.Len(t, spec.Points, 4)
	assert.Equal(t, models.ChartPoint{Label: "c", X: 20000, Y: 80}, spec.Points[2])
}
