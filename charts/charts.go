// Package charts selects the chart data that supports an answer. It builds
// the series each chart needs and leaves rendering to the client.
package charts

import (
	"math"
	"sort"

	"salesintel/models"
	"salesintel/utils"
)

// HistogramBins is the bin count used for every distribution chart.
const HistogramBins = 30

// Chart identifiers.
const (
	IDWinRateTrend    = "win_rate_trend"
	IDWinRateBySource = "win_rate_by_source"
	IDRiskHistogram   = "risk_distribution"
	IDACVHistogram    = "acv_distribution"
	IDACVVsRisk       = "acv_vs_risk"
	IDCycleHistogram  = "sales_cycle_distribution"
	IDHealthGauge     = "health_gauge"
)

// Input is the immutable session data charts draw from.
type Input struct {
	Metrics models.MetricsBundle
	Scored  []models.ScoredDeal
	Health  models.HealthScore
}

// Route returns the charts for intent. Out-of-scope intents get none.
func Route(intent models.Intent, in Input) []models.ChartSpec {
	switch intent {
	case models.IntentWinRate:
		return []models.ChartSpec{WinRateTrend(in.Metrics.WinRateTrend), WinRateBySource(in.Metrics.WinRateByLeadSource)}
	case models.IntentRisk:
		return []models.ChartSpec{RiskDistribution(in.Scored)}
	case models.IntentACV:
		return []models.ChartSpec{ACVDistribution(in.Scored), ACVVsRisk(in.Scored)}
	case models.IntentStalled:
		return []models.ChartSpec{SalesCycleDistribution(in.Scored)}
	case models.IntentLeadSource:
		return []models.ChartSpec{WinRateBySource(in.Metrics.WinRateByLeadSource)}
	case models.IntentPipelineHealth:
		return []models.ChartSpec{HealthGauge(in.Health), RiskDistribution(in.Scored)}
	}
	return nil
}

// WinRateTrend is a line of quarterly win rates in chronological order.
func WinRateTrend(trend models.WinRateTrend) models.ChartSpec {
	points := make([]models.ChartPoint, 0, len(trend.Quarters))
	for i, q := range trend.Quarters {
		points = append(points, models.ChartPoint{Label: q.Quarter, X: float64(i), Y: q.WinRate})
	}
	return models.ChartSpec{
		ID:     IDWinRateTrend,
		Kind:   models.ChartLine,
		Title:  "Quarterly Win Rate Trend",
		XLabel: "Quarter",
		YLabel: "Win Rate",
		Points: points,
	}
}

// WinRateBySource is a bar per lead source, in percent, ordered by label.
func WinRateBySource(rates map[string]float64) models.ChartSpec {
	sources := make([]string, 0, len(rates))
	for src := range rates {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	points := make([]models.ChartPoint, 0, len(sources))
	for i, src := range sources {
		points = append(points, models.ChartPoint{Label: src, X: float64(i), Y: utils.Round(rates[src]*100, 2)})
	}
	return models.ChartSpec{
		ID:     IDWinRateBySource,
		Kind:   models.ChartBar,
		Title:  "Win Rate by Lead Source",
		XLabel: "Lead Source",
		YLabel: "Win Rate (%)",
		Points: points,
	}
}

// RiskDistribution bins composite risk scores.
func RiskDistribution(scored []models.ScoredDeal) models.ChartSpec {
	values := make([]float64, len(scored))
	for i, d := range scored {
		values[i] = d.RiskScore
	}
	return models.ChartSpec{
		ID:     IDRiskHistogram,
		Kind:   models.ChartHistogram,
		Title:  "Risk Score Distribution",
		XLabel: "Risk Score (0-100)",
		YLabel: "Deals",
		Bins:   Histogram(values, HistogramBins),
	}
}

// ACVDistribution bins deal amounts.
func ACVDistribution(scored []models.ScoredDeal) models.ChartSpec {
	values := make([]float64, len(scored))
	for i, d := range scored {
		values[i] = d.DealAmount
	}
	return models.ChartSpec{
		ID:     IDACVHistogram,
		Kind:   models.ChartHistogram,
		Title:  "Deal Amount Distribution (ACV)",
		XLabel: "Deal Amount",
		YLabel: "Deals",
		Bins:   Histogram(values, HistogramBins),
	}
}

// ACVVsRisk plots each deal's amount against its risk score.
func ACVVsRisk(scored []models.ScoredDeal) models.ChartSpec {
	points := make([]models.ChartPoint, len(scored))
	for i, d := range scored {
		points[i] = models.ChartPoint{Label: d.ID, X: d.DealAmount, Y: d.RiskScore}
	}
	return models.ChartSpec{
		ID:     IDACVVsRisk,
		Kind:   models.ChartScatter,
		Title:  "ACV vs Risk Score",
		XLabel: "Deal Amount",
		YLabel: "Risk Score",
		Points: points,
	}
}

// SalesCycleDistribution bins sales-cycle lengths.
func SalesCycleDistribution(scored []models.ScoredDeal) models.ChartSpec {
	values := make([]float64, len(scored))
	for i, d := range scored {
		values[i] = float64(d.SalesCycleDays)
	}
	return models.ChartSpec{
		ID:     IDCycleHistogram,
		Kind:   models.ChartHistogram,
		Title:  "Sales Cycle Distribution",
		XLabel: "Sales Cycle (Days)",
		YLabel: "Deals",
		Bins:   Histogram(values, HistogramBins),
	}
}

// HealthGauge shows the health score on a 0-100 axis with the label bands.
func HealthGauge(h models.HealthScore) models.ChartSpec {
	return models.ChartSpec{
		ID:    IDHealthGauge,
		Kind:  models.ChartGauge,
		Title: "Pipeline Health Score",
		Gauge: &models.Gauge{
			Value: h.Score,
			Min:   0,
			Max:   100,
			Steps: []models.GaugeStep{
				{From: 0, To: 55, Color: "red"},
				{From: 55, To: 75, Color: "orange"},
				{From: 75, To: 100, Color: "green"},
			},
		},
	}
}

// Histogram splits the value range into n equal-width bins. Each bin is
// half-open except the last, which includes the maximum. A single distinct
// value is centred in a unit-wide range.
func Histogram(values []float64, n int) []models.HistogramBin {
	if len(values) == 0 || n <= 0 {
		return nil
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}
	width := (hi - lo) / float64(n)

	bins := make([]models.HistogramBin, n)
	for i := range bins {
		bins[i].Lower = utils.Round(lo+float64(i)*width, 4)
		bins[i].Upper = utils.Round(lo+float64(i+1)*width, 4)
	}
	bins[n-1].Upper = utils.Round(hi, 4)

	for _, v := range values {
		idx := int((v - lo) / width)
		if idx >= n {
			idx = n - 1
		}
		if idx < 0 {
			idx = 0
		}
		bins[idx].Count++
	}
	return bins
}
