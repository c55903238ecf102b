package analytics

import (
	"math"

	"salesintel/models"
	"salesintel/utils"
)

// Health component weights.
const (
	healthWeightWinRate  = 0.40
	healthWeightLowRisk  = 0.30
	healthWeightVelocity = 0.20
	healthWeightLowStall = 0.10
)

// Health labels and their lower bounds.
const (
	LabelStrong   = "Strong Pipeline"
	LabelModerate = "Moderate Pipeline"
	LabelAtRisk   = "At Risk"

	strongFrom   = 75.0
	moderateFrom = 55.0
)

// VelocityStrength scores how far the average cycle sits below twice the
// median, floored at 0. A zero median scores 100.
func VelocityStrength(avgCycle, medianCycle float64) float64 {
	if medianCycle == 0 {
		return 100
	}
	return math.Max(0, 100-(avgCycle/(medianCycle*2))*100)
}

// ComputeHealth composes the pipeline health score from the metrics bundle
// and the risk summary.
func ComputeHealth(m models.MetricsBundle, r models.RiskSummary) models.HealthScore {
	score := healthWeightWinRate*(m.OverallWinRate*100) +
		healthWeightLowRisk*((1-r.HighRiskPercentage)*100) +
		healthWeightVelocity*VelocityStrength(m.AverageSalesCycle, m.MedianSalesCycle) +
		healthWeightLowStall*((1-m.StalledDealPercentage)*100)

	score = utils.RoundMoney(score)
	return models.HealthScore{Score: score, Label: HealthLabel(score)}
}

// HealthLabel maps a score to its band; each band includes its lower bound.
func HealthLabel(score float64) string {
	switch {
	case score >= strongFrom:
		return LabelStrong
	case score >= moderateFrom:
		return LabelModerate
	default:
		return LabelAtRisk
	}
}
