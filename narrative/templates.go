// Package narrative turns computed pipeline artifacts into the five-field
// executive answer, either from fixed templates or through a text-generation
// service with a template fallback.
package narrative

import (
	"fmt"
	"sort"

	"salesintel/models"
	"salesintel/utils"
)

// Input bundles the immutable session artifacts a narrative may draw on.
type Input struct {
	Metrics models.MetricsBundle `json:"metrics"`
	Risk    models.RiskSummary   `json:"risk_summary"`
	Health  models.HealthScore   `json:"health"`
}

// Confidence labels.
const (
	ConfidenceHigh     = "High"
	ConfidenceModerate = "Moderate confidence based on available data."
)

type templateFunc func(models.Intent, Input) models.Narrative

var templates = map[models.Intent]templateFunc{
	models.IntentRisk:           riskNarrative,
	models.IntentWinRate:        winRateNarrative,
	models.IntentPipelineHealth: pipelineHealthNarrative,
	models.IntentStalled:        stalledNarrative,
	models.IntentACV:            acvNarrative,
	models.IntentLeadSource:     leadSourceNarrative,
}

// Deterministic renders the fixed template for intent. Unknown intents get a
// generic summary so a caller always receives all five fields.
func Deterministic(intent models.Intent, in Input) models.Narrative {
	if fn, ok := templates[intent]; ok {
		return fn(intent, in)
	}
	return genericNarrative(intent, in)
}

func riskNarrative(_ models.Intent, in Input) models.Narrative {
	high := utils.Percent(in.Risk.HighRiskPercentage)
	avg := fmt.Sprintf("%.2f", in.Risk.AverageRiskScore)
	return models.Narrative{
		ExecutiveSummary: fmt.Sprintf(
			"%s of deals fall into the high-risk category with an average risk score of %s. "+
				"These deals are most likely to be lost, particularly those exceeding the median sales cycle.",
			high, avg),
		KeyRisks: []string{
			"High-risk exposure: " + high,
			"Average risk score: " + avg,
			"Stalled deals: " + utils.Percent(in.Metrics.StalledDealPercentage),
		},
		DataInsights: []string{
			"High Risk Percentage: " + high,
			"Medium Risk Percentage: " + utils.Percent(in.Risk.MediumRiskPercentage),
			"Low Risk Percentage: " + utils.Percent(in.Risk.LowRiskPercentage),
			"Average Risk Score: " + avg,
		},
		RecommendedActions: []string{
			"Prioritize intervention on high-risk, high-ACV deals.",
			"Escalate stalled opportunities exceeding cycle thresholds.",
			"Review lead source quality contributing to risk exposure.",
		},
		ConfidenceScore: ConfidenceHigh,
	}
}

func winRateNarrative(_ models.Intent, in Input) models.Narrative {
	trend := in.Metrics.WinRateTrend
	weakest := in.Metrics.WeakestLeadSource

	var summary string
	var insights []string
	if trend.Sufficient() {
		summary = fmt.Sprintf("Win rate is %s, moving from %s to %s.",
			lower(trend.Direction), utils.Percent(*trend.PreviousWinRate), utils.Percent(*trend.LatestWinRate))
		insights = []string{
			"Previous Win Rate: " + utils.Percent(*trend.PreviousWinRate),
			"Latest Win Rate: " + utils.Percent(*trend.LatestWinRate),
		}
	} else {
		summary = fmt.Sprintf("There is not enough quarterly history to establish a win-rate trend; the overall win rate is %s.",
			utils.Percent(in.Metrics.OverallWinRate))
		insights = []string{"Overall Win Rate: " + utils.Percent(in.Metrics.OverallWinRate)}
	}

	risks := []string{"Win-rate trend: " + string(trend.Direction)}
	if weakest != nil {
		summary += fmt.Sprintf(" The weakest lead source is %s with a win rate of %s.",
			weakest.Source, utils.Percent(weakest.WinRate))
		risks = append(risks, "Weakest lead source: "+weakest.Source)
	} else {
		summary += " No lead source has closed deals yet."
	}

	return models.Narrative{
		ExecutiveSummary: summary,
		KeyRisks:         risks,
		DataInsights:     insights,
		RecommendedActions: []string{
			"Rebalance acquisition mix toward higher-performing lead sources.",
			"Investigate stalled deals contributing to conversion pressure.",
			"Audit qualification standards for weaker segments.",
		},
		ConfidenceScore: ConfidenceHigh,
	}
}

func pipelineHealthNarrative(_ models.Intent, in Input) models.Narrative {
	high := utils.Percent(in.Risk.HighRiskPercentage)
	stalled := utils.Percent(in.Metrics.StalledDealPercentage)
	return models.Narrative{
		ExecutiveSummary: fmt.Sprintf(
			"Pipeline health score is %.2f (%s), reflecting current conversion efficiency, "+
				"risk exposure of %s, and stalled deal ratio of %s.",
			in.Health.Score, in.Health.Label, high, stalled),
		KeyRisks: []string{
			"High-risk exposure: " + high,
			"Stalled deals: " + stalled,
		},
		DataInsights: []string{
			fmt.Sprintf("Pipeline Health Score: %.2f", in.Health.Score),
			"Overall Win Rate: " + utils.Percent(in.Metrics.OverallWinRate),
			"Win Rate Trend: " + string(in.Metrics.WinRateTrend.Direction),
		},
		RecommendedActions: []string{
			"Reduce stalled deal backlog.",
			"Mitigate high-risk revenue concentration.",
			"Improve lead source performance variance.",
		},
		ConfidenceScore: ConfidenceHigh,
	}
}

func stalledNarrative(_ models.Intent, in Input) models.Narrative {
	stalled := utils.Percent(in.Metrics.StalledDealPercentage)
	return models.Narrative{
		ExecutiveSummary: fmt.Sprintf(
			"%s of deals exceed 1.5× median sales cycle, indicating potential bottlenecks in deal progression.",
			stalled),
		KeyRisks: []string{"Elevated stalled deal ratio: " + stalled},
		DataInsights: []string{
			"Median Sales Cycle: " + utils.Days(in.Metrics.MedianSalesCycle),
			"Average Sales Cycle: " + utils.Days(in.Metrics.AverageSalesCycle),
		},
		RecommendedActions: []string{
			"Audit delayed opportunities.",
			"Introduce cycle acceleration initiatives.",
			"Reprioritize long-running deals.",
		},
		ConfidenceScore: ConfidenceHigh,
	}
}

func acvNarrative(_ models.Intent, in Input) models.Narrative {
	acv := in.Metrics.ACVStats
	risks := []string{"High-risk exposure: " + utils.Percent(in.Risk.HighRiskPercentage)}
	if acv.MeanACV > acv.MedianACV {
		risks = append(risks, "Mean ACV above median: revenue is concentrated in a few large deals")
	}
	return models.Narrative{
		ExecutiveSummary: fmt.Sprintf(
			"Average contract value is %s against a median of %s, with %s in total deal value across %d deals.",
			utils.Money(acv.MeanACV), utils.Money(acv.MedianACV), utils.Money(acv.TotalRevenue), in.Metrics.TotalDeals),
		KeyRisks: risks,
		DataInsights: []string{
			"Mean ACV: " + utils.Money(acv.MeanACV),
			"Median ACV: " + utils.Money(acv.MedianACV),
			"Total Revenue: " + utils.Money(acv.TotalRevenue),
		},
		RecommendedActions: []string{
			"Protect large deals with executive sponsorship.",
			"Qualify small deals earlier to free capacity.",
			"Track deal-size mix by lead source each quarter.",
		},
		ConfidenceScore: ConfidenceHigh,
	}
}

func leadSourceNarrative(_ models.Intent, in Input) models.Narrative {
	sources := make([]string, 0, len(in.Metrics.WinRateByLeadSource))
	for src := range in.Metrics.WinRateByLeadSource {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	insights := make([]string, 0, len(sources))
	for _, src := range sources {
		insights = append(insights, fmt.Sprintf("%s win rate: %s", src, utils.Percent(in.Metrics.WinRateByLeadSource[src])))
	}

	summary := fmt.Sprintf("Overall win rate is %s across %d lead sources.",
		utils.Percent(in.Metrics.OverallWinRate), len(sources))
	var risks []string
	if w := in.Metrics.WeakestLeadSource; w != nil {
		summary += fmt.Sprintf(" %s is the weakest source at %s.", w.Source, utils.Percent(w.WinRate))
		risks = append(risks, fmt.Sprintf("Weakest lead source: %s (%s)", w.Source, utils.Percent(w.WinRate)))
	} else {
		summary += " No lead source has closed deals yet."
	}

	return models.Narrative{
		ExecutiveSummary: summary,
		KeyRisks:         nonNil(risks),
		DataInsights:     insights,
		RecommendedActions: []string{
			"Shift acquisition budget toward the strongest converting sources.",
			"Tighten qualification for the weakest source.",
			"Review source attribution for open deals.",
		},
		ConfidenceScore: ConfidenceHigh,
	}
}

func genericNarrative(intent models.Intent, in Input) models.Narrative {
	return models.Narrative{
		ExecutiveSummary: fmt.Sprintf(
			"Analysis based on deterministic metrics indicates key performance factors affecting %s.", intent),
		KeyRisks: []string{
			"High risk exposure: " + utils.Percent(in.Risk.HighRiskPercentage),
			"Stalled deals: " + utils.Percent(in.Metrics.StalledDealPercentage),
		},
		DataInsights: []string{
			"Overall win rate: " + utils.Percent(in.Metrics.OverallWinRate),
			"Average sales cycle: " + utils.Days(in.Metrics.AverageSalesCycle),
		},
		RecommendedActions: []string{
			"Review high-risk deals exceeding cycle thresholds.",
			"Rebalance pipeline toward higher-performing lead sources.",
			"Increase oversight on stalled opportunities.",
		},
		ConfidenceScore: ConfidenceModerate,
	}
}

func lower(d models.TrendDirection) string {
	switch d {
	case models.TrendDeclining:
		return "declining"
	case models.TrendImproving:
		return "improving"
	case models.TrendStable:
		return "stable"
	}
	return string(d)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
