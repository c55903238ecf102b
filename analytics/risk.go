package analytics

import (
	"strings"

	"salesintel/models"
	"salesintel/utils"
)

// Composite risk weights. They sum to 1.
const (
	WeightCycle      = 0.35
	WeightACV        = 0.25
	WeightLeadSource = 0.20
	WeightStall      = 0.20
)

// Band thresholds on the 0-100 scale.
const (
	HighRiskAbove   = 60.0
	MediumRiskAbove = 30.0
)

// DefaultLeadSourceRisk applies to any source missing from the table.
const DefaultLeadSourceRisk = 0.30

// leadSourceRisk is keyed by lowercase source label.
var leadSourceRisk = map[string]float64{
	"inbound":  0.20,
	"outbound": 0.40,
	"partner":  0.30,
	"referral": 0.25,
}

// LeadSourceRisk returns the fixed risk constant for a source.
func LeadSourceRisk(source string) float64 {
	if r, ok := leadSourceRisk[strings.ToLower(strings.TrimSpace(source))]; ok {
		return r
	}
	return DefaultLeadSourceRisk
}

// RiskBand classifies a composite score. Bands are exhaustive and disjoint.
func RiskBand(score float64) string {
	switch {
	case score > HighRiskAbove:
		return models.RiskBandHigh
	case score > MediumRiskAbove:
		return models.RiskBandMedium
	default:
		return models.RiskBandLow
	}
}

// ScoreRisk returns a scored copy of every deal. The input slice is not modified.
func ScoreRisk(deals []models.Deal) ([]models.ScoredDeal, error) {
	if len(deals) == 0 {
		return nil, models.ErrEmptyDataset
	}

	cycles := cycleDays(deals)
	maxCycle := utils.Max(cycles)
	stallThreshold := StallMultiplier * utils.Median(cycles)
	medianACV := utils.Median(amounts(deals))

	scored := make([]models.ScoredDeal, len(deals))
	for i, d := range deals {
		sd := models.ScoredDeal{Deal: d}

		if maxCycle > 0 {
			sd.CycleRisk = float64(d.SalesCycleDays) / maxCycle
		}
		// Not clamped per deal: above-median deals pull the composite down.
		if medianACV != 0 {
			sd.ACVRisk = (medianACV - d.DealAmount) / medianACV
		}
		sd.LeadSourceRisk = LeadSourceRisk(d.LeadSource)
		if float64(d.SalesCycleDays) > stallThreshold {
			sd.StallRisk = 1
		}

		weighted := WeightCycle*sd.CycleRisk +
			WeightACV*sd.ACVRisk +
			WeightLeadSource*sd.LeadSourceRisk +
			WeightStall*sd.StallRisk
		sd.RiskScore = utils.Clamp(weighted*100, 0, 100)
		sd.RiskBand = RiskBand(sd.RiskScore)

		scored[i] = sd
	}
	return scored, nil
}

// SummarizeRisk aggregates scored deals into portfolio averages and band shares.
func SummarizeRisk(scored []models.ScoredDeal) (models.RiskSummary, error) {
	if len(scored) == 0 {
		return models.RiskSummary{}, models.ErrEmptyDataset
	}

	var total float64
	var high, medium, low int
	for _, sd := range scored {
		total += sd.RiskScore
		switch RiskBand(sd.RiskScore) {
		case models.RiskBandHigh:
			high++
		case models.RiskBandMedium:
			medium++
		default:
			low++
		}
	}

	n := float64(len(scored))
	return models.RiskSummary{
		AverageRiskScore:     utils.RoundMoney(total / n),
		HighRiskPercentage:   utils.RoundRate(float64(high) / n),
		MediumRiskPercentage: utils.RoundRate(float64(medium) / n),
		LowRiskPercentage:    utils.RoundRate(float64(low) / n),
	}, nil
}
