package models

import "time"

// Normalized outcome values. Anything else is treated as open.
const (
	OutcomeWon  = "won"
	OutcomeLost = "lost"
)

// Risk bands on the 0-100 composite scale.
const (
	RiskBandHigh   = "high"
	RiskBandMedium = "medium"
	RiskBandLow    = "low"
)

// Deal is one cleaned sales opportunity.
type Deal struct {
	ID             string     `json:"deal_id"`
	CreatedDate    *time.Time `json:"created_date"`
	ClosedDate     *time.Time `json:"closed_date"`
	Outcome        string     `json:"outcome"`
	DealAmount     float64    `json:"deal_amount"`
	SalesCycleDays int        `json:"sales_cycle_days"`
	LeadSource     string     `json:"lead_source"`
}

// IsClosed reports whether the deal has a won or lost outcome.
func (d Deal) IsClosed() bool {
	return d.Outcome == OutcomeWon || d.Outcome == OutcomeLost
}

// IsWon reports whether the deal was won.
func (d Deal) IsWon() bool {
	return d.Outcome == OutcomeWon
}

// ScoredDeal is a Deal copy enriched with its risk sub-scores.
type ScoredDeal struct {
	Deal
	CycleRisk      float64 `json:"cycle_risk"`
	ACVRisk        float64 `json:"acv_risk"`
	LeadSourceRisk float64 `json:"lead_source_risk"`
	StallRisk      float64 `json:"stall_risk"`
	RiskScore      float64 `json:"risk_score"`
	RiskBand       string  `json:"risk_band"`
}
