package models

// TrendDirection describes how the quarterly win rate is moving.
type TrendDirection string

const (
	TrendDeclining    TrendDirection = "Declining"
	TrendImproving    TrendDirection = "Improving"
	TrendStable       TrendDirection = "Stable"
	TrendInsufficient TrendDirection = "Insufficient data"
)

// QuarterWinRate holds the win rate of closed deals created in one calendar quarter.
type QuarterWinRate struct {
	Quarter     string  `json:"quarter"`
	WinRate     float64 `json:"win_rate"`
	ClosedDeals int     `json:"closed_deals"`
}

// WinRateTrend summarizes quarter-over-quarter movement of the win rate.
// LatestWinRate and PreviousWinRate are nil when Direction is TrendInsufficient.
type WinRateTrend struct {
	Direction       TrendDirection   `json:"trend_direction"`
	LatestWinRate   *float64         `json:"latest_win_rate,omitempty"`
	PreviousWinRate *float64         `json:"previous_win_rate,omitempty"`
	Quarters        []QuarterWinRate `json:"quarters"`
}

// Sufficient reports whether at least two quarters fed the trend.
func (t WinRateTrend) Sufficient() bool {
	return t.Direction != TrendInsufficient && t.LatestWinRate != nil && t.PreviousWinRate != nil
}

// WeakestLeadSource is the lead source with the lowest closed-deal win rate.
type WeakestLeadSource struct {
	Source  string  `json:"weakest_source"`
	WinRate float64 `json:"win_rate"`
}

// ACVStats aggregates deal amounts over every cleaned record.
type ACVStats struct {
	MeanACV      float64 `json:"mean_acv"`
	MedianACV    float64 `json:"median_acv"`
	TotalRevenue float64 `json:"total_revenue"`
}

// MetricsBundle is the immutable snapshot of every metrics-engine output.
type MetricsBundle struct {
	OverallWinRate        float64            `json:"overall_win_rate"`
	WinRateByLeadSource   map[string]float64 `json:"win_rate_by_lead_source"`
	WeakestLeadSource     *WeakestLeadSource `json:"weakest_lead_source"`
	WinRateTrend          WinRateTrend       `json:"win_rate_trend"`
	AverageSalesCycle     float64            `json:"average_sales_cycle"`
	MedianSalesCycle      float64            `json:"median_sales_cycle"`
	StalledDealPercentage float64            `json:"stalled_deal_percentage"`
	ACVStats              ACVStats           `json:"acv_stats"`
	TotalDeals            int                `json:"total_deals"`
	ClosedDeals           int                `json:"closed_deals"`
}

// RiskSummary is the portfolio-level view of the risk model.
type RiskSummary struct {
	AverageRiskScore     float64 `json:"average_risk_score"`
	HighRiskPercentage   float64 `json:"high_risk_percentage"`
	MediumRiskPercentage float64 `json:"medium_risk_percentage"`
	LowRiskPercentage    float64 `json:"low_risk_percentage"`
}

// HealthScore is the composite pipeline score and its label.
type HealthScore struct {
	Score float64 `json:"score"`
	Label string  `json:"label"`
}
