// Package analytics holds the deterministic pipeline: the metrics engine,
// the risk model and the health index. Every function is pure; identical
// input yields identical output.
package analytics

import (
	"sort"

	"salesintel/models"
	"salesintel/utils"
)

// StallMultiplier marks a deal as stalled when its cycle exceeds this
// multiple of the dataset median.
const StallMultiplier = 1.5

// ComputeMetrics builds the full metrics bundle. Rounding is applied here,
// once, on the way out.
func ComputeMetrics(deals []models.Deal) (models.MetricsBundle, error) {
	if len(deals) == 0 {
		return models.MetricsBundle{}, models.ErrEmptyDataset
	}

	byLead := WinRateByLeadSource(deals)
	rounded := make(map[string]float64, len(byLead))
	for source, rate := range byLead {
		rounded[source] = utils.RoundRate(rate)
	}

	var weakest *models.WeakestLeadSource
	if w := WeakestLeadSource(byLead); w != nil {
		weakest = &models.WeakestLeadSource{Source: w.Source, WinRate: utils.RoundRate(w.WinRate)}
	}

	acv := ACVStats(deals)

	return models.MetricsBundle{
		OverallWinRate:        utils.RoundRate(OverallWinRate(deals)),
		WinRateByLeadSource:   rounded,
		WeakestLeadSource:     weakest,
		WinRateTrend:          roundTrend(WinRateTrend(deals)),
		AverageSalesCycle:     utils.RoundDays(AverageSalesCycle(deals)),
		MedianSalesCycle:      utils.RoundDays(MedianSalesCycle(deals)),
		StalledDealPercentage: utils.RoundRate(StalledDealPercentage(deals)),
		ACVStats: models.ACVStats{
			MeanACV:      utils.RoundMoney(acv.MeanACV),
			MedianACV:    utils.RoundMoney(acv.MedianACV),
			TotalRevenue: utils.RoundMoney(acv.TotalRevenue),
		},
		TotalDeals:  len(deals),
		ClosedDeals: countClosed(deals),
	}, nil
}

func countClosed(deals []models.Deal) int {
	n := 0
	for _, d := range deals {
		if d.IsClosed() {
			n++
		}
	}
	return n
}

func winFraction(won, closed int) float64 {
	if closed == 0 {
		return 0
	}
	return float64(won) / float64(closed)
}

// OverallWinRate is won / (won + lost). It is 0 when nothing has closed.
func OverallWinRate(deals []models.Deal) float64 {
	won, closed := 0, 0
	for _, d := range deals {
		if !d.IsClosed() {
			continue
		}
		closed++
		if d.IsWon() {
			won++
		}
	}
	return winFraction(won, closed)
}

// WinRateByLeadSource returns the closed-deal win rate per lead source.
// Sources with no closed deals are omitted.
func WinRateByLeadSource(deals []models.Deal) map[string]float64 {
	type tally struct{ won, closed int }
	tallies := make(map[string]*tally)
	for _, d := range deals {
		if !d.IsClosed() {
			continue
		}
		t, ok := tallies[d.LeadSource]
		if !ok {
			t = &tally{}
			tallies[d.LeadSource] = t
		}
		t.closed++
		if d.IsWon() {
			t.won++
		}
	}

	rates := make(map[string]float64, len(tallies))
	for source, t := range tallies {
		rates[source] = winFraction(t.won, t.closed)
	}
	return rates
}

// WeakestLeadSource picks the source with the lowest win rate. Ties go to
// the lexicographically smallest label. Returns nil for an empty map.
func WeakestLeadSource(rates map[string]float64) *models.WeakestLeadSource {
	if len(rates) == 0 {
		return nil
	}
	sources := make([]string, 0, len(rates))
	for s := range rates {
		sources = append(sources, s)
	}
	sort.Strings(sources)

	best := sources[0]
	for _, s := range sources[1:] {
		if rates[s] < rates[best] {
			best = s
		}
	}
	return &models.WeakestLeadSource{Source: best, WinRate: rates[best]}
}

// WinRateTrend groups closed deals by the calendar quarter of their
// creation date and averages the successive quarter-over-quarter changes.
// Deals without a creation date are left out. Fewer than two quarters
// yields TrendInsufficient.
func WinRateTrend(deals []models.Deal) models.WinRateTrend {
	type bucket struct {
		label       string
		won, closed int
	}
	buckets := make(map[int]*bucket)
	for _, d := range deals {
		if !d.IsClosed() || d.CreatedDate == nil {
			continue
		}
		idx := utils.QuarterIndex(*d.CreatedDate)
		b, ok := buckets[idx]
		if !ok {
			b = &bucket{label: utils.QuarterLabel(*d.CreatedDate)}
			buckets[idx] = b
		}
		b.closed++
		if d.IsWon() {
			b.won++
		}
	}

	keys := make([]int, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	quarters := make([]models.QuarterWinRate, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		quarters = append(quarters, models.QuarterWinRate{
			Quarter:     b.label,
			WinRate:     winFraction(b.won, b.closed),
			ClosedDeals: b.closed,
		})
	}

	trend := models.WinRateTrend{Direction: models.TrendInsufficient, Quarters: quarters}
	if len(quarters) < 2 {
		return trend
	}

	diffSum := 0.0
	for i := 1; i < len(quarters); i++ {
		diffSum += quarters[i].WinRate - quarters[i-1].WinRate
	}
	meanDiff := diffSum / float64(len(quarters)-1)

	switch {
	case meanDiff < 0:
		trend.Direction = models.TrendDeclining
	case meanDiff > 0:
		trend.Direction = models.TrendImproving
	default:
		trend.Direction = models.TrendStable
	}

	latest := quarters[len(quarters)-1].WinRate
	previous := quarters[len(quarters)-2].WinRate
	trend.LatestWinRate = &latest
	trend.PreviousWinRate = &previous
	return trend
}

func roundTrend(t models.WinRateTrend) models.WinRateTrend {
	out := models.WinRateTrend{Direction: t.Direction, Quarters: make([]models.QuarterWinRate, len(t.Quarters))}
	for i, q := range t.Quarters {
		q.WinRate = utils.RoundRate(q.WinRate)
		out.Quarters[i] = q
	}
	if t.LatestWinRate != nil {
		v := utils.RoundRate(*t.LatestWinRate)
		out.LatestWinRate = &v
	}
	if t.PreviousWinRate != nil {
		v := utils.RoundRate(*t.PreviousWinRate)
		out.PreviousWinRate = &v
	}
	return out
}

func cycleDays(deals []models.Deal) []float64 {
	out := make([]float64, len(deals))
	for i, d := range deals {
		out[i] = float64(d.SalesCycleDays)
	}
	return out
}

func amounts(deals []models.Deal) []float64 {
	out := make([]float64, len(deals))
	for i, d := range deals {
		out[i] = d.DealAmount
	}
	return out
}

// AverageSalesCycle is the mean cycle length over every cleaned deal.
func AverageSalesCycle(deals []models.Deal) float64 {
	return utils.Mean(cycleDays(deals))
}

// MedianSalesCycle is the median cycle length over every cleaned deal.
func MedianSalesCycle(deals []models.Deal) float64 {
	return utils.Median(cycleDays(deals))
}

// StallThreshold is the cycle length above which a deal counts as stalled.
// It is derived from the current dataset on every call.
func StallThreshold(deals []models.Deal) float64 {
	return StallMultiplier * MedianSalesCycle(deals)
}

// StalledDealPercentage is the fraction of all deals whose cycle exceeds
// the stall threshold.
func StalledDealPercentage(deals []models.Deal) float64 {
	if len(deals) == 0 {
		return 0
	}
	threshold := StallThreshold(deals)
	stalled := 0
	for _, d := range deals {
		if float64(d.SalesCycleDays) > threshold {
			stalled++
		}
	}
	return float64(stalled) / float64(len(deals))
}

// ACVStats returns unrounded mean, median and total deal amount.
func ACVStats(deals []models.Deal) models.ACVStats {
	values := amounts(deals)
	return models.ACVStats{
		MeanACV:      utils.Mean(values),
		MedianACV:    utils.Median(values),
		TotalRevenue: utils.Sum(values),
	}
}
