// Package finance turns simulated payout batches into profit, risk and breakeven figures.
// Everything here is a pure function: no randomness, no state.
package finance

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"capex-lab/internal/domain"
	"capex-lab/internal/simulation"
)

// TotalAccounts returns the number of accounts used for revenue.
func TotalAccounts(pop domain.Population) int64 {
	return pop.Sum()
}

// TotalRevenue returns (accounts * revenue per account) + additional revenue for pop.
func TotalRevenue(params domain.FinancialParameters, pop domain.Population) float64 {
	return params.TotalRevenue(TotalAccounts(pop))
}

// MeanPayout returns the mean of a batch, 0 for an empty batch.
func MeanPayout(b domain.SimulationBatch) float64 {
	if len(b) == 0 {
		return 0
	}
	return stat.Mean(b, nil)
}

// StdPayout returns the population standard deviation (n denominator) of a batch.
func StdPayout(b domain.SimulationBatch) float64 {
	if len(b) < 2 {
		return 0
	}
	_, std := stat.PopMeanStdDev(b, nil)
	if math.IsNaN(std) {
		return 0
	}
	return std
}

// EstimatedProfit returns totalRevenue - mean payout.
func EstimatedProfit(totalRevenue float64, b domain.SimulationBatch) float64 {
	return totalRevenue - MeanPayout(b)
}

// Band is a one standard deviation profit range.
type Band struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// ConfidenceBand returns [rev - (mean+std), rev - (mean-std)].
func ConfidenceBand(totalRevenue float64, b domain.SimulationBatch) Band {
	mean := MeanPayout(b)
	std := StdPayout(b)
	return Band{
		Low:  totalRevenue - (mean + std),
		High: totalRevenue - (mean - std),
	}
}

// ScenarioSummary describes the payout distribution of one failure rate.
type ScenarioSummary struct {
	FailureRate     float64 `json:"failure_rate"`
	MeanPayout      float64 `json:"mean_payout"`
	StdPayout       float64 `json:"std_payout"`
	EstimatedProfit float64 `json:"estimated_profit"`
	Band            Band    `json:"band"`
	P5              float64 `json:"p5"`
	P50             float64 `json:"p50"`
	P95             float64 `json:"p95"`
	MinPayout       float64 `json:"min_payout"`
	MaxPayout       float64 `json:"max_payout"`
}

// Summarize computes the ScenarioSummary of one batch.
func Summarize(totalRevenue, rate float64, b domain.SimulationBatch) ScenarioSummary {
	s := ScenarioSummary{
		FailureRate:     rate,
		MeanPayout:      MeanPayout(b),
		StdPayout:       StdPayout(b),
		EstimatedProfit: EstimatedProfit(totalRevenue, b),
		Band:            ConfidenceBand(totalRevenue, b),
	}
	if len(b) == 0 {
		return s
	}

	sorted := b.Clone()
	sort.Float64s(sorted)
	s.P5 = percentile(sorted, 0.05)
	s.P50 = percentile(sorted, 0.50)
	s.P95 = percentile(sorted, 0.95)
	s.MinPayout = sorted[0]
	s.MaxPayout = sorted[len(sorted)-1]
	return s
}

// SummarizeAll summarizes every rate of results, in rate order of the request.
func SummarizeAll(totalRevenue float64, results *simulation.Results) []ScenarioSummary {
	out := make([]ScenarioSummary, 0, results.Len())
	results.Each(func(rate float64, b domain.SimulationBatch) {
		out = append(out, Summarize(totalRevenue, rate, b))
	})
	return out
}

// ScenarioRows flattens results into one row per replicate.
func ScenarioRows(totalRevenue float64, results *simulation.Results) []domain.ScenarioPayout {
	rows := make([]domain.ScenarioPayout, 0, results.Len()*results.Simulations())
	results.Each(func(rate float64, b domain.SimulationBatch) {
		for i, payout := range b {
			rows = append(rows, domain.ScenarioPayout{
				FailureRate:      rate,
				Replicate:        i,
				SimulatedPayout:  payout,
				AssociatedProfit: totalRevenue - payout,
			})
		}
	})
	return rows
}

// percentile uses linear interpolation.
// sorted must be pre-sorted ASC.
// p is percentile (0.10 = 10th percentile).
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}
