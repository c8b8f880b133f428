package finance

import (
	"sort"

	"capex-lab/internal/domain"
	"capex-lab/internal/simulation"
)

// DefaultScenarioRates returns the failure rates of the scenario view.
func DefaultScenarioRates() []float64 {
	return []float64{0.90, 0.85, 0.80, 0.75, 0.50}
}

// DefaultBreakevenRates returns 0.01, 0.02, ..., 0.99.
// Each rate is i/100 so values compare equal to their literals.
func DefaultBreakevenRates() []float64 {
	rates := make([]float64, 0, 99)
	for i := 1; i <= 99; i++ {
		rates = append(rates, float64(i)/100)
	}
	return rates
}

// BreakevenCurve returns (rate, estimated profit) for every rate, ascending by rate.
func BreakevenCurve(totalRevenue float64, results *simulation.Results) []domain.ProfitPoint {
	curve := make([]domain.ProfitPoint, 0, results.Len())
	results.Each(func(rate float64, b domain.SimulationBatch) {
		curve = append(curve, domain.ProfitPoint{
			FailureRate:     rate,
			EstimatedProfit: EstimatedProfit(totalRevenue, b),
		})
	})
	sort.SliceStable(curve, func(i, j int) bool {
		return curve[i].FailureRate < curve[j].FailureRate
	})
	return curve
}

// FindBreakeven returns the lowest failure rate whose estimated profit is positive.
// A curve with no profitable rate yields Found=false; this is not an error.
func FindBreakeven(curve []domain.ProfitPoint) domain.Breakeven {
	best := domain.Breakeven{}
	for _, p := range curve {
		if p.EstimatedProfit <= 0 {
			continue
		}
		if !best.Found || p.FailureRate < best.FailureRate {
			best = domain.Breakeven{
				Found:           true,
				FailureRate:     p.FailureRate,
				EstimatedProfit: p.EstimatedProfit,
			}
		}
	}
	return best
}
