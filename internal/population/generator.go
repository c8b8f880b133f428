// Package population draws per-trader account counts.
package population

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"capex-lab/internal/domain"
)

// Generate draws a population of traderCount traders.
//
// ModeAverageSimulated draws Poisson(params.Average) per trader.
// ModeRandomized draws uniformly from [params.Low, params.High] inclusive.
// All parameters are validated before the first draw.
func Generate(rng *rand.Rand, mode domain.DistributionMode, traderCount int, params domain.PopulationParams) (domain.Population, error) {
	if err := Validate(mode, traderCount, params); err != nil {
		return domain.Population{}, err
	}
	if rng == nil {
		return domain.Population{}, fmt.Errorf("%w: nil random source", domain.ErrInvalidParameter)
	}

	counts := make([]int, traderCount)
	switch mode {
	case domain.ModeAverageSimulated:
		// rng satisfies rand.Source via Uint64.
		poisson := distuv.Poisson{Lambda: float64(params.Average), Src: rng}
		for i := range counts {
			counts[i] = int(poisson.Rand())
		}
	case domain.ModeRandomized:
		span := params.High - params.Low + 1
		for i := range counts {
			counts[i] = params.Low + rng.IntN(span)
		}
	}

	return domain.NewPopulation(counts), nil
}

// Validate checks generator inputs without drawing.
func Validate(mode domain.DistributionMode, traderCount int, params domain.PopulationParams) error {
	if traderCount < 1 || traderCount > domain.MaxTraderCount {
		return fmt.Errorf("%w: trader count %d outside [1, %d]", domain.ErrInvalidParameter, traderCount, domain.MaxTraderCount)
	}

	switch mode {
	case domain.ModeAverageSimulated:
		if params.Average < domain.MinAccountsParam || params.Average > domain.MaxAccountsParam {
			return fmt.Errorf("%w: average accounts %d outside [%d, %d]",
				domain.ErrInvalidParameter, params.Average, domain.MinAccountsParam, domain.MaxAccountsParam)
		}
	case domain.ModeRandomized:
		if params.Low < domain.MinAccountsParam || params.High > domain.MaxAccountsParam || params.Low > params.High {
			return fmt.Errorf("%w: account range [%d, %d] must satisfy %d <= low <= high <= %d",
				domain.ErrInvalidParameter, params.Low, params.High, domain.MinAccountsParam, domain.MaxAccountsParam)
		}
	default:
		return fmt.Errorf("%w: unknown distribution mode %q", domain.ErrInvalidParameter, mode)
	}
	return nil
}
