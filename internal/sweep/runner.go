// Package sweep builds risk curves by re-running the engine across a parameter axis.
package sweep

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"capex-lab/internal/domain"
	"capex-lab/internal/finance"
	"capex-lab/internal/observability"
	"capex-lab/internal/population"
	"capex-lab/internal/simulation"
)

// Axis bounds.
const (
	AverageAxisMin = 1
	RangeAxisMin   = 2
	AxisMax        = domain.MaxAccountsParam
)

// Request describes one sweep.
type Request struct {
	Axis             domain.Axis         `json:"axis"`
	TraderCount      int                 `json:"trader_count"`
	Simulations      int                 `json:"simulations"`
	FailureRates     []float64           `json:"failure_rates"`
	PayoutPerSuccess float64             `json:"payout_per_success"`
	Seed             *uint64             `json:"seed,omitempty"`
	Sampling         simulation.Sampling `json:"sampling,omitempty"`
}

// Validate checks the request before any population is drawn.
func (r Request) Validate() error {
	var err error
	if !r.Axis.IsValid() {
		err = multierr.Append(err, fmt.Errorf("%w: unknown axis %q", domain.ErrInvalidParameter, r.Axis))
	}
	if r.TraderCount < 1 || r.TraderCount > domain.MaxTraderCount {
		err = multierr.Append(err, fmt.Errorf("%w: trader count %d outside [1, %d]",
			domain.ErrInvalidParameter, r.TraderCount, domain.MaxTraderCount))
	}
	return multierr.Append(err, simulation.ValidateParameters(r.Simulations, r.FailureRates, r.PayoutPerSuccess, r.Sampling))
}

// AxisValues returns the ascending axis values of a sweep.
func AxisValues(axis domain.Axis) []int {
	lo := AverageAxisMin
	if axis == domain.AxisRangeWidth {
		lo = RangeAxisMin
	}
	values := make([]int, 0, AxisMax-lo+1)
	for v := lo; v <= AxisMax; v++ {
		values = append(values, v)
	}
	return values
}

// pointPopulation returns the generator inputs for one axis value.
func pointPopulation(axis domain.Axis, value int) (domain.DistributionMode, domain.PopulationParams) {
	if axis == domain.AxisRangeWidth {
		return domain.ModeRandomized, domain.PopulationParams{Low: 1, High: value}
	}
	return domain.ModeAverageSimulated, domain.PopulationParams{Average: value}
}

// Runner executes sweeps on a shared engine.
type Runner struct {
	engine *simulation.Engine
	logger *zap.Logger
}

// NewRunner creates a new sweep runner.
func NewRunner(engine *simulation.Engine, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		engine: engine,
		logger: logger,
	}
}

// Sweep draws a fresh population at every axis value, runs the engine on it and
// records the payout standard deviation for each failure rate.
// Points are ordered by axis value, then by the order of req.FailureRates.
func (r *Runner) Sweep(ctx context.Context, req Request) ([]domain.RiskPoint, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	base := simulation.RandomSeed()
	if req.Seed != nil {
		base = *req.Seed
	}

	start := time.Now()
	values := AxisValues(req.Axis)
	points := make([]domain.RiskPoint, 0, len(values)*len(req.FailureRates))

	for _, value := range values {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("sweep interrupted at %s=%d: %w", req.Axis, value, err)
		}

		mode, params := pointPopulation(req.Axis, value)
		rng := simulation.NewStream(base, simulation.StreamSweep, uint64(value), simulation.StreamPopulation)
		pop, err := population.Generate(rng, mode, req.TraderCount, params)
		if err != nil {
			return nil, err
		}

		engineSeed := simulation.DeriveSeed(base, simulation.StreamSweep, uint64(value), simulation.StreamEngine)
		res, err := r.engine.Run(ctx, simulation.Request{
			Population:       pop,
			Simulations:      req.Simulations,
			FailureRates:     req.FailureRates,
			PayoutPerSuccess: req.PayoutPerSuccess,
			Seed:             &engineSeed,
			Sampling:         req.Sampling,
		})
		if err != nil {
			return nil, fmt.Errorf("sweep %s=%d: %w", req.Axis, value, err)
		}

		res.Each(func(rate float64, b domain.SimulationBatch) {
			points = append(points, domain.RiskPoint{
				Axis:        req.Axis,
				AxisValue:   value,
				FailureRate: rate,
				StdDev:      finance.StdPayout(b),
			})
		})
		observability.RecordSweepPoint(req.Axis.String())
	}

	observability.RecordSweep(req.Axis.String(), time.Since(start).Seconds())
	r.logger.Info("sweep complete",
		zap.String("axis", req.Axis.String()),
		zap.Int("points", len(values)),
		zap.Int("traders", req.TraderCount),
		zap.Int("simulations", req.Simulations),
		zap.Duration("elapsed", time.Since(start)),
	)
	return points, nil
}
