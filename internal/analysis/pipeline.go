// Package analysis runs a complete capex analysis: one population, the scenario
// and breakeven views on that population, and the risk sweep for its mode.
package analysis

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"capex-lab/internal/domain"
	"capex-lab/internal/finance"
	"capex-lab/internal/idhash"
	"capex-lab/internal/observability"
	"capex-lab/internal/population"
	"capex-lab/internal/simulation"
	"capex-lab/internal/sweep"
)

// Child stream ids of a run seed.
const (
	streamScenario uint64 = iota + 1
	streamBreakeven
	streamRisk
)

// Request is the input of one analysis run.
// Empty rate lists fall back to finance.DefaultScenarioRates and finance.DefaultBreakevenRates.
type Request struct {
	Mode           domain.DistributionMode    `json:"mode"`
	Params         domain.PopulationParams    `json:"params"`
	Financial      domain.FinancialParameters `json:"financial"`
	ScenarioRates  []float64                  `json:"scenario_rates,omitempty"`
	BreakevenRates []float64                  `json:"breakeven_rates,omitempty"`
	Seed           *uint64                    `json:"seed,omitempty"`
	Sampling       simulation.Sampling        `json:"sampling,omitempty"`
	SkipRisk       bool                       `json:"skip_risk,omitempty"`
	HistogramBins  int                        `json:"histogram_bins,omitempty"`
}

// withDefaults fills the optional fields.
func (r Request) withDefaults() Request {
	if len(r.ScenarioRates) == 0 {
		r.ScenarioRates = finance.DefaultScenarioRates()
	}
	if len(r.BreakevenRates) == 0 {
		r.BreakevenRates = finance.DefaultBreakevenRates()
	}
	if r.Sampling == "" {
		r.Sampling = simulation.SamplingPooled
	}
	if r.HistogramBins <= 0 {
		r.HistogramBins = finance.DefaultHistogramBins
	}
	return r
}

// Validate checks every input of the run before anything is drawn.
// Optional fields are checked after defaults apply, as Run sees them.
func (r Request) Validate() error {
	bins := r.HistogramBins
	r = r.withDefaults()

	err := population.Validate(r.Mode, r.Financial.TraderCount, r.Params)

	f := r.Financial
	if !finiteNonNegative(f.RevenuePerAccount) {
		err = multierr.Append(err, fmt.Errorf("%w: revenue per account must be finite and >= 0, got %v",
			domain.ErrInvalidParameter, f.RevenuePerAccount))
	}
	if math.IsNaN(f.AdditionalRevenue) || math.IsInf(f.AdditionalRevenue, 0) {
		err = multierr.Append(err, fmt.Errorf("%w: additional revenue must be finite, got %v",
			domain.ErrInvalidParameter, f.AdditionalRevenue))
	}
	if bins < 0 || bins > 1000 {
		err = multierr.Append(err, fmt.Errorf("%w: histogram bins %d outside [0, 1000]",
			domain.ErrInvalidParameter, bins))
	}

	err = multierr.Append(err, simulation.ValidateParameters(f.Simulations, r.ScenarioRates, f.PayoutPerSuccess, r.Sampling))
	return multierr.Append(err, simulation.ValidateFailureRates(r.BreakevenRates))
}

func finiteNonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}

// ScenarioHistogram is the payout distribution of one scenario rate.
type ScenarioHistogram struct {
	FailureRate float64       `json:"failure_rate"`
	Bins        []finance.Bin `json:"bins"`
}

// Result holds everything a presentation layer needs from one run.
type Result struct {
	RunID         string                     `json:"run_id"`
	GeneratedAt   time.Time                  `json:"generated_at"`
	Mode          domain.DistributionMode    `json:"mode"`
	Params        domain.PopulationParams    `json:"params"`
	Financial     domain.FinancialParameters `json:"financial"`
	Seed          uint64                     `json:"seed"`
	Seeded        bool                       `json:"seeded"`
	Sampling      simulation.Sampling        `json:"sampling"`
	TotalAccounts int64                      `json:"total_accounts"`
	MeanAccounts  float64                    `json:"mean_accounts"`
	TotalRevenue  float64                    `json:"total_revenue"`

	Scenarios   []finance.ScenarioSummary `json:"scenarios"`
	Histograms  []ScenarioHistogram       `json:"histograms"`
	ProfitCurve []domain.ProfitPoint      `json:"profit_curve"`
	Breakeven   domain.Breakeven          `json:"breakeven"`
	RiskAxis    domain.Axis               `json:"risk_axis"`
	Risk        []domain.RiskPoint        `json:"risk"`

	// ScenarioResults are the raw batches behind Scenarios.
	ScenarioResults *simulation.Results `json:"-"`
}

// Pipeline orchestrates population → engine → finance, plus the risk sweep.
type Pipeline struct {
	engine  *simulation.Engine
	sweeper *sweep.Runner
	logger  *zap.Logger
	clock   func() time.Time
}

// NewPipeline creates a pipeline on top of engine.
func NewPipeline(engine *simulation.Engine, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		engine:  engine,
		sweeper: sweep.NewRunner(engine, logger),
		logger:  logger,
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (p *Pipeline) WithClock(clock func() time.Time) *Pipeline {
	p.clock = clock
	return p
}

// Run executes a full analysis.
// Phases:
//  1. Validate every input
//  2. Draw the population once
//  3. Scenario and breakeven engine runs on that population
//  4. Risk sweep for the mode's axis (fresh population per point)
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	res, err := p.run(ctx, req)
	observability.RecordAnalysisRun(time.Since(start).Seconds(), err)
	if err != nil {
		p.logger.Warn("analysis failed", zap.Error(err))
		return nil, err
	}
	p.logger.Info("analysis complete",
		zap.String("run_id", res.RunID),
		zap.String("mode", res.Mode.String()),
		zap.Int("traders", res.Financial.TraderCount),
		zap.Int64("accounts", res.TotalAccounts),
		zap.Bool("breakeven_found", res.Breakeven.Found),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	req = req.withDefaults()

	base := simulation.RandomSeed()
	if req.Seed != nil {
		base = *req.Seed
	}
	f := req.Financial

	// Phase 2: one population for every scenario and breakeven rate.
	pop, err := population.Generate(simulation.NewStream(base, simulation.StreamPopulation), req.Mode, f.TraderCount, req.Params)
	if err != nil {
		return nil, fmt.Errorf("generate population: %w", err)
	}
	totalRevenue := finance.TotalRevenue(f, pop)

	// Phase 3: scenario view and breakeven view.
	scenarioSeed := simulation.DeriveSeed(base, streamScenario)
	scenarios, err := p.engine.Run(ctx, simulation.Request{
		Population:       pop,
		Simulations:      f.Simulations,
		FailureRates:     req.ScenarioRates,
		PayoutPerSuccess: f.PayoutPerSuccess,
		Seed:             &scenarioSeed,
		Sampling:         req.Sampling,
	})
	if err != nil {
		return nil, fmt.Errorf("scenario run: %w", err)
	}

	breakevenSeed := simulation.DeriveSeed(base, streamBreakeven)
	breakevenRuns, err := p.engine.Run(ctx, simulation.Request{
		Population:       pop,
		Simulations:      f.Simulations,
		FailureRates:     req.BreakevenRates,
		PayoutPerSuccess: f.PayoutPerSuccess,
		Seed:             &breakevenSeed,
		Sampling:         req.Sampling,
	})
	if err != nil {
		return nil, fmt.Errorf("breakeven run: %w", err)
	}
	curve := finance.BreakevenCurve(totalRevenue, breakevenRuns)

	// Phase 4: risk curve.
	axis := domain.AxisForMode(req.Mode)
	var risk []domain.RiskPoint
	if !req.SkipRisk {
		riskSeed := simulation.DeriveSeed(base, streamRisk)
		risk, err = p.sweeper.Sweep(ctx, sweep.Request{
			Axis:             axis,
			TraderCount:      f.TraderCount,
			Simulations:      f.Simulations,
			FailureRates:     req.ScenarioRates,
			PayoutPerSuccess: f.PayoutPerSuccess,
			Seed:             &riskSeed,
			Sampling:         req.Sampling,
		})
		if err != nil {
			return nil, fmt.Errorf("risk sweep: %w", err)
		}
	}

	histograms := make([]ScenarioHistogram, 0, scenarios.Len())
	scenarios.Each(func(rate float64, b domain.SimulationBatch) {
		histograms = append(histograms, ScenarioHistogram{
			FailureRate: rate,
			Bins:        finance.Histogram(b, req.HistogramBins),
		})
	})

	scenarioKey := idhash.ComputeSimulationKey(idhash.SimulationKeyInput{
		PopulationDigest: idhash.ComputePopulationDigest(pop),
		FailureRates:     req.ScenarioRates,
		Simulations:      f.Simulations,
		PayoutPerSuccess: f.PayoutPerSuccess,
		Sampling:         string(req.Sampling),
		Seed:             req.Seed,
	})

	return &Result{
		RunID: idhash.ComputeRunID(idhash.RunIDInput{
			Mode:           req.Mode,
			Params:         req.Params,
			Financial:      f,
			Seed:           req.Seed,
			ScenarioKey:    scenarioKey,
			BreakevenRates: req.BreakevenRates,
			SkipRisk:       req.SkipRisk,
		}),
		GeneratedAt:     p.clock(),
		Mode:            req.Mode,
		Params:          req.Params,
		Financial:       f,
		Seed:            base,
		Seeded:          req.Seed != nil,
		Sampling:        req.Sampling,
		TotalAccounts:   finance.TotalAccounts(pop),
		MeanAccounts:    pop.Mean(),
		TotalRevenue:    totalRevenue,
		Scenarios:       finance.SummarizeAll(totalRevenue, scenarios),
		Histograms:      histograms,
		ProfitCurve:     curve,
		Breakeven:       finance.FindBreakeven(curve),
		RiskAxis:        axis,
		Risk:            risk,
		ScenarioResults: scenarios,
	}, nil
}
