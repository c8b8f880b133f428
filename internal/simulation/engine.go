// Package simulation draws binomial payout batches for a fixed trader population.
package simulation

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"capex-lab/internal/domain"
	"capex-lab/internal/idhash"
	"capex-lab/internal/observability"
)

// DefaultBlockSize is the number of replicates drawn by one task.
const DefaultBlockSize = 250

// Request is the input of one engine invocation.
type Request struct {
	Population       domain.Population
	Simulations      int
	FailureRates     []float64
	PayoutPerSuccess float64
	Seed             *uint64  // nil draws a fresh seed
	Sampling         Sampling // empty means SamplingPooled
}

// Validate checks every parameter before any sampling happens.
// All violations are reported together, each wrapping domain.ErrInvalidParameter.
func (r Request) Validate() error {
	var err error
	if r.Population.Len() < 1 {
		err = multierr.Append(err, fmt.Errorf("%w: population is empty", domain.ErrInvalidParameter))
	}
	return multierr.Append(err, ValidateParameters(r.Simulations, r.FailureRates, r.PayoutPerSuccess, r.Sampling))
}

// ValidateParameters checks the population independent inputs of a run.
func ValidateParameters(simulations int, rates []float64, payout float64, sampling Sampling) error {
	var err error
	if simulations < 1 || simulations > domain.MaxSimulations {
		err = multierr.Append(err, fmt.Errorf("%w: simulations must be in [1, %d], got %d",
			domain.ErrInvalidParameter, domain.MaxSimulations, simulations))
	}
	if payout < 0 || math.IsNaN(payout) || math.IsInf(payout, 0) {
		err = multierr.Append(err, fmt.Errorf("%w: payout per success must be finite and >= 0, got %v",
			domain.ErrInvalidParameter, payout))
	}
	if sampling != "" && !sampling.IsValid() {
		err = multierr.Append(err, fmt.Errorf("%w: unknown sampling %q", domain.ErrInvalidParameter, sampling))
	}
	return multierr.Append(err, ValidateFailureRates(rates))
}

// ValidateFailureRates checks that rates is non-empty, unique and inside [0, 1).
func ValidateFailureRates(rates []float64) error {
	if len(rates) == 0 {
		return fmt.Errorf("%w: at least one failure rate is required", domain.ErrInvalidParameter)
	}
	var err error
	seen := make(map[float64]struct{}, len(rates))
	for _, rate := range rates {
		if math.IsNaN(rate) || rate < 0 || rate >= 1 {
			err = multierr.Append(err, fmt.Errorf("%w: failure rate must be in [0, 1), got %v",
				domain.ErrInvalidParameter, rate))
			continue
		}
		if _, dup := seen[rate]; dup {
			err = multierr.Append(err, fmt.Errorf("%w: duplicate failure rate %v",
				domain.ErrInvalidParameter, rate))
			continue
		}
		seen[rate] = struct{}{}
	}
	return err
}

// EngineOptions configures an Engine.
type EngineOptions struct {
	Workers   int   // concurrent tasks, defaults to GOMAXPROCS
	BlockSize int   // replicates per task, defaults to DefaultBlockSize
	Cache     Cache // optional
	Logger    *zap.Logger
}

// Engine runs Monte Carlo batches. It holds no state between calls other than
// the optional cache, so one Engine can serve concurrent callers.
type Engine struct {
	workers   int
	blockSize int
	cache     Cache
	logger    *zap.Logger
}

// NewEngine creates an engine.
func NewEngine(opts EngineOptions) *Engine {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	blockSize := opts.BlockSize
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		workers:   workers,
		blockSize: blockSize,
		cache:     opts.Cache,
		logger:    logger,
	}
}

// Run simulates req.Simulations replicates for every failure rate.
//
// Each (rate, block) pair draws from its own stream derived from the seed, so
// rates never share draws and a seeded run is reproducible regardless of
// scheduling. The population is the same for every rate.
func (e *Engine) Run(ctx context.Context, req Request) (*Results, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sampling := req.Sampling
	if sampling == "" {
		sampling = SamplingPooled
	}

	var key string
	if e.cache != nil && req.Seed != nil {
		key = e.cacheKey(req, sampling)
		if cached, ok := e.cache.Get(key); ok {
			observability.RecordCacheLookup(true)
			e.logger.Debug("simulation cache hit", zap.String("key", key))
			return cached, nil
		}
		observability.RecordCacheLookup(false)
	}

	seed := RandomSeed()
	if req.Seed != nil {
		seed = *req.Seed
	}

	start := time.Now()
	batches, err := e.draw(ctx, req, sampling, seed)
	observability.RecordSimulationRun(string(sampling), req.Simulations*len(req.FailureRates),
		time.Since(start).Seconds(), err)
	if err != nil {
		return nil, err
	}

	res := newResults(req.FailureRates, batches, seed, sampling, req.Simulations)
	if key != "" {
		e.cache.Add(key, res)
	}

	e.logger.Debug("simulation complete",
		zap.Int("traders", req.Population.Len()),
		zap.Int64("accounts", req.Population.Sum()),
		zap.Int("rates", len(req.FailureRates)),
		zap.Int("simulations", req.Simulations),
		zap.String("sampling", string(sampling)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

func (e *Engine) draw(ctx context.Context, req Request, sampling Sampling, seed uint64) ([]domain.SimulationBatch, error) {
	n := req.Simulations
	blocks := (n + e.blockSize - 1) / e.blockSize
	batches := make([]domain.SimulationBatch, len(req.FailureRates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for ri, rate := range req.FailureRates {
		batch := make(domain.SimulationBatch, n)
		batches[ri] = batch
		smp := newSampler(sampling, req.Population, 1-rate)

		for b := 0; b < blocks; b++ {
			lo := b * e.blockSize
			hi := min(lo+e.blockSize, n)
			stream := []uint64{StreamEngine, uint64(ri), uint64(b)}

			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				rng := NewStream(seed, stream...)
				for i := lo; i < hi; i++ {
					batch[i] = float64(smp.successes(rng)) * req.PayoutPerSuccess
				}
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("simulation interrupted: %w", err)
	}
	return batches, nil
}

// cacheKey covers every input that affects the drawn values, block size included.
func (e *Engine) cacheKey(req Request, sampling Sampling) string {
	return idhash.ComputeSimulationKey(idhash.SimulationKeyInput{
		PopulationDigest: idhash.ComputePopulationDigest(req.Population),
		FailureRates:     req.FailureRates,
		Simulations:      req.Simulations,
		PayoutPerSuccess: req.PayoutPerSuccess,
		Sampling:         fmt.Sprintf("%s/%d", sampling, e.blockSize),
		Seed:             req.Seed,
	})
}
