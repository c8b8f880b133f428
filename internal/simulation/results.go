package simulation

import "capex-lab/internal/domain"

// Results maps each failure rate to its SimulationBatch, in request order.
type Results struct {
	rates       []float64
	batches     []domain.SimulationBatch
	index       map[float64]int
	seed        uint64
	sampling    Sampling
	simulations int
}

func newResults(rates []float64, batches []domain.SimulationBatch, seed uint64, sampling Sampling, simulations int) *Results {
	r := &Results{
		rates:       append([]float64(nil), rates...),
		batches:     batches,
		index:       make(map[float64]int, len(rates)),
		seed:        seed,
		sampling:    sampling,
		simulations: simulations,
	}
	for i, rate := range r.rates {
		r.index[rate] = i
	}
	return r
}

// Len returns the number of failure rates.
func (r *Results) Len() int {
	return len(r.rates)
}

// Rates returns the failure rates in request order.
func (r *Results) Rates() []float64 {
	return append([]float64(nil), r.rates...)
}

// Batch returns a copy of the batch simulated for rate.
func (r *Results) Batch(rate float64) (domain.SimulationBatch, bool) {
	i, ok := r.index[rate]
	if !ok {
		return nil, false
	}
	return r.batches[i].Clone(), true
}

// Each calls fn for every rate in request order.
// The batch passed to fn is shared and must not be modified.
func (r *Results) Each(fn func(rate float64, batch domain.SimulationBatch)) {
	for i, rate := range r.rates {
		fn(rate, r.batches[i])
	}
}

// Seed returns the seed the batches were drawn with.
func (r *Results) Seed() uint64 {
	return r.seed
}

// Sampling returns the sampling mode used.
func (r *Results) Sampling() Sampling {
	return r.sampling
}

// Simulations returns the number of replicates per rate.
func (r *Results) Simulations() int {
	return r.simulations
}

// clone deep-copies the results so cached entries are never shared with callers.
func (r *Results) clone() *Results {
	batches := make([]domain.SimulationBatch, len(r.batches))
	for i, b := range r.batches {
		batches[i] = b.Clone()
	}
	return newResults(r.rates, batches, r.seed, r.sampling, r.simulations)
}
