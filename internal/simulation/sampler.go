package simulation

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"capex-lab/internal/domain"
)

// Sampling selects how a replicate's successful accounts are drawn.
type Sampling string

const (
	// SamplingPooled draws a single Binomial(sum(accounts), p) per replicate.
	// Independent binomials sharing p sum to a binomial over the pooled trials,
	// so this has exactly the per-trader distribution at O(1) cost per replicate.
	SamplingPooled Sampling = "POOLED"
	// SamplingPerTrader draws Binomial(a_i, p) for every trader.
	// Cost is O(traders) per replicate; use it to cross-check pooled results.
	SamplingPerTrader Sampling = "PER_TRADER"
)

// IsValid checks if the sampling mode is a valid value.
func (s Sampling) IsValid() bool {
	return s == SamplingPooled || s == SamplingPerTrader
}

// directThreshold matches gonum's switch to the direct Bernoulli method.
const directThreshold = 25

// sampler draws total successful accounts for one replicate.
type sampler interface {
	successes(rng *rand.Rand) int64
}

func newSampler(mode Sampling, pop domain.Population, p float64) sampler {
	if mode == SamplingPerTrader {
		return &perTraderSampler{hist: pop.Histogram(), p: p}
	}
	return &pooledSampler{n: pop.Sum(), p: p}
}

type pooledSampler struct {
	n int64
	p float64
}

func (s *pooledSampler) successes(rng *rand.Rand) int64 {
	return binomial(rng, s.n, s.p)
}

// perTraderSampler walks traders grouped by account count; within a group every
// trader still gets its own draw.
type perTraderSampler struct {
	hist []int64
	p    float64
}

func (s *perTraderSampler) successes(rng *rand.Rand) int64 {
	var total int64
	for a := 1; a < len(s.hist); a++ {
		for t := int64(0); t < s.hist[a]; t++ {
			total += binomial(rng, int64(a), s.p)
		}
	}
	return total
}

// binomial draws Binomial(n, p) with exact handling of the degenerate cases.
func binomial(rng *rand.Rand, n int64, p float64) int64 {
	switch {
	case n <= 0 || p <= 0:
		return 0
	case p >= 1:
		return n
	case n < directThreshold:
		var k int64
		for i := int64(0); i < n; i++ {
			if rng.Float64() < p {
				k++
			}
		}
		return k
	}

	b := distuv.Binomial{N: float64(n), P: p, Src: rng}
	k := int64(math.Round(b.Rand()))
	if k < 0 {
		return 0
	}
	if k > n {
		return n
	}
	return k
}
