package finance

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"capex-lab/internal/domain"
)

// DefaultHistogramBins matches the payout distribution chart.
const DefaultHistogramBins = 50

// Bin is one equal-width histogram bucket, [Low, High).
type Bin struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int     `json:"count"`
}

// Histogram buckets a batch into at most bins equal-width bins.
// A batch with a single distinct value yields one bin.
func Histogram(b domain.SimulationBatch, bins int) []Bin {
	if len(b) == 0 {
		return nil
	}
	if bins <= 0 {
		bins = DefaultHistogramBins
	}

	sorted := b.Clone()
	sort.Float64s(sorted)
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		bins = 1
	}

	dividers := make([]float64, bins+1)
	floats.Span(dividers, lo, hi)
	// stat.Histogram buckets are half-open, so the maximum needs room on the right.
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	counts := stat.Histogram(nil, dividers, sorted, nil)
	out := make([]Bin, bins)
	for i := range out {
		out[i] = Bin{Low: dividers[i], High: dividers[i+1], Count: int(counts[i])}
	}
	return out
}
