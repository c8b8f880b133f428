package population

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"capex-lab/internal/domain"
)

func newRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func TestGenerate_Randomized_Bounds(t *testing.T) {
	pop, err := Generate(newRNG(1), domain.ModeRandomized, 10000, domain.PopulationParams{Low: 5, High: 15})
	require.NoError(t, err)
	require.Equal(t, 10000, pop.Len())

	seen := make(map[int]bool)
	var sum int64
	for i := 0; i < pop.Len(); i++ {
		a := pop.At(i)
		assert.GreaterOrEqual(t, a, 5)
		assert.LessOrEqual(t, a, 15)
		seen[a] = true
		sum += int64(a)
	}
	assert.Equal(t, sum, pop.Sum())
	// With 10k draws every value in the range shows up.
	assert.Len(t, seen, 11)
	assert.InDelta(t, 10.0, pop.Mean(), 0.2)
}

func TestGenerate_Randomized_SingleValueRange(t *testing.T) {
	pop, err := Generate(newRNG(2), domain.ModeRandomized, 50, domain.PopulationParams{Low: 7, High: 7})
	require.NoError(t, err)
	assert.Equal(t, int64(350), pop.Sum())
}

func TestGenerate_AverageSimulated_Mean(t *testing.T) {
	for _, avg := range []int{1, 5, 20} {
		pop, err := Generate(newRNG(uint64(avg)), domain.ModeAverageSimulated, 20000, domain.PopulationParams{Average: avg})
		require.NoError(t, err)
		require.Equal(t, 20000, pop.Len())

		for i := 0; i < pop.Len(); i++ {
			require.GreaterOrEqual(t, pop.At(i), 0)
		}
		// Poisson standard error of the mean is sqrt(avg/n).
		assert.InDelta(t, float64(avg), pop.Mean(), 0.1, "average %d", avg)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	a, err := Generate(newRNG(99), domain.ModeAverageSimulated, 500, domain.PopulationParams{Average: 12})
	require.NoError(t, err)
	b, err := Generate(newRNG(99), domain.ModeAverageSimulated, 500, domain.PopulationParams{Average: 12})
	require.NoError(t, err)
	assert.Equal(t, a.Accounts(), b.Accounts())
}

func TestGenerate_InvalidParameters(t *testing.T) {
	tests := []struct {
		name    string
		mode    domain.DistributionMode
		traders int
		params  domain.PopulationParams
	}{
		{"zero traders", domain.ModeRandomized, 0, domain.PopulationParams{Low: 1, High: 2}},
		{"negative traders", domain.ModeAverageSimulated, -5, domain.PopulationParams{Average: 3}},
		{"too many traders", domain.ModeAverageSimulated, domain.MaxTraderCount + 1, domain.PopulationParams{Average: 3}},
		{"zero average", domain.ModeAverageSimulated, 10, domain.PopulationParams{Average: 0}},
		{"average above 20", domain.ModeAverageSimulated, 10, domain.PopulationParams{Average: 21}},
		{"zero low", domain.ModeRandomized, 10, domain.PopulationParams{Low: 0, High: 5}},
		{"low above high", domain.ModeRandomized, 10, domain.PopulationParams{Low: 9, High: 5}},
		{"high above 20", domain.ModeRandomized, 10, domain.PopulationParams{Low: 1, High: 21}},
		{"unknown mode", domain.DistributionMode("BOGUS"), 10, domain.PopulationParams{Average: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Generate(newRNG(1), tt.mode, tt.traders, tt.params)
			if !errors.Is(err, domain.ErrInvalidParameter) {
				t.Errorf("expected ErrInvalidParameter, got %v", err)
			}
		})
	}
}

func TestGenerate_NilRNG(t *testing.T) {
	_, err := Generate(nil, domain.ModeRandomized, 10, domain.PopulationParams{Low: 1, High: 2})
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestPopulation_Immutable(t *testing.T) {
	pop, err := Generate(newRNG(3), domain.ModeRandomized, 10, domain.PopulationParams{Low: 2, High: 4})
	require.NoError(t, err)

	accounts := pop.Accounts()
	before := pop.Sum()
	accounts[0] = 1000
	assert.Equal(t, before, pop.Sum())
	assert.NotEqual(t, 1000, pop.At(0))
}
