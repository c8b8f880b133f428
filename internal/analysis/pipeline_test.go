package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"capex-lab/internal/domain"
	"capex-lab/internal/finance"
	"capex-lab/internal/simulation"
)

var fixedTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newPipeline() *Pipeline {
	return NewPipeline(simulation.NewEngine(simulation.EngineOptions{}), nil).
		WithClock(func() time.Time { return fixedTime })
}

func seed(v uint64) *uint64 { return &v }

func smallRequest() Request {
	return Request{
		Mode:   domain.ModeRandomized,
		Params: domain.PopulationParams{Low: 5, High: 15},
		Financial: domain.FinancialParameters{
			TraderCount:       100,
			Simulations:       200,
			RevenuePerAccount: 200,
			PayoutPerSuccess:  1000,
			AdditionalRevenue: 200000,
		},
		Seed: seed(42),
	}
}

func TestPipeline_Run(t *testing.T) {
	res, err := newPipeline().Run(context.Background(), smallRequest())
	require.NoError(t, err)

	assert.Equal(t, fixedTime, res.GeneratedAt)
	assert.True(t, res.Seeded)
	assert.Equal(t, uint64(42), res.Seed)
	assert.Equal(t, simulation.SamplingPooled, res.Sampling)

	// Revenue is derived from the same population the scenarios ran on.
	assert.Equal(t, float64(res.TotalAccounts)*200+200000, res.TotalRevenue)
	assert.InDelta(t, 10.0, res.MeanAccounts, 1.0)

	require.Len(t, res.Scenarios, 5)
	for i, rate := range finance.DefaultScenarioRates() {
		assert.Equal(t, rate, res.Scenarios[i].FailureRate)
		assert.Equal(t, rate, res.Histograms[i].FailureRate)
		assert.LessOrEqual(t, len(res.Histograms[i].Bins), finance.DefaultHistogramBins)
	}
	assert.Equal(t, 5, res.ScenarioResults.Len())

	require.Len(t, res.ProfitCurve, 99)
	assert.Equal(t, 0.01, res.ProfitCurve[0].FailureRate)

	assert.Equal(t, domain.AxisRangeWidth, res.RiskAxis)
	require.Len(t, res.Risk, 19*5)
	assert.Equal(t, 2, res.Risk[0].AxisValue)
}

func TestPipeline_BreakevenFound(t *testing.T) {
	// Revenue ~ 1000*200 + 200000 = 400000; payout at rate r ~ 1000*(1-r)*1000.
	// Profit turns positive just above r = 0.6.
	res, err := newPipeline().Run(context.Background(), smallRequest())
	require.NoError(t, err)

	require.True(t, res.Breakeven.Found)
	assert.Greater(t, res.Breakeven.EstimatedProfit, 0.0)
	assert.InDelta(t, 0.61, res.Breakeven.FailureRate, 0.05)
	for _, p := range res.ProfitCurve {
		if p.FailureRate < res.Breakeven.FailureRate {
			assert.LessOrEqual(t, p.EstimatedProfit, 0.0)
		}
	}
}

func TestPipeline_BreakevenNotFound(t *testing.T) {
	req := smallRequest()
	req.Financial.RevenuePerAccount = 0
	req.Financial.AdditionalRevenue = 0
	req.SkipRisk = true

	res, err := newPipeline().Run(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.Breakeven.Found)
	assert.Empty(t, res.Risk)
}

func TestPipeline_SeededIsReproducible(t *testing.T) {
	req := smallRequest()
	req.SkipRisk = true

	a, err := newPipeline().Run(context.Background(), req)
	require.NoError(t, err)
	b, err := newPipeline().Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, a.RunID, b.RunID)
	assert.Equal(t, a.Scenarios, b.Scenarios)
	assert.Equal(t, a.ProfitCurve, b.ProfitCurve)

	req.Seed = seed(43)
	c, err := newPipeline().Run(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, a.RunID, c.RunID)
}

func TestPipeline_AverageModeUsesAverageAxis(t *testing.T) {
	req := smallRequest()
	req.Mode = domain.ModeAverageSimulated
	req.Params = domain.PopulationParams{Average: 3}
	req.Financial.Simulations = 50
	req.ScenarioRates = []float64{0.9}

	res, err := newPipeline().Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, domain.AxisAverageAccounts, res.RiskAxis)
	require.Len(t, res.Risk, 20)
	assert.Equal(t, 1, res.Risk[0].AxisValue)
}

func TestPipeline_InvalidRequest(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *Request)
	}{
		{"unknown mode", func(r *Request) { r.Mode = "GAUSSIAN" }},
		{"no traders", func(r *Request) { r.Financial.TraderCount = 0 }},
		{"inverted range", func(r *Request) { r.Params = domain.PopulationParams{Low: 9, High: 3} }},
		{"zero simulations", func(r *Request) { r.Financial.Simulations = 0 }},
		{"negative payout", func(r *Request) { r.Financial.PayoutPerSuccess = -1 }},
		{"negative revenue", func(r *Request) { r.Financial.RevenuePerAccount = -5 }},
		{"scenario rate of one", func(r *Request) { r.ScenarioRates = []float64{1} }},
		{"duplicate breakeven rate", func(r *Request) { r.BreakevenRates = []float64{0.1, 0.1} }},
		{"negative histogram bins", func(r *Request) { r.HistogramBins = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := smallRequest()
			tt.mutate(&req)
			res, err := newPipeline().Run(context.Background(), req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidParameter))
			assert.Nil(t, res)
			assert.ErrorIs(t, req.Validate(), domain.ErrInvalidParameter)
		})
	}
}

func TestRequest_ValidateAppliesDefaults(t *testing.T) {
	req := smallRequest()
	require.Empty(t, req.ScenarioRates)
	require.Empty(t, req.BreakevenRates)

	require.NoError(t, req.Validate())
	req.SkipRisk = true
	_, err := newPipeline().Run(context.Background(), req)
	require.NoError(t, err)
}

func TestPipeline_RunIDCoversExportedTables(t *testing.T) {
	req := smallRequest()
	req.Financial.Simulations = 20
	req.SkipRisk = true

	base, err := newPipeline().Run(context.Background(), req)
	require.NoError(t, err)

	rates := req
	rates.BreakevenRates = []float64{0.3, 0.6}
	other, err := newPipeline().Run(context.Background(), rates)
	require.NoError(t, err)
	assert.NotEqual(t, base.RunID, other.RunID)

	withRisk := req
	withRisk.SkipRisk = false
	withRisk.Financial.TraderCount = 10
	withRiskSkipped := withRisk
	withRiskSkipped.SkipRisk = true

	a, err := newPipeline().Run(context.Background(), withRisk)
	require.NoError(t, err)
	b, err := newPipeline().Run(context.Background(), withRiskSkipped)
	require.NoError(t, err)
	assert.NotEmpty(t, a.Risk)
	assert.Empty(t, b.Risk)
	assert.NotEqual(t, a.RunID, b.RunID)
}
