package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"capex-lab/internal/domain"
	"capex-lab/internal/storage"
)

func testExport(runID string, at time.Time) *domain.Export {
	return &domain.Export{
		Run: domain.RunRecord{
			RunID:             runID,
			GeneratedAt:       at,
			Mode:              domain.ModeAverageSimulated,
			TraderCount:       250,
			Simulations:       2,
			RevenuePerAccount: 200,
			PayoutPerSuccess:  1000,
			AdditionalRevenue: 200000,
			TotalAccounts:     5000,
			TotalRevenue:      1200000,
			Seed:              ptr(uint64(1) << 63),
			BreakevenFound:    true,
			BreakevenRate:     ptr(0.77),
		},
		Summary: []domain.SummaryParameter{
			{Parameter: "Distribution Mode", Value: "Simulate Average"},
			{Parameter: "Payout per Success", Value: "$1,000.00"},
		},
		Scenarios: []domain.ScenarioPayout{
			{FailureRate: 0.9, Replicate: 0, SimulatedPayout: 500000, AssociatedProfit: 700000},
			{FailureRate: 0.9, Replicate: 1, SimulatedPayout: 498000, AssociatedProfit: 702000},
			{FailureRate: 0.5, Replicate: 0, SimulatedPayout: 2500000, AssociatedProfit: -1300000},
		},
		Profit: []domain.ProfitPoint{
			{FailureRate: 0.76, EstimatedProfit: -1000},
			{FailureRate: 0.77, EstimatedProfit: 49000},
		},
		Risk: []domain.RiskPoint{
			{Axis: domain.AxisAverageAccounts, AxisValue: 1, FailureRate: 0.9, StdDev: 4743.4},
			{Axis: domain.AxisAverageAccounts, AxisValue: 2, FailureRate: 0.9, StdDev: 6708.2},
		},
	}
}

func TestExportStore_SaveAndGetExport(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewExportStore(pool)
	ctx := context.Background()
	exp := testExport("run-pg-1", time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC))

	require.NoError(t, store.Save(ctx, exp))

	got, err := store.GetExport(ctx, "run-pg-1")
	require.NoError(t, err)

	assert.Equal(t, exp.Run.RunID, got.Run.RunID)
	assert.True(t, exp.Run.GeneratedAt.Equal(got.Run.GeneratedAt))
	assert.Equal(t, exp.Run.Mode, got.Run.Mode)
	require.NotNil(t, got.Run.Seed)
	assert.Equal(t, *exp.Run.Seed, *got.Run.Seed)
	require.NotNil(t, got.Run.BreakevenRate)
	assert.Equal(t, 0.77, *got.Run.BreakevenRate)

	assert.Equal(t, exp.Summary, got.Summary)
	assert.Equal(t, exp.Scenarios, got.Scenarios)
	assert.Equal(t, exp.Profit, got.Profit)
	assert.Equal(t, exp.Risk, got.Risk)
}

func TestExportStore_Duplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewExportStore(pool)
	ctx := context.Background()
	exp := testExport("run-pg-dup", time.Now().UTC())

	require.NoError(t, store.Save(ctx, exp))
	err := store.Save(ctx, exp)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestExportStore_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewExportStore(pool)
	ctx := context.Background()

	_, err := store.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = store.GetExport(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestExportStore_ListRunsAndUnseeded(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewExportStore(pool)
	ctx := context.Background()
	base := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)

	late := testExport("run-late", base.Add(time.Hour))
	early := testExport("run-early", base)
	early.Run.Seed = nil
	early.Run.BreakevenFound = false
	early.Run.BreakevenRate = nil

	require.NoError(t, store.Save(ctx, late))
	require.NoError(t, store.Save(ctx, early))

	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-early", runs[0].RunID)
	assert.Nil(t, runs[0].Seed)
	assert.Nil(t, runs[0].BreakevenRate)
	assert.Equal(t, "run-late", runs[1].RunID)
}
