package reporting

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"capex-lab/internal/analysis"
	"capex-lab/internal/domain"
	"capex-lab/internal/finance"
	"capex-lab/internal/simulation"
)

var fixedTime = time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedTime }

func sampleResult() *analysis.Result {
	return &analysis.Result{
		RunID:       "run-1",
		GeneratedAt: fixedTime,
		Mode:        domain.ModeRandomized,
		Params:      domain.PopulationParams{Low: 5, High: 15},
		Financial: domain.FinancialParameters{
			TraderCount:       2500,
			Simulations:       1000,
			RevenuePerAccount: 200,
			PayoutPerSuccess:  1000,
			AdditionalRevenue: 200000,
		},
		Seed:          7,
		Seeded:        true,
		TotalAccounts: 25010,
		TotalRevenue:  5202000,
		Scenarios: []finance.ScenarioSummary{
			{FailureRate: 0.9, MeanPayout: 2501000, StdPayout: 47000, EstimatedProfit: 2701000},
		},
		ProfitCurve: []domain.ProfitPoint{
			{FailureRate: 0.01, EstimatedProfit: -19557000},
			{FailureRate: 0.8, EstimatedProfit: 200000},
		},
		Breakeven: domain.Breakeven{Found: true, FailureRate: 0.8, EstimatedProfit: 200000},
		RiskAxis:  domain.AxisRangeWidth,
		Risk: []domain.RiskPoint{
			{Axis: domain.AxisRangeWidth, AxisValue: 2, FailureRate: 0.9, StdDev: 1200.5},
			{Axis: domain.AxisRangeWidth, AxisValue: 3, FailureRate: 0.9, StdDev: 1500.25},
		},
	}
}

func TestSummaryTable(t *testing.T) {
	rows := SummaryTable(sampleResult())

	values := make(map[string]string, len(rows))
	for _, r := range rows {
		values[r.Parameter] = r.Value
	}
	assert.Equal(t, "Distribution Mode", rows[0].Parameter)
	assert.Equal(t, "Randomized", values["Distribution Mode"])
	assert.Equal(t, "5 - 15", values["Account Range"])
	assert.Equal(t, "2,500", values["Number of Traders"])
	assert.Equal(t, "1,000", values["Simulations per Scenario"])
	assert.Equal(t, "$200.00", values["Revenue per Account"])
	assert.Equal(t, "$1,000.00", values["Payout per Success"])
	assert.Equal(t, "$200,000.00", values["Additional Revenue/Fixed Costs"])
	assert.Equal(t, "25,010", values["Total Accounts"])
	assert.Equal(t, "$5,202,000.00", values["Total Calculated Revenue"])
	assert.Equal(t, "80%", values["Breakeven Failure Rate"])
	assert.Equal(t, "7", values["Seed"])
}

func TestSummaryTable_NoBreakeven(t *testing.T) {
	res := sampleResult()
	res.Mode = domain.ModeAverageSimulated
	res.Params = domain.PopulationParams{Average: 20}
	res.Breakeven = domain.Breakeven{}
	res.Seeded = false

	rows := SummaryTable(res)
	values := make(map[string]string, len(rows))
	for _, r := range rows {
		values[r.Parameter] = r.Value
	}
	assert.Equal(t, "Simulate Average", values["Distribution Mode"])
	assert.Equal(t, "20", values["Average Accounts per Trader"])
	assert.Contains(t, values["Breakeven Failure Rate"], "Not found")
	_, hasSeed := values["Seed"]
	assert.False(t, hasSeed)
}

func TestGenerate_WithClock(t *testing.T) {
	r := NewGenerator().WithClock(fixedClock).Generate(sampleResult())

	assert.Equal(t, fixedTime, r.GeneratedAt)
	assert.Equal(t, "run-1", r.RunID)
	assert.Len(t, r.Profit, 2)
	assert.Len(t, r.Risk, 2)
	assert.Empty(t, r.ScenarioRows)
}

func TestRenderMarkdown_Format(t *testing.T) {
	r := NewGenerator().WithClock(fixedClock).Generate(sampleResult())
	md := RenderMarkdown(r)

	requiredSections := []string{
		"# Capex Simulation Report",
		"## Parameters",
		"## Scenario Analysis",
		"## Breakeven Analysis",
		"## Risk Analysis",
	}
	for _, section := range requiredSections {
		assert.Contains(t, md, section)
	}
	assert.Contains(t, md, "Generated: 2025-01-15T12:00:00Z")
	assert.Contains(t, md, "Breakeven failure rate: **80%**")
	assert.Contains(t, md, "| Max Accounts in Range | Failure Rate | Standard Deviation |")
	assert.Contains(t, md, "| 90% | $2,501,000.00 | $47,000.00 | $2,701,000.00 |")

	// Deterministic for identical input.
	assert.Equal(t, md, RenderMarkdown(NewGenerator().WithClock(fixedClock).Generate(sampleResult())))
}

func TestRenderMarkdown_NoBreakevenNoRisk(t *testing.T) {
	res := sampleResult()
	res.Breakeven = domain.Breakeven{}
	res.Risk = nil

	md := RenderMarkdown(NewGenerator().Generate(res))
	assert.Contains(t, md, "No profitable failure rate in range.")
	assert.Contains(t, md, "Risk sweep not run.")
}

func TestRenderCSV(t *testing.T) {
	res := sampleResult()
	r := NewGenerator().Generate(res)

	summary := RenderSummaryCSV(r.Summary)
	assert.True(t, strings.HasPrefix(summary, "parameter,value\n"))
	assert.Contains(t, summary, "Payout per Success,\"$1,000.00\"\n")

	breakeven := RenderBreakevenCSV(r.Profit)
	assert.Equal(t, "failure_rate,estimated_profit\n0.01,-19557000.00\n0.80,200000.00\n", breakeven)

	risk := RenderRiskCSV(r.Risk)
	lines := strings.Split(strings.TrimSpace(risk), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "RANGE_WIDTH,2,90%,1200.500000", lines[1])

	scen := RenderScenarioCSV([]domain.ScenarioPayout{{FailureRate: 0.85, Replicate: 0, SimulatedPayout: 3000, AssociatedProfit: 7000}})
	assert.Equal(t, "failure_rate_scenario,replicate,simulated_payout,associated_profit\n85%,0,3000.00,7000.00\n", scen)
}

func TestXLSXFileName(t *testing.T) {
	assert.Equal(t, "full_capex_report_simulate_average.xlsx", XLSXFileName(domain.ModeAverageSimulated))
	assert.Equal(t, "full_capex_report_randomized.xlsx", XLSXFileName(domain.ModeRandomized))
}

func TestWriteXLSX_FromPipeline(t *testing.T) {
	seed := uint64(11)
	pipeline := analysis.NewPipeline(simulation.NewEngine(simulation.EngineOptions{}), nil)
	res, err := pipeline.Run(context.Background(), analysis.Request{
		Mode:   domain.ModeAverageSimulated,
		Params: domain.PopulationParams{Average: 4},
		Financial: domain.FinancialParameters{
			TraderCount:       20,
			Simulations:       10,
			RevenuePerAccount: 200,
			PayoutPerSuccess:  1000,
			AdditionalRevenue: 1000,
		},
		ScenarioRates: []float64{0.9, 0.5},
		Seed:          &seed,
	})
	require.NoError(t, err)

	report := NewGenerator().WithClock(fixedClock).Generate(res)
	exp := report.Export(res)
	require.Len(t, exp.Scenarios, 20)
	require.NotNil(t, exp.Run.Seed)
	assert.Equal(t, uint64(11), *exp.Run.Seed)
	assert.Equal(t, res.Breakeven.Found, exp.Run.BreakevenFound)

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, exp))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetScenarios, SheetBreakeven, SheetRisk}, f.GetSheetList())

	rows, err := f.GetRows(SheetScenarios)
	require.NoError(t, err)
	require.Len(t, rows, 21)
	assert.Equal(t, []string{"failure_rate_scenario", "replicate", "simulated_payout", "associated_profit"}, rows[0])
	assert.Equal(t, "90%", rows[1][0])

	rows, err = f.GetRows(SheetBreakeven)
	require.NoError(t, err)
	assert.Len(t, rows, 100)

	rows, err = f.GetRows(SheetRisk)
	require.NoError(t, err)
	require.Len(t, rows, 1+20*2)
	assert.Equal(t, "Average Accounts per Trader", rows[0][0])

	rows, err = f.GetRows(SheetSummary)
	require.NoError(t, err)
	assert.Equal(t, []string{"Parameter", "Value"}, rows[0])
	assert.Equal(t, []string{"Distribution Mode", "Simulate Average"}, rows[1])
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "$0.00", FormatMoney(0))
	assert.Equal(t, "$999.50", FormatMoney(999.5))
	assert.Equal(t, "$1,234,567.89", FormatMoney(1234567.891))
	assert.Equal(t, "-$1,000.00", FormatMoney(-1000))
	assert.Equal(t, "$0.00", FormatMoney(-0.004))
	assert.Equal(t, "$12,345,678,901.00", FormatMoney(12345678901))
	assert.Equal(t, "1,000,000", FormatCount(1_000_000))
	assert.Equal(t, "12", FormatCount(12))
	assert.Equal(t, "-1,234", FormatCount(-1234))
	assert.Equal(t, "90%", FormatRate(0.90))
	assert.Equal(t, "29%", FormatRate(0.29))
	assert.Equal(t, "7.5%", FormatRate(0.075))
}
