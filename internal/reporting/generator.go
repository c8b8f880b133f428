package reporting

import (
	"fmt"
	"strconv"
	"time"

	"capex-lab/internal/analysis"
	"capex-lab/internal/domain"
	"capex-lab/internal/finance"
)

// Generator produces reports from analysis results.
type Generator struct {
	now func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator() *Generator {
	return &Generator{
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds the report of one analysis run.
func (g *Generator) Generate(res *analysis.Result) *Report {
	r := &Report{
		RunID:         res.RunID,
		GeneratedAt:   g.now(),
		Mode:          res.Mode,
		TotalAccounts: res.TotalAccounts,
		TotalRevenue:  res.TotalRevenue,
		Breakeven:     res.Breakeven,
		Summary:       SummaryTable(res),
		Scenarios:     res.Scenarios,
		Profit:        res.ProfitCurve,
		RiskAxis:      res.RiskAxis,
		Risk:          res.Risk,
	}
	if res.ScenarioResults != nil {
		r.ScenarioRows = finance.ScenarioRows(res.TotalRevenue, res.ScenarioResults)
	}
	return r
}

// Export converts a report into the unit handed to export stores.
func (r *Report) Export(res *analysis.Result) domain.Export {
	run := domain.RunRecord{
		RunID:             r.RunID,
		GeneratedAt:       res.GeneratedAt,
		Mode:              res.Mode,
		TraderCount:       res.Financial.TraderCount,
		Simulations:       res.Financial.Simulations,
		RevenuePerAccount: res.Financial.RevenuePerAccount,
		PayoutPerSuccess:  res.Financial.PayoutPerSuccess,
		AdditionalRevenue: res.Financial.AdditionalRevenue,
		TotalAccounts:     res.TotalAccounts,
		TotalRevenue:      res.TotalRevenue,
		BreakevenFound:    res.Breakeven.Found,
	}
	if res.Seeded {
		seed := res.Seed
		run.Seed = &seed
	}
	if res.Breakeven.Found {
		rate := res.Breakeven.FailureRate
		run.BreakevenRate = &rate
	}
	return domain.Export{
		Run:       run,
		Summary:   r.Summary,
		Scenarios: r.ScenarioRows,
		Profit:    r.Profit,
		Risk:      r.Risk,
	}
}

// SummaryTable returns the flat configuration summary of a run.
func SummaryTable(res *analysis.Result) []domain.SummaryParameter {
	f := res.Financial
	rows := []domain.SummaryParameter{
		{Parameter: "Distribution Mode", Value: res.Mode.Label()},
	}
	switch res.Mode {
	case domain.ModeAverageSimulated:
		rows = append(rows, domain.SummaryParameter{
			Parameter: "Average Accounts per Trader", Value: strconv.Itoa(res.Params.Average),
		})
	case domain.ModeRandomized:
		rows = append(rows, domain.SummaryParameter{
			Parameter: "Account Range", Value: fmt.Sprintf("%d - %d", res.Params.Low, res.Params.High),
		})
	}
	rows = append(rows,
		domain.SummaryParameter{Parameter: "Number of Traders", Value: FormatCount(int64(f.TraderCount))},
		domain.SummaryParameter{Parameter: "Simulations per Scenario", Value: FormatCount(int64(f.Simulations))},
		domain.SummaryParameter{Parameter: "Revenue per Account", Value: FormatMoney(f.RevenuePerAccount)},
		domain.SummaryParameter{Parameter: "Payout per Success", Value: FormatMoney(f.PayoutPerSuccess)},
		domain.SummaryParameter{Parameter: "Additional Revenue/Fixed Costs", Value: FormatMoney(f.AdditionalRevenue)},
		domain.SummaryParameter{Parameter: "Total Accounts", Value: FormatCount(res.TotalAccounts)},
		domain.SummaryParameter{Parameter: "Total Calculated Revenue", Value: FormatMoney(res.TotalRevenue)},
	)

	breakeven := "Not found (no profitable rate in range)"
	if res.Breakeven.Found {
		breakeven = FormatRate(res.Breakeven.FailureRate)
	}
	rows = append(rows, domain.SummaryParameter{Parameter: "Breakeven Failure Rate", Value: breakeven})

	if res.Seeded {
		rows = append(rows, domain.SummaryParameter{Parameter: "Seed", Value: strconv.FormatUint(res.Seed, 10)})
	}
	return rows
}
