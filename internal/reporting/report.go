package reporting

import (
	"time"

	"capex-lab/internal/domain"
	"capex-lab/internal/finance"
)

// Sheet names of the exported workbook, also used as CSV file stems.
const (
	SheetSummary   = "Summary_Parameters"
	SheetScenarios = "Scenario_Analysis_Raw"
	SheetBreakeven = "Breakeven_Analysis"
	SheetRisk      = "Risk_Analysis"
)

// Report is the presentation view of one analysis run.
type Report struct {
	// Metadata
	RunID       string
	GeneratedAt time.Time
	Mode        domain.DistributionMode

	// Overview
	TotalAccounts int64
	TotalRevenue  float64
	Breakeven     domain.Breakeven

	// Tables
	Summary   []domain.SummaryParameter
	Scenarios []finance.ScenarioSummary // request order
	Profit    []domain.ProfitPoint      // ascending failure rate
	RiskAxis  domain.Axis
	Risk      []domain.RiskPoint // ascending axis value, then rate order

	// Raw replicate rows, one per (rate, replicate)
	ScenarioRows []domain.ScenarioPayout
}
