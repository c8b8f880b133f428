package domain

import "time"

// RunRecord describes one finished analysis run.
type RunRecord struct {
	RunID             string
	GeneratedAt       time.Time
	Mode              DistributionMode
	TraderCount       int
	Simulations       int
	RevenuePerAccount float64
	PayoutPerSuccess  float64
	AdditionalRevenue float64
	TotalAccounts     int64
	TotalRevenue      float64
	Seed              *uint64
	BreakevenFound    bool
	BreakevenRate     *float64
}

// Export bundles a run with its four result tables.
type Export struct {
	Run       RunRecord
	Summary   []SummaryParameter
	Scenarios []ScenarioPayout
	Profit    []ProfitPoint
	Risk      []RiskPoint
}
