package domain

// FinancialParameters is the immutable financial configuration of a run.
type FinancialParameters struct {
	TraderCount       int     `json:"trader_count" yaml:"trader_count"`
	Simulations       int     `json:"simulations" yaml:"simulations"`
	RevenuePerAccount float64 `json:"revenue_per_account" yaml:"revenue_per_account"`
	PayoutPerSuccess  float64 `json:"payout_per_success" yaml:"payout_per_success"`
	AdditionalRevenue float64 `json:"additional_revenue" yaml:"additional_revenue"`
}

// TotalRevenue returns (totalAccounts * RevenuePerAccount) + AdditionalRevenue.
func (f FinancialParameters) TotalRevenue(totalAccounts int64) float64 {
	return float64(totalAccounts)*f.RevenuePerAccount + f.AdditionalRevenue
}

// DefaultFinancialParameters seeds forms and CLI flags.
var DefaultFinancialParameters = FinancialParameters{
	TraderCount:       250,
	Simulations:       1000,
	RevenuePerAccount: 200,
	PayoutPerSuccess:  1000,
	AdditionalRevenue: 200000,
}
