package domain

// SimulationBatch holds one payout per replicate for a single failure rate.
type SimulationBatch []float64

// Clone returns an independent copy of the batch.
func (b SimulationBatch) Clone() SimulationBatch {
	if b == nil {
		return nil
	}
	out := make(SimulationBatch, len(b))
	copy(out, b)
	return out
}

// Axis identifies a sensitivity sweep dimension.
type Axis string

const (
	// AxisAverageAccounts varies the Poisson mean from 1 to 20.
	AxisAverageAccounts Axis = "AVERAGE_ACCOUNTS"
	// AxisRangeWidth varies the upper bound of a [1, value] uniform range from 2 to 20.
	AxisRangeWidth Axis = "RANGE_WIDTH"
)

// String returns the string representation of Axis.
func (a Axis) String() string {
	return string(a)
}

// IsValid checks if the axis is a valid value.
func (a Axis) IsValid() bool {
	return a == AxisAverageAccounts || a == AxisRangeWidth
}

// Label returns the column header used for the axis value.
func (a Axis) Label() string {
	switch a {
	case AxisAverageAccounts:
		return "Average Accounts per Trader"
	case AxisRangeWidth:
		return "Max Accounts in Range"
	default:
		return string(a)
	}
}

// AxisForMode returns the sweep axis matching a distribution mode.
func AxisForMode(m DistributionMode) Axis {
	if m == ModeRandomized {
		return AxisRangeWidth
	}
	return AxisAverageAccounts
}

// RiskPoint is one point of a risk curve.
type RiskPoint struct {
	Axis        Axis    `json:"axis"`
	AxisValue   int     `json:"axis_value"`
	FailureRate float64 `json:"failure_rate"`
	StdDev      float64 `json:"std_dev"`
}

// ProfitPoint is one point of the breakeven curve.
type ProfitPoint struct {
	FailureRate     float64 `json:"failure_rate"`
	EstimatedProfit float64 `json:"estimated_profit"`
}

// Breakeven is the outcome of the breakeven search.
// Found is false when no failure rate in the searched range is profitable.
type Breakeven struct {
	Found           bool    `json:"found"`
	FailureRate     float64 `json:"failure_rate,omitempty"`
	EstimatedProfit float64 `json:"estimated_profit,omitempty"`
}

// ScenarioPayout is one raw replicate of a scenario run.
type ScenarioPayout struct {
	FailureRate      float64 `json:"failure_rate"`
	Replicate        int     `json:"replicate"`
	SimulatedPayout  float64 `json:"simulated_payout"`
	AssociatedProfit float64 `json:"associated_profit"`
}

// SummaryParameter is one row of the flat configuration summary.
type SummaryParameter struct {
	Parameter string `json:"parameter"`
	Value     string `json:"value"`
}
