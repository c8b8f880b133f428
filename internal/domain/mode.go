package domain

// DistributionMode selects how account counts are drawn per trader.
type DistributionMode string

const (
	// ModeAverageSimulated draws each trader's account count from Poisson(Average).
	ModeAverageSimulated DistributionMode = "AVERAGE_SIMULATED"
	// ModeRandomized draws each trader's account count uniformly from [Low, High].
	ModeRandomized DistributionMode = "RANDOMIZED"
)

// String returns the string representation of DistributionMode.
func (m DistributionMode) String() string {
	return string(m)
}

// IsValid checks if the mode is a valid value.
func (m DistributionMode) IsValid() bool {
	return m == ModeAverageSimulated || m == ModeRandomized
}

// Label returns the human readable name used in summary tables and file names.
func (m DistributionMode) Label() string {
	switch m {
	case ModeAverageSimulated:
		return "Simulate Average"
	case ModeRandomized:
		return "Randomized"
	default:
		return string(m)
	}
}

// Population parameter bounds.
const (
	MinAccountsParam = 1
	MaxAccountsParam = 20
	MaxTraderCount   = 1_000_000
	MaxSimulations   = 5_000
)

// PopulationParams holds mode-specific generator inputs.
// Average is used by ModeAverageSimulated, Low/High by ModeRandomized.
type PopulationParams struct {
	Average int `json:"average,omitempty" yaml:"average"`
	Low     int `json:"low,omitempty" yaml:"low"`
	High    int `json:"high,omitempty" yaml:"high"`
}
