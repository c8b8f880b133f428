package reporting

import (
	"fmt"
	"strings"

	"capex-lab/internal/domain"
)

// RenderSummaryCSV renders the summary parameters as CSV string.
func RenderSummaryCSV(rows []domain.SummaryParameter) string {
	var sb strings.Builder
	sb.WriteString("parameter,value\n")
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%s,%s\n", csvField(r.Parameter), csvField(r.Value)))
	}
	return sb.String()
}

// RenderScenarioCSV renders raw replicate rows as CSV string.
func RenderScenarioCSV(rows []domain.ScenarioPayout) string {
	var sb strings.Builder
	sb.WriteString("failure_rate_scenario,replicate,simulated_payout,associated_profit\n")
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%s,%d,%.2f,%.2f\n",
			FormatRate(r.FailureRate),
			r.Replicate,
			r.SimulatedPayout,
			r.AssociatedProfit,
		))
	}
	return sb.String()
}

// RenderBreakevenCSV renders the breakeven curve as CSV string.
func RenderBreakevenCSV(rows []domain.ProfitPoint) string {
	var sb strings.Builder
	sb.WriteString("failure_rate,estimated_profit\n")
	for _, p := range rows {
		sb.WriteString(fmt.Sprintf("%.2f,%.2f\n", p.FailureRate, p.EstimatedProfit))
	}
	return sb.String()
}

// RenderRiskCSV renders a risk curve as CSV string.
func RenderRiskCSV(rows []domain.RiskPoint) string {
	var sb strings.Builder
	sb.WriteString("axis,axis_value,failure_rate,standard_deviation\n")
	for _, p := range rows {
		sb.WriteString(fmt.Sprintf("%s,%d,%s,%.6f\n",
			p.Axis,
			p.AxisValue,
			FormatRate(p.FailureRate),
			p.StdDev,
		))
	}
	return sb.String()
}

// csvField quotes values containing separators.
func csvField(s string) string {
	if !strings.ContainsAny(s, ",\"\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
