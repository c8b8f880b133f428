package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Capex Simulation Report\n\n")
	sb.WriteString(fmt.Sprintf("Run: %s\n\n", r.RunID))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Total accounts: %s | Total revenue: %s\n\n",
		FormatCount(r.TotalAccounts), FormatMoney(r.TotalRevenue)))

	// Parameters
	sb.WriteString("## Parameters\n\n")
	sb.WriteString("| Parameter | Value |\n")
	sb.WriteString("|-----------|-------|\n")
	for _, p := range r.Summary {
		sb.WriteString(fmt.Sprintf("| %s | %s |\n", p.Parameter, p.Value))
	}
	sb.WriteString("\n")

	// Scenarios
	sb.WriteString("## Scenario Analysis\n\n")
	if len(r.Scenarios) > 0 {
		sb.WriteString("| Failure Rate | Mean Payout | Std Dev | Estimated Profit | Profit Range (68%) | P5 | P50 | P95 |\n")
		sb.WriteString("|--------------|-------------|---------|------------------|--------------------|----|-----|-----|\n")
		for _, s := range r.Scenarios {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s to %s | %s | %s | %s |\n",
				FormatRate(s.FailureRate),
				FormatMoney(s.MeanPayout), FormatMoney(s.StdPayout), FormatMoney(s.EstimatedProfit),
				FormatMoney(s.Band.Low), FormatMoney(s.Band.High),
				FormatMoney(s.P5), FormatMoney(s.P50), FormatMoney(s.P95)))
		}
	} else {
		sb.WriteString("No scenarios simulated.\n")
	}
	sb.WriteString("\n")

	// Breakeven
	sb.WriteString("## Breakeven Analysis\n\n")
	if r.Breakeven.Found {
		sb.WriteString(fmt.Sprintf("Breakeven failure rate: **%s** (estimated profit %s)\n\n",
			FormatRate(r.Breakeven.FailureRate), FormatMoney(r.Breakeven.EstimatedProfit)))
	} else {
		sb.WriteString("No profitable failure rate in range.\n\n")
	}
	if len(r.Profit) > 0 {
		sb.WriteString("| Failure Rate | Estimated Profit |\n")
		sb.WriteString("|--------------|------------------|\n")
		for _, p := range r.Profit {
			sb.WriteString(fmt.Sprintf("| %s | %s |\n", FormatRate(p.FailureRate), FormatMoney(p.EstimatedProfit)))
		}
		sb.WriteString("\n")
	}

	// Risk
	sb.WriteString("## Risk Analysis\n\n")
	if len(r.Risk) > 0 {
		sb.WriteString(fmt.Sprintf("| %s | Failure Rate | Standard Deviation |\n", r.RiskAxis.Label()))
		sb.WriteString("|---|--------------|--------------------|\n")
		for _, p := range r.Risk {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s |\n", p.AxisValue, FormatRate(p.FailureRate), FormatMoney(p.StdDev)))
		}
	} else {
		sb.WriteString("Risk sweep not run.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}
