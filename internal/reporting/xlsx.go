package reporting

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"capex-lab/internal/domain"
)

// XLSXFileName returns the workbook file name for a distribution mode,
// e.g. full_capex_report_simulate_average.xlsx.
func XLSXFileName(mode domain.DistributionMode) string {
	return "full_capex_report_" + strings.ToLower(strings.ReplaceAll(mode.Label(), " ", "_")) + ".xlsx"
}

// WriteXLSX writes the four result tables of exp as a multi-sheet workbook.
func WriteXLSX(w io.Writer, exp domain.Export) error {
	f := excelize.NewFile()
	defer f.Close()

	// NewFile starts with one default sheet; reuse it for the summary.
	if err := f.SetSheetName(f.GetSheetList()[0], SheetSummary); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	summary := make([][]interface{}, 0, len(exp.Summary))
	for _, p := range exp.Summary {
		summary = append(summary, []interface{}{p.Parameter, p.Value})
	}
	if err := writeSheet(f, SheetSummary, []interface{}{"Parameter", "Value"}, summary); err != nil {
		return err
	}

	scenarios := make([][]interface{}, 0, len(exp.Scenarios))
	for _, s := range exp.Scenarios {
		scenarios = append(scenarios, []interface{}{FormatRate(s.FailureRate), s.Replicate, s.SimulatedPayout, s.AssociatedProfit})
	}
	if err := writeSheet(f, SheetScenarios,
		[]interface{}{"failure_rate_scenario", "replicate", "simulated_payout", "associated_profit"}, scenarios); err != nil {
		return err
	}

	profit := make([][]interface{}, 0, len(exp.Profit))
	for _, p := range exp.Profit {
		profit = append(profit, []interface{}{p.FailureRate, p.EstimatedProfit})
	}
	if err := writeSheet(f, SheetBreakeven, []interface{}{"failure_rate", "estimated_profit"}, profit); err != nil {
		return err
	}

	axisLabel := "Axis Value"
	if len(exp.Risk) > 0 {
		axisLabel = exp.Risk[0].Axis.Label()
	}
	risk := make([][]interface{}, 0, len(exp.Risk))
	for _, p := range exp.Risk {
		risk = append(risk, []interface{}{p.AxisValue, FormatRate(p.FailureRate), p.StdDev})
	}
	if err := writeSheet(f, SheetRisk, []interface{}{axisLabel, "Failure Rate", "Standard Deviation"}, risk); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// writeSheet streams header and rows into sheet, creating it when missing.
func writeSheet(f *excelize.File, sheet string, header []interface{}, rows [][]interface{}) error {
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("create sheet %s: %w", sheet, err)
		}
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("stream sheet %s: %w", sheet, err)
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet %s: %w", sheet, err)
	}
	return nil
}
