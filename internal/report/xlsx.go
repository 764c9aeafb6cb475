// Package report renders a run into an analyst-facing XLSX workbook.
package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/takibi/seiri/internal/models"
)

// WriteWorkbook writes a three-sheet workbook for one run: Summary with the
// stage counts, Priorities sorted as scored, Techniques with tactic rollups.
func WriteWorkbook(path string, result *models.RunResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSummary(f, result); err != nil {
		return err
	}
	if err := writePriorities(f, result.Priorities); err != nil {
		return err
	}
	if err := writeTechniques(f, result.Techniques); err != nil {
		return err
	}

	// The default sheet becomes Summary; drop nothing, rename in place.
	if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, result *models.RunResult) error {
	rows := [][]interface{}{
		{"Run ID", result.RunID},
		{"Case ID", result.CaseID},
		{"Capture timestamp", result.Timestamp.Format(time.RFC3339)},
		{"Artifacts", result.Counts.Artifacts},
		{"Items", result.Counts.Items},
		{"Unavailable items", result.Counts.UnavailableItems},
		{"Error items", result.Counts.ErrorItems},
		{"Chunks", result.Counts.Chunks},
		{"Overflow items", result.Counts.OverflowItems},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to address summary row: %w", err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
	}
	return nil
}

func writePriorities(f *excelize.File, report *models.PriorityReport) error {
	const sheet = "Priorities"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create priorities sheet: %w", err)
	}
	header := []interface{}{"Item ID", "Score", "Category", "Source", "Reasons"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write priorities header: %w", err)
	}
	if report == nil {
		return nil
	}
	for i, rec := range report.Records {
		row := []interface{}{rec.ItemID, rec.Score, string(rec.Category), rec.SourcePath, joinReasons(rec.Reasons)}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address priorities row: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write priorities row: %w", err)
		}
	}
	return nil
}

func writeTechniques(f *excelize.File, report *models.TechniqueReport) error {
	const sheet = "Techniques"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create techniques sheet: %w", err)
	}
	header := []interface{}{"Technique", "Tactic", "Count"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write techniques header: %w", err)
	}
	if report == nil {
		return nil
	}
	techniques := make([]string, 0, len(report.ByTechnique))
	for id := range report.ByTechnique {
		techniques = append(techniques, id)
	}
	sort.Strings(techniques)
	for i, id := range techniques {
		stat := report.ByTechnique[id]
		row := []interface{}{id, stat.Tactic, stat.Count}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address techniques row: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write techniques row: %w", err)
		}
	}
	return nil
}

func joinReasons(reasons []string) string {
	out := ""
	for i, r := range reasons {
		if i > 0 {
			out += "; "
		}
		out += r
	}
	return out
}
