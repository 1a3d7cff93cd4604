package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/ragbench/internal/models"
)

// Sheet names written by ExportXLSX.
const (
	SummarySheet  = "summary"
	ExamplesSheet = "examples"
)

var exampleColumns = []string{
	"example_id", "question", "gold", "prediction",
	"f1", "semantic_similarity", "rouge_l", "supporting_fact_match", "error",
}

// ExportXLSX writes the run summary and one row per example outcome to an Excel workbook at path.
func ExportXLSX(path string, run *models.RunInfo, outcomes []*models.ExampleOutcome) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	r := run.Report
	summary := [][]any{
		{"run_id", run.ID},
		{"dataset", run.Dataset},
		{"fingerprint", run.Fingerprint},
		{"started_at", run.StartedAt},
		{"top_k", run.TopK},
		{"evaluated", r.Evaluated},
		{"total", r.Total},
		{"failed", r.Failed},
		{"f1", r.F1},
		{"semantic_similarity", r.SemanticSimilarity},
		{"rouge_l", r.RougeL},
		{"supporting_fact_match", r.SupportingFactMatch},
	}
	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}
	_ = f.SetCellStyle(SummarySheet, "A1", fmt.Sprintf("A%d", len(summary)), headerStyle)
	_ = f.SetColWidth(SummarySheet, "A", "A", 24)
	_ = f.SetColWidth(SummarySheet, "B", "B", 40)

	if _, err := f.NewSheet(ExamplesSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	header := make([]any, len(exampleColumns))
	for i, c := range exampleColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(ExamplesSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	last, _ := excelize.ColumnNumberToName(len(exampleColumns))
	_ = f.SetCellStyle(ExamplesSheet, "A1", last+"1", headerStyle)

	row := 2
	for _, o := range outcomes {
		if o == nil {
			continue
		}
		values := []any{o.ExampleID, o.Question, o.Gold, o.Prediction}
		if o.Score != nil {
			values = append(values, o.Score.F1, o.Score.SemanticSimilarity, o.Score.RougeL, o.Score.SupportingFactMatch)
		} else {
			values = append(values, nil, nil, nil, nil)
		}
		values = append(values, o.Err)
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(ExamplesSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write example %d: %w", o.ExampleID, err)
		}
		row++
	}
	_ = f.SetColWidth(ExamplesSheet, "B", "D", 40)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}
	return nil
}
