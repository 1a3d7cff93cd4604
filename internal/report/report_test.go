package report

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/ragbench/internal/models"
)

func sampleRun() (*models.RunInfo, []*models.ExampleOutcome) {
	started := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	run := &models.RunInfo{
		ID:          "run-42",
		StartedAt:   started,
		FinishedAt:  started.Add(90 * time.Second),
		Dataset:     "hotpot_dev.json",
		Fingerprint: "f00d",
		TopK:        3,
		Report: models.EvaluationReport{
			Evaluated: 1, Total: 2, Failed: 1,
			F1: 0.5, SemanticSimilarity: 0.91234, RougeL: 0.333333, SupportingFactMatch: 1,
		},
	}
	outcomes := []*models.ExampleOutcome{
		{
			ExampleID: 0, Question: "Who directed Ed Wood?", Gold: "Tim Burton", Prediction: "Tim Burton",
			Retrieval: &models.RetrievalResult{Question: "Who directed Ed Wood?"},
			Score:     &models.ScoreRecord{ExampleID: 0, F1: 1, SemanticSimilarity: 1, RougeL: 1, SupportingFactMatch: 1},
		},
		{ExampleID: 1, Question: "Which river?", Gold: "Seine", Err: "generation failure: context deadline exceeded"},
	}
	return run, outcomes
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]OutputFormat{"": OutputText, "text": OutputText, "json": OutputJSON} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("yaml")
	assert.Error(t, err)
}

func TestWriteReport_Text(t *testing.T) {
	run, outcomes := sampleRun()
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, run, outcomes, OutputText))
	out := buf.String()

	assert.Contains(t, out, "evaluated 1 of 2 examples (1 failed)")
	assert.Contains(t, out, "Avg F1 Score: 0.5000")
	assert.Contains(t, out, "Avg Cosine Similarity: 0.9123")
	assert.Contains(t, out, "Avg ROUGE-L: 0.3333")
	assert.Contains(t, out, "Supporting Fact Match Score: 1.0000")
	assert.Contains(t, out, "Duration: 1m30s")
	assert.Contains(t, out, "#1 Which river?: generation failure")
	assert.NotContains(t, out, "#0 ")
}

func TestWriteReport_JSON(t *testing.T) {
	run, outcomes := sampleRun()
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, run, outcomes, OutputJSON))

	var decoded RunReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-42", decoded.Run.ID)
	assert.Equal(t, run.Report, decoded.Run.Report)
	require.Len(t, decoded.Outcomes, 2)
	assert.Equal(t, "Tim Burton", decoded.Outcomes[0].Prediction)
	assert.Nil(t, decoded.Outcomes[1].Score)
}

func TestWriteAnswer(t *testing.T) {
	res := &models.RetrievalResult{
		Question:            "Who?",
		RankedGlobalIndices: []int{3, 1},
		Distances:           []float32{0.25, 1.5},
		PassageIDs:          []models.PassageID{{ExampleID: 1, LocalIndex: 1}, {ExampleID: 0, LocalIndex: 1}},
		PassageTexts:        []string{"Ed Wood was directed by Tim Burton.", strings.Repeat("x", 300)},
	}

	var text bytes.Buffer
	require.NoError(t, WriteAnswer(&text, "Tim Burton", res, OutputText))
	out := text.String()
	assert.Contains(t, out, "Tim Burton\n")
	assert.Contains(t, out, "[1] example 1, passage 1 | distance 0.2500")
	assert.Contains(t, out, strings.Repeat("x", 200)+"...")

	var js bytes.Buffer
	require.NoError(t, WriteAnswer(&js, "Tim Burton", res, OutputJSON))
	var decoded Answer
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	assert.Equal(t, "Who?", decoded.Question)
	assert.Equal(t, "Tim Burton", decoded.Answer)
	assert.Equal(t, []int{3, 1}, decoded.Sources.RankedGlobalIndices)
}

func TestWriteRuns(t *testing.T) {
	run, _ := sampleRun()
	open := &models.RunInfo{ID: "run-43", StartedAt: run.StartedAt.Add(time.Hour)}

	var buf bytes.Buffer
	WriteRuns(&buf, []*models.RunInfo{open, run})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "run-43")
	assert.Contains(t, lines[0], "incomplete")
	assert.Contains(t, lines[1], "1/2")
	assert.Contains(t, lines[1], "f1=0.5000")

	buf.Reset()
	WriteRuns(&buf, nil)
	assert.Equal(t, "No runs recorded\n", buf.String())
}

func TestExportXLSX(t *testing.T) {
	run, outcomes := sampleRun()
	path := filepath.Join(t.TempDir(), "run.xlsx")
	require.NoError(t, ExportXLSX(path, run, outcomes))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SummarySheet, ExamplesSheet}, f.GetSheetList())

	id, err := f.GetCellValue(SummarySheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "run-42", id)

	rows, err := f.GetRows(ExamplesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, exampleColumns, rows[0])
	assert.Equal(t, "Tim Burton", rows[1][3])
	assert.Equal(t, "1", rows[1][4])
	assert.Equal(t, "generation failure: context deadline exceeded", rows[2][8])
	assert.Equal(t, "", rows[2][4])
}
