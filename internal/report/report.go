// Package report renders evaluation runs and answers.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/bytedance/sonic"

	"github.com/hyperjump/ragbench/internal/models"
	"github.com/hyperjump/ragbench/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat validates a -output flag value.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (supported: text, json)", s)
	}
}

// RunReport is the JSON shape of an evaluation run.
type RunReport struct {
	Run      models.RunInfo           `json:"run"`
	Outcomes []*models.ExampleOutcome `json:"outcomes,omitempty"`
}

// WriteReport writes the aggregate report of run to w. JSON output also carries the outcomes.
func WriteReport(w io.Writer, run *models.RunInfo, outcomes []*models.ExampleOutcome, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, RunReport{Run: *run, Outcomes: outcomes})
	}
	writeReportText(w, run, outcomes)
	return nil
}

func writeReportText(w io.Writer, run *models.RunInfo, outcomes []*models.ExampleOutcome) {
	r := run.Report
	fmt.Fprintf(w, "\nRun %s: evaluated %d of %d examples (%d failed)\n", run.ID, r.Evaluated, r.Total, r.Failed)
	if run.Finished() {
		fmt.Fprintf(w, "Duration: %s | top-k: %d\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond), run.TopK)
	}
	fmt.Fprintf(w, "Avg F1 Score: %.4f\n", r.F1)
	fmt.Fprintf(w, "Avg Cosine Similarity: %.4f\n", r.SemanticSimilarity)
	fmt.Fprintf(w, "Avg ROUGE-L: %.4f\n", r.RougeL)
	fmt.Fprintf(w, "Supporting Fact Match Score: %.4f\n", r.SupportingFactMatch)

	var failed []*models.ExampleOutcome
	for _, o := range outcomes {
		if o != nil && o.Failed() {
			failed = append(failed, o)
		}
	}
	if len(failed) > 0 {
		fmt.Fprintln(w, "\n--- Failed examples ---")
		for _, o := range failed {
			fmt.Fprintf(w, "#%d %s: %s\n", o.ExampleID, utils.Truncate(o.Question, 80), o.Err)
		}
	}
}

// Answer is the JSON shape of a single answered question.
type Answer struct {
	Question string                  `json:"question"`
	Answer   string                  `json:"answer"`
	Sources  *models.RetrievalResult `json:"sources"`
}

// WriteAnswer writes a generated answer and the passages it was generated from.
func WriteAnswer(w io.Writer, answer string, res *models.RetrievalResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, Answer{Question: res.Question, Answer: answer, Sources: res})
	}
	fmt.Fprintf(w, "\n%s\n\n", answer)
	for i := range res.PassageTexts {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		id := res.PassageIDs[i]
		fmt.Fprintf(w, "[%d] example %d, passage %d | distance %.4f\n", i+1, id.ExampleID, id.LocalIndex, res.Distances[i])
		fmt.Fprintf(w, "%s\n", utils.Truncate(res.PassageTexts[i], 200))
	}
	return nil
}

// WriteRuns writes one line per run, most recent first.
func WriteRuns(w io.Writer, runs []*models.RunInfo) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded")
		return
	}
	for _, run := range runs {
		status := "incomplete"
		if run.Finished() {
			status = fmt.Sprintf("%d/%d", run.Report.Evaluated, run.Report.Total)
		}
		fmt.Fprintf(w, "%s  %s  %-12s f1=%.4f sim=%.4f rouge=%.4f sfm=%.4f  %s\n",
			run.ID, run.StartedAt.Format("2006-01-02 15:04"), status,
			run.Report.F1, run.Report.SemanticSimilarity, run.Report.RougeL, run.Report.SupportingFactMatch,
			run.Dataset)
	}
}

func writeJSON(w io.Writer, v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}
