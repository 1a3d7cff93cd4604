// Package eval drives retrieval, generation and scoring over a dataset and aggregates the scores.
package eval

import (
	"fmt"
	"sync"

	"github.com/hyperjump/ragbench/internal/models"
)

// Aggregate returns the element-wise mean of records. Empty input fails with models.ErrEmptyInput.
func Aggregate(records []models.ScoreRecord) (models.EvaluationReport, error) {
	var a Aggregator
	for _, r := range records {
		a.Add(r)
	}
	return a.Report(len(records))
}

// Aggregator accumulates score records and failures. It is safe for concurrent use.
type Aggregator struct {
	mu     sync.Mutex
	n      int
	failed int
	sum    models.ScoreRecord
}

// Add accumulates one scored example.
func (a *Aggregator) Add(r models.ScoreRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.n++
	a.sum.F1 += r.F1
	a.sum.SemanticSimilarity += r.SemanticSimilarity
	a.sum.RougeL += r.RougeL
	a.sum.SupportingFactMatch += r.SupportingFactMatch
}

// AddFailure counts one example that could not be scored.
func (a *Aggregator) AddFailure() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failed++
}

// Report returns the means over scored examples out of total. When nothing was scored the report
// still carries the counts and the error wraps models.ErrEmptyInput.
func (a *Aggregator) Report(total int) (models.EvaluationReport, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r := models.EvaluationReport{Evaluated: a.n, Total: total, Failed: a.failed}
	if a.n == 0 {
		return r, fmt.Errorf("no scored examples out of %d: %w", total, models.ErrEmptyInput)
	}
	n := float64(a.n)
	r.F1 = a.sum.F1 / n
	r.SemanticSimilarity = a.sum.SemanticSimilarity / n
	r.RougeL = a.sum.RougeL / n
	r.SupportingFactMatch = a.sum.SupportingFactMatch / n
	return r, nil
}
