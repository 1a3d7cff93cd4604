package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/ragbench/internal/models"
)

func TestMetrics_Observe(t *testing.T) {
	m := New()

	m.ObserveExample(true)
	m.ObserveExample(true)
	m.ObserveExample(false)
	m.ObserveGenerationFailure()
	m.ObserveCacheLookup(true)
	m.ObserveCacheLookup(false)
	m.ObserveCacheLookup(false)
	m.ObserveEmbeddingProgress(32, 64)
	m.ObserveEmbeddingProgress(64, 64)
	m.ObserveRetrieval(5 * time.Millisecond)
	m.ObserveGeneration(200 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ExamplesTotal.WithLabelValues("scored")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExamplesTotal.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GenerationFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.EmbeddingBatches))
	assert.Equal(t, 64.0, testutil.ToFloat64(m.PassagesEmbedded))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RetrievalDuration))
}

func TestMetrics_SetReport(t *testing.T) {
	m := New()
	m.SetReport(models.EvaluationReport{F1: 0.5, SemanticSimilarity: 0.8, RougeL: 0.25, SupportingFactMatch: 1})
	assert.Equal(t, 0.5, testutil.ToFloat64(m.ReportScores.WithLabelValues("f1")))
	assert.Equal(t, 0.25, testutil.ToFloat64(m.ReportScores.WithLabelValues("rouge_l")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReportScores.WithLabelValues("supporting_fact_match")))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := New()
	m.ObserveExample(true)
	path := filepath.Join(t.TempDir(), "textfile", "ragbench.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.Contains(text, `ragbench_examples_total{status="scored"} 1`), text)
	assert.Contains(t, text, "# HELP ragbench_generation_failures_total")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveExample(true)
	m.ObserveGenerationFailure()
	m.ObserveCacheLookup(true)
	m.ObserveEmbeddingProgress(1, 1)
	m.ObserveRetrieval(time.Second)
	m.ObserveGeneration(time.Second)
	m.SetReport(models.EvaluationReport{})
	assert.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
}
