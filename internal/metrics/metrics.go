// Package metrics provides Prometheus metrics for index builds and evaluation runs. Metrics are
// kept in a private registry and exported as a node_exporter textfile at the end of a run.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hyperjump/ragbench/internal/models"
)

const namespace = "ragbench"

// Metrics holds all collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ExamplesTotal      *prometheus.CounterVec
	GenerationFailures prometheus.Counter
	RetrievalDuration  prometheus.Histogram
	GenerationDuration prometheus.Histogram
	EmbeddingBatches   prometheus.Counter
	PassagesEmbedded   prometheus.Gauge
	CacheLookups       *prometheus.CounterVec
	ReportScores       *prometheus.GaugeVec
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ExamplesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "examples_total",
			Help:      "Examples processed, by outcome (scored or failed)",
		}, []string{"status"}),
		GenerationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_failures_total",
			Help:      "Answer generations that failed or timed out",
		}),
		RetrievalDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_duration_seconds",
			Help:      "Duration of question embedding plus top-k search",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		GenerationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Duration of answer generation",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		}),
		EmbeddingBatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_batches_total",
			Help:      "Corpus embedding batches completed",
		}),
		PassagesEmbedded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "passages_embedded",
			Help:      "Passages embedded so far in the current build",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_cache_lookups_total",
			Help:      "Query embedding cache lookups, by result (hit or miss)",
		}, []string{"result"}),
		ReportScores: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "report_score",
			Help:      "Mean score of the last evaluation run, by metric",
		}, []string{"metric"}),
	}
	m.registry.MustRegister(
		m.ExamplesTotal,
		m.GenerationFailures,
		m.RetrievalDuration,
		m.GenerationDuration,
		m.EmbeddingBatches,
		m.PassagesEmbedded,
		m.CacheLookups,
		m.ReportScores,
	)
	return m
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveExample counts one processed example.
func (m *Metrics) ObserveExample(scored bool) {
	if m == nil {
		return
	}
	if scored {
		m.ExamplesTotal.WithLabelValues("scored").Inc()
		return
	}
	m.ExamplesTotal.WithLabelValues("failed").Inc()
}

// ObserveGenerationFailure counts a failed generation.
func (m *Metrics) ObserveGenerationFailure() {
	if m == nil {
		return
	}
	m.GenerationFailures.Inc()
}

// ObserveRetrieval records a retrieval duration.
func (m *Metrics) ObserveRetrieval(d time.Duration) {
	if m == nil {
		return
	}
	m.RetrievalDuration.Observe(d.Seconds())
}

// ObserveGeneration records a generation duration.
func (m *Metrics) ObserveGeneration(d time.Duration) {
	if m == nil {
		return
	}
	m.GenerationDuration.Observe(d.Seconds())
}

// ObserveEmbeddingProgress matches embedding.BatchOptions.Progress: one call per finished batch.
func (m *Metrics) ObserveEmbeddingProgress(done, total int) {
	if m == nil {
		return
	}
	m.EmbeddingBatches.Inc()
	m.PassagesEmbedded.Set(float64(done))
}

// ObserveCacheLookup matches embedding.WithLookupObserver.
func (m *Metrics) ObserveCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.CacheLookups.WithLabelValues("miss").Inc()
}

// SetReport publishes the means of a finished run.
func (m *Metrics) SetReport(r models.EvaluationReport) {
	if m == nil {
		return
	}
	m.ReportScores.WithLabelValues("f1").Set(r.F1)
	m.ReportScores.WithLabelValues("semantic_similarity").Set(r.SemanticSimilarity)
	m.ReportScores.WithLabelValues("rouge_l").Set(r.RougeL)
	m.ReportScores.WithLabelValues("supporting_fact_match").Set(r.SupportingFactMatch)
}

// WriteTextfile writes all metrics to path in the text exposition format. The file is written
// atomically, so a collector never reads a partial file.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
