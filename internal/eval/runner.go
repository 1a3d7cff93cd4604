package eval

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/ragbench/internal/metrics"
	"github.com/hyperjump/ragbench/internal/models"
	"github.com/hyperjump/ragbench/pkg/utils"
)

// Sink persists a run as it progresses.
type Sink interface {
	CreateRun(ctx context.Context, run *models.RunInfo) error
	SaveOutcome(ctx context.Context, runID string, outcome *models.ExampleOutcome) error
	FinishRun(ctx context.Context, run *models.RunInfo) error
}

// RunResult is the output of Runner.Evaluate. Outcomes are in dataset order.
type RunResult struct {
	Run      models.RunInfo
	Outcomes []*models.ExampleOutcome
}

// Report returns the aggregate report of the run.
func (r *RunResult) Report() models.EvaluationReport {
	return r.Run.Report
}

// Runner evaluates a dataset with a bounded number of concurrent examples.
type Runner struct {
	pipeline    *Pipeline
	workers     int
	sink        Sink
	metrics     *metrics.Metrics
	logger      *zap.Logger
	progress    func(done, total int)
	dataset     string
	fingerprint string
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithWorkers sets how many examples are evaluated concurrently. Values below 1 mean 1.
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) { r.workers = n }
}

// WithSink persists the run and each outcome.
func WithSink(s Sink) RunnerOption {
	return func(r *Runner) { r.sink = s }
}

// WithMetrics counts scored and failed examples and publishes the final report.
func WithMetrics(m *metrics.Metrics) RunnerOption {
	return func(r *Runner) { r.metrics = m }
}

// WithLogger sets a logger for run start, progress and completion.
func WithLogger(l *zap.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// WithProgress is called after each example with the number completed so far.
func WithProgress(fn func(done, total int)) RunnerOption {
	return func(r *Runner) { r.progress = fn }
}

// WithRunLabels records the dataset name and corpus fingerprint on the run.
func WithRunLabels(dataset, fingerprint string) RunnerOption {
	return func(r *Runner) {
		r.dataset = dataset
		r.fingerprint = fingerprint
	}
}

// NewRunner creates a runner over pipeline.
func NewRunner(pipeline *Pipeline, opts ...RunnerOption) *Runner {
	r := &Runner{pipeline: pipeline, workers: 1}
	for _, opt := range opts {
		opt(r)
	}
	if r.workers < 1 {
		r.workers = 1
	}
	r.logger = utils.OrNop(r.logger)
	return r
}

// Evaluate runs every example through the pipeline. Per-example failures are recorded and counted;
// other errors stop the run. When no example could be scored the result is still returned, along
// with an error wrapping models.ErrEmptyInput.
func (r *Runner) Evaluate(ctx context.Context, examples []models.QAExample) (*RunResult, error) {
	if len(examples) == 0 {
		return nil, fmt.Errorf("dataset has no examples: %w", models.ErrEmptyInput)
	}

	result := &RunResult{
		Run: models.RunInfo{
			ID:          uuid.NewString(),
			StartedAt:   time.Now().UTC(),
			Dataset:     r.dataset,
			Fingerprint: r.fingerprint,
			TopK:        r.pipeline.TopK(),
		},
		Outcomes: make([]*models.ExampleOutcome, len(examples)),
	}
	if r.sink != nil {
		if err := r.sink.CreateRun(ctx, &result.Run); err != nil {
			return nil, fmt.Errorf("create run: %w", err)
		}
	}
	r.logger.Info("evaluation started",
		zap.String("run_id", result.Run.ID),
		zap.Int("examples", len(examples)),
		zap.Int("workers", r.workers))

	var agg Aggregator
	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i := range examples {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			outcome, err := r.pipeline.EvaluateExample(gctx, &examples[i])
			if err != nil {
				return err
			}
			result.Outcomes[i] = outcome
			if outcome.Failed() {
				agg.AddFailure()
			} else {
				agg.Add(*outcome.Score)
			}
			r.metrics.ObserveExample(!outcome.Failed())
			if r.sink != nil {
				if err := r.sink.SaveOutcome(gctx, result.Run.ID, outcome); err != nil {
					return fmt.Errorf("save outcome %d: %w", outcome.ExampleID, err)
				}
			}
			n := int(done.Add(1))
			if r.progress != nil {
				r.progress(n, len(examples))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report, aggErr := agg.Report(len(examples))
	result.Run.Report = report
	result.Run.FinishedAt = time.Now().UTC()
	r.metrics.SetReport(report)
	if r.sink != nil {
		if err := r.sink.FinishRun(ctx, &result.Run); err != nil {
			return nil, fmt.Errorf("finish run: %w", err)
		}
	}
	r.logger.Info("evaluation finished",
		zap.String("run_id", result.Run.ID),
		zap.Int("evaluated", report.Evaluated),
		zap.Int("total", report.Total),
		zap.Int("failed", report.Failed),
		zap.Duration("elapsed", result.Run.FinishedAt.Sub(result.Run.StartedAt)))
	return result, aggErr
}
