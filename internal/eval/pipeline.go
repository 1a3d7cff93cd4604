package eval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/ragbench/internal/metrics"
	"github.com/hyperjump/ragbench/internal/models"
	"github.com/hyperjump/ragbench/pkg/utils"
)

// Retriever returns the top-k passages for a question.
type Retriever interface {
	Retrieve(ctx context.Context, question string, k int) (*models.RetrievalResult, error)
}

// Synthesizer answers a question from ordered passages.
type Synthesizer interface {
	Synthesize(ctx context.Context, question string, passages []string) (string, error)
}

// Scorer scores a prediction against its gold example.
type Scorer interface {
	Score(ctx context.Context, example *models.QAExample, prediction string, retrieval *models.RetrievalResult) (*models.ScoreRecord, error)
}

// Pipeline holds the components one question flows through. It is built once and shared by all
// evaluation workers.
type Pipeline struct {
	retriever   Retriever
	synthesizer Synthesizer
	scorer      Scorer
	topK        int
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithPipelineLogger sets a logger for per-example failures.
func WithPipelineLogger(l *zap.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = l }
}

// WithPipelineMetrics records retrieval and generation timings.
func WithPipelineMetrics(m *metrics.Metrics) PipelineOption {
	return func(p *Pipeline) { p.metrics = m }
}

// NewPipeline creates a pipeline that retrieves topK passages per question.
func NewPipeline(retriever Retriever, synthesizer Synthesizer, scorer Scorer, topK int, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		retriever:   retriever,
		synthesizer: synthesizer,
		scorer:      scorer,
		topK:        topK,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = utils.OrNop(p.logger)
	return p
}

// TopK returns the number of passages retrieved per question.
func (p *Pipeline) TopK() int {
	return p.topK
}

// Answer retrieves k passages for question and generates an answer from them.
func (p *Pipeline) Answer(ctx context.Context, question string, k int) (string, *models.RetrievalResult, error) {
	start := time.Now()
	res, err := p.retriever.Retrieve(ctx, question, k)
	if err != nil {
		return "", nil, err
	}
	p.metrics.ObserveRetrieval(time.Since(start))

	start = time.Now()
	answer, err := p.synthesizer.Synthesize(ctx, question, res.PassageTexts)
	p.metrics.ObserveGeneration(time.Since(start))
	if err != nil {
		return "", res, err
	}
	return answer, res, nil
}

// EvaluateExample answers and scores one example. Generation failures and invalid questions are
// recorded in the outcome and do not return an error; any other error is fatal to the run.
func (p *Pipeline) EvaluateExample(ctx context.Context, ex *models.QAExample) (*models.ExampleOutcome, error) {
	outcome := &models.ExampleOutcome{
		ExampleID: ex.ExampleID,
		Question:  ex.Question,
		Gold:      ex.Answer,
	}

	prediction, res, err := p.Answer(ctx, ex.Question, p.topK)
	outcome.Retrieval = res
	if err != nil {
		if !isPerExample(err) {
			return nil, fmt.Errorf("example %d: %w", ex.ExampleID, err)
		}
		if errors.Is(err, models.ErrGenerationFailure) {
			p.metrics.ObserveGenerationFailure()
		}
		p.logger.Warn("example failed", zap.Int("example_id", ex.ExampleID), zap.Error(err))
		outcome.Err = err.Error()
		return outcome, nil
	}
	outcome.Prediction = prediction

	score, err := p.scorer.Score(ctx, ex, prediction, res)
	if err != nil {
		return nil, fmt.Errorf("score example %d: %w", ex.ExampleID, err)
	}
	outcome.Score = score
	return outcome, nil
}

func isPerExample(err error) bool {
	return errors.Is(err, models.ErrGenerationFailure) || errors.Is(err, models.ErrInvalidArgument)
}
