package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/ragbench/internal/artifact"
	"github.com/hyperjump/ragbench/internal/config"
	"github.com/hyperjump/ragbench/internal/corpus"
	"github.com/hyperjump/ragbench/internal/dataset"
	"github.com/hyperjump/ragbench/internal/embedding"
	"github.com/hyperjump/ragbench/internal/eval"
	"github.com/hyperjump/ragbench/internal/generation"
	"github.com/hyperjump/ragbench/internal/metrics"
	"github.com/hyperjump/ragbench/internal/models"
	"github.com/hyperjump/ragbench/internal/retrieval"
	"github.com/hyperjump/ragbench/internal/scoring"
	"github.com/hyperjump/ragbench/internal/vector"
)

// Components holds everything a command needs after the index is built or loaded.
type Components struct {
	Metrics  *metrics.Metrics
	Embedder embedding.Embedder
	Dataset  dataset.Provider
	Examples []models.QAExample
	Corpus   *corpus.Corpus
	Bundle   *artifact.Bundle
	CacheHit bool
	// Pipeline is nil unless requested; building the index needs no generator.
	Pipeline *eval.Pipeline
}

// Close releases the vector index and the embedding model.
func (c *Components) Close() {
	if c.Bundle != nil {
		_ = c.Bundle.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

// resolveIndexType falls back to the memory index when FAISS is configured but not compiled in.
func resolveIndexType(requested string, logger *zap.Logger) string {
	if requested == string(vector.IndexTypeFAISS) && !vector.IsFAISSAvailable() {
		logger.Warn("FAISS not available, falling back to memory index",
			zap.String("requested_type", requested))
		return string(vector.IndexTypeMemory)
	}
	return requested
}

// initializeComponents loads the dataset, builds or loads the artifacts and, when withPipeline is
// set, wires retrieval, generation and scoring into an evaluation pipeline.
func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger, withPipeline bool) (*Components, error) {
	if cfg.Eval.DatasetPath == "" {
		return nil, errors.New("eval.dataset_path is not set")
	}
	c := &Components{
		Metrics: metrics.New(),
		Dataset: &dataset.HotpotFile{Path: cfg.Eval.DatasetPath, Limit: cfg.Eval.DatasetLimit},
	}

	examples, err := c.Dataset.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	c.Examples = examples
	c.Corpus = corpus.Flatten(examples)
	logger.Info("dataset loaded",
		zap.String("dataset", c.Dataset.Name()),
		zap.Int("examples", len(examples)),
		zap.Int("passages", c.Corpus.Len()))

	c.Embedder, err = embedding.New(cfg.Embedding, embedding.Options{
		Logger:        logger,
		CacheObserver: c.Metrics.ObserveCacheLookup,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	store := artifact.NewStore(cfg.Storage.CacheDir, artifact.WithStoreLogger(logger))
	builder := artifact.NewBuilder(store, c.Embedder,
		artifact.WithLogger(logger),
		artifact.WithIndexType(resolveIndexType(cfg.Vector.IndexType, logger)),
		artifact.WithBatchOptions(embedding.BatchOptions{
			BatchSize: cfg.Embedding.BatchSize,
			Workers:   cfg.Embedding.Workers,
			Progress: func(done, total int) {
				c.Metrics.ObserveEmbeddingProgress(done, total)
				logger.Debug("embedding progress", zap.Int("done", done), zap.Int("total", total))
			},
		}))
	c.Bundle, c.CacheHit, err = builder.BuildOrLoad(ctx, c.Corpus)
	if err != nil {
		c.Close()
		return nil, err
	}
	logger.Info("vector index ready",
		zap.String("type", c.Bundle.Index.Type()),
		zap.Int("size", c.Bundle.Index.Size()),
		zap.Bool("cache_hit", c.CacheHit))

	if !withPipeline {
		return c, nil
	}

	engine, err := retrieval.NewEngine(c.Embedder, c.Bundle.Index, c.Corpus)
	if err != nil {
		c.Close()
		return nil, err
	}
	gen, err := generation.New(cfg.Generation, logger)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize generator: %w", err)
	}
	synth := generation.NewSynthesizer(gen, cfg.Generation.MaxTokens, cfg.Generation.Timeout)
	c.Pipeline = eval.NewPipeline(engine, synth, scoring.NewScorer(c.Embedder), cfg.Eval.TopK,
		eval.WithPipelineLogger(logger),
		eval.WithPipelineMetrics(c.Metrics))
	return c, nil
}
