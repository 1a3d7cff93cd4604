package artifact

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/ragbench/internal/corpus"
	"github.com/hyperjump/ragbench/internal/embedding"
	"github.com/hyperjump/ragbench/internal/models"
	"github.com/hyperjump/ragbench/internal/vector"
	"github.com/hyperjump/ragbench/pkg/utils"
)

// Builder produces the embedding matrix, vector index and id map for a corpus, reusing the
// committed generation when it was built from the same corpus with the same model.
type Builder struct {
	store     *Store
	embedder  embedding.Embedder
	indexType string
	batch     embedding.BatchOptions
	logger    *zap.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets a logger for cache hit/miss and build progress.
func WithLogger(l *zap.Logger) BuilderOption {
	return func(b *Builder) { b.logger = l }
}

// WithIndexType selects the vector index implementation ("memory" or "faiss").
func WithIndexType(t string) BuilderOption {
	return func(b *Builder) { b.indexType = t }
}

// WithBatchOptions sets batch size, worker count and progress callback for corpus embedding.
func WithBatchOptions(o embedding.BatchOptions) BuilderOption {
	return func(b *Builder) { b.batch = o }
}

// NewBuilder creates a builder over store using embedder for cache misses.
func NewBuilder(store *Store, embedder embedding.Embedder, opts ...BuilderOption) *Builder {
	b := &Builder{
		store:     store,
		embedder:  embedder,
		indexType: string(vector.IndexTypeMemory),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = utils.OrNop(b.logger)
	return b
}

// Key returns the cache key for c under this builder's model and index type.
func (b *Builder) Key(c *corpus.Corpus) Key {
	return Key{
		Fingerprint: c.Fingerprint(),
		Model:       embedding.Identity(b.embedder),
		Passages:    c.Len(),
		Dimensions:  b.embedder.Dimensions(),
		IndexType:   b.indexType,
	}
}

// BuildOrLoad returns the artifacts for c and whether they came from the cache. A cache hit never
// calls the embedder. On a miss every passage is embedded, the index is built, and all three
// artifacts are committed together; if embedding fails nothing is written.
func (b *Builder) BuildOrLoad(ctx context.Context, c *corpus.Corpus) (*Bundle, bool, error) {
	key := b.Key(c)

	bundle, err := b.store.Load(ctx, key)
	switch {
	case err == nil:
		if !slices.Equal(bundle.IDs, c.IDs) {
			_ = bundle.Close()
			return nil, false, fmt.Errorf("%w: stored id map does not match corpus", models.ErrCacheInconsistency)
		}
		b.logger.Info("artifact cache hit",
			zap.String("generation", bundle.Manifest.Generation),
			zap.String("fingerprint", key.Fingerprint),
			zap.Int("passages", key.Passages))
		return bundle, true, nil
	case errors.Is(err, ErrCacheMiss):
		b.logger.Info("artifact cache miss, building",
			zap.String("reason", err.Error()),
			zap.String("fingerprint", key.Fingerprint),
			zap.Int("passages", key.Passages))
	default:
		return nil, false, err
	}

	bundle, err = b.build(ctx, c, key)
	if err != nil {
		return nil, false, err
	}
	return bundle, false, nil
}

func (b *Builder) build(ctx context.Context, c *corpus.Corpus, key Key) (*Bundle, error) {
	start := time.Now()
	vectors, err := embedding.EmbedAll(ctx, b.embedder, c.Passages, b.batch)
	if err != nil {
		return nil, err
	}
	b.logger.Debug("corpus embedded", zap.Int("passages", len(vectors)), zap.Duration("elapsed", time.Since(start)))

	matrix, err := NewMatrix(key.Dimensions, vectors)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrEmbeddingFailure, err)
	}
	idx, err := vector.Build(ctx, key.IndexType, key.Dimensions, matrix.Rows)
	if err != nil {
		return nil, fmt.Errorf("build vector index: %w", err)
	}

	bundle := &Bundle{
		Manifest: Manifest{
			Fingerprint: key.Fingerprint,
			Model:       key.Model,
			CreatedAt:   time.Now().UTC(),
		},
		Matrix: matrix,
		IDs:    slices.Clone(c.IDs),
		Index:  idx,
	}
	if err := b.store.Commit(ctx, bundle); err != nil {
		_ = idx.Close()
		return nil, fmt.Errorf("persist artifacts: %w", err)
	}
	b.logger.Info("artifacts built",
		zap.String("generation", bundle.Manifest.Generation),
		zap.String("index_type", idx.Type()),
		zap.Duration("elapsed", time.Since(start)))
	return bundle, nil
}

// Status returns the manifest of the committed generation, or an error wrapping ErrCacheMiss
// when nothing has been built yet.
func (b *Builder) Status(ctx context.Context) (*Manifest, error) {
	return b.store.Manifest(ctx)
}
