package embedding

import (
	"context"
	"fmt"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedEmbedder wraps an Embedder with an LRU cache for Embed. Questions, predictions and gold
// answers repeat across runs; corpus batches go through EmbedBatch, which is not cached.
type CachedEmbedder struct {
	Embedder
	cache    *lru.Cache[string, []float32]
	onLookup func(hit bool)
}

// CacheOption configures a CachedEmbedder.
type CacheOption func(*CachedEmbedder)

// WithLookupObserver registers fn to be called after every cache lookup.
func WithLookupObserver(fn func(hit bool)) CacheOption {
	return func(c *CachedEmbedder) {
		c.onLookup = fn
	}
}

// NewCachedEmbedder wraps inner with a cache holding up to size embeddings.
func NewCachedEmbedder(inner Embedder, size int, opts ...CacheOption) (*CachedEmbedder, error) {
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	c := &CachedEmbedder{Embedder: inner, cache: cache}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Embed returns the cached embedding for text or computes and stores it.
// The returned slice is a copy and may be modified by the caller.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := c.cache.Get(text); ok {
		c.observe(true)
		return slices.Clone(v), nil
	}
	c.observe(false)
	v, err := c.Embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(text, slices.Clone(v))
	return v, nil
}

// Len returns the number of cached embeddings.
func (c *CachedEmbedder) Len() int {
	return c.cache.Len()
}

// Identity delegates to the wrapped embedder.
func (c *CachedEmbedder) Identity() string {
	return Identity(c.Embedder)
}

func (c *CachedEmbedder) observe(hit bool) {
	if c.onLookup != nil {
		c.onLookup(hit)
	}
}
