// Package retrieval answers top-k passage queries against the built vector index.
package retrieval

import (
	"context"
	"fmt"

	"github.com/hyperjump/ragbench/internal/corpus"
	"github.com/hyperjump/ragbench/internal/embedding"
	"github.com/hyperjump/ragbench/internal/models"
	"github.com/hyperjump/ragbench/internal/vector"
)

// Engine embeds questions and resolves nearest passages back to their ids and texts.
// It is safe for concurrent use once constructed; the index is never modified.
type Engine struct {
	embedder embedding.Embedder
	index    vector.Index
	corpus   *corpus.Corpus
}

// NewEngine creates a retrieval engine. The index must hold exactly one row per corpus passage.
func NewEngine(embedder embedding.Embedder, index vector.Index, c *corpus.Corpus) (*Engine, error) {
	if index.Size() != c.Len() {
		return nil, fmt.Errorf("%w: index has %d vectors for %d passages", models.ErrCacheInconsistency, index.Size(), c.Len())
	}
	if index.Dimensions() != embedder.Dimensions() {
		return nil, fmt.Errorf("%w: index dimension %d, embedder dimension %d", models.ErrCacheInconsistency, index.Dimensions(), embedder.Dimensions())
	}
	return &Engine{embedder: embedder, index: index, corpus: c}, nil
}

// Retrieve returns the min(k, corpus size) passages nearest to question, ordered by
// non-decreasing distance as reported by the index.
func (e *Engine) Retrieve(ctx context.Context, question string, k int) (*models.RetrievalResult, error) {
	q, err := ProcessQuestion(question, k)
	if err != nil {
		return nil, err
	}
	queryEmbedding, err := e.embedder.Embed(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	neighbors, err := e.index.Search(ctx, queryEmbedding, k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	result := &models.RetrievalResult{
		Question:            question,
		RankedGlobalIndices: make([]int, 0, len(neighbors)),
		Distances:           make([]float32, 0, len(neighbors)),
		PassageIDs:          make([]models.PassageID, 0, len(neighbors)),
		PassageTexts:        make([]string, 0, len(neighbors)),
	}
	for _, n := range neighbors {
		if n.GlobalIndex < 0 || n.GlobalIndex >= e.corpus.Len() {
			return nil, fmt.Errorf("%w: index returned row %d of %d", models.ErrCacheInconsistency, n.GlobalIndex, e.corpus.Len())
		}
		result.RankedGlobalIndices = append(result.RankedGlobalIndices, n.GlobalIndex)
		result.Distances = append(result.Distances, n.Distance)
		result.PassageIDs = append(result.PassageIDs, e.corpus.ID(n.GlobalIndex))
		result.PassageTexts = append(result.PassageTexts, e.corpus.Text(n.GlobalIndex))
	}
	return result, nil
}

// Corpus returns the passages the engine retrieves from.
func (e *Engine) Corpus() *corpus.Corpus {
	return e.corpus
}
