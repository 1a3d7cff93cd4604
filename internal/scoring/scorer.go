package scoring

import (
	"context"
	"fmt"

	"github.com/hyperjump/ragbench/internal/corpus"
	"github.com/hyperjump/ragbench/internal/embedding"
	"github.com/hyperjump/ragbench/internal/models"
)

// Scorer computes the four metrics for one example. Semantic similarity uses the same embedder
// as retrieval.
type Scorer struct {
	embedder embedding.Embedder
}

// NewScorer creates a scorer.
func NewScorer(embedder embedding.Embedder) *Scorer {
	return &Scorer{embedder: embedder}
}

// Score returns the ScoreRecord for prediction against example. Only embedding errors fail.
func (s *Scorer) Score(ctx context.Context, example *models.QAExample, prediction string, retrieval *models.RetrievalResult) (*models.ScoreRecord, error) {
	semantic, err := s.SemanticSimilarity(ctx, prediction, example.Answer)
	if err != nil {
		return nil, err
	}
	return &models.ScoreRecord{
		ExampleID:           example.ExampleID,
		F1:                  LexicalF1(prediction, example.Answer),
		SemanticSimilarity:  semantic,
		RougeL:              RougeL(prediction, example.Answer),
		SupportingFactMatch: SupportingFactMatch(example, retrieval),
	}, nil
}

// SemanticSimilarity embeds both texts and returns their cosine similarity. An empty text has no
// meaningful embedding and gives 0 without calling the embedder.
func (s *Scorer) SemanticSimilarity(ctx context.Context, prediction, gold string) (float64, error) {
	p := corpus.Preprocess(prediction)
	g := corpus.Preprocess(gold)
	if p == "" || g == "" {
		return 0, nil
	}
	pv, err := s.embedder.Embed(ctx, p)
	if err != nil {
		return 0, fmt.Errorf("embed prediction: %w", err)
	}
	gv, err := s.embedder.Embed(ctx, g)
	if err != nil {
		return 0, fmt.Errorf("embed gold answer: %w", err)
	}
	return CosineSimilarity(pv, gv), nil
}
