package retrieval

import (
	"fmt"

	"github.com/hyperjump/ragbench/internal/corpus"
	"github.com/hyperjump/ragbench/internal/models"
)

// ProcessQuestion validates a question and k and returns the question preprocessed exactly as
// corpus passages are.
func ProcessQuestion(question string, k int) (string, error) {
	if k <= 0 {
		return "", fmt.Errorf("k must be positive, got %d: %w", k, models.ErrInvalidArgument)
	}
	q := corpus.Preprocess(question)
	if q == "" {
		return "", fmt.Errorf("question is empty: %w", models.ErrInvalidArgument)
	}
	return q, nil
}
