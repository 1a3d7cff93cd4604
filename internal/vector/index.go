// Package vector provides exact nearest-neighbor indices over dense embeddings.
package vector

import (
	"context"

	"github.com/hyperjump/ragbench/internal/models"
)

// Errors returned by every Index implementation.
var (
	ErrInvalidArgument = models.ErrInvalidArgument
	ErrEmptyIndex      = models.ErrEmptyIndex
)

// Index stores vectors by position and answers top-k queries by squared Euclidean distance.
// Row i of the index is the i-th vector ever added, which is the passage's global index.
// An Index is safe for concurrent Search calls.
type Index interface {
	Add(ctx context.Context, vectors [][]float32) error
	// Search returns min(k, Size()) neighbors ordered by non-decreasing distance.
	// Ties keep row order.
	Search(ctx context.Context, query []float32, k int) ([]models.Neighbor, error)
	Save(path string) error
	Load(path string) error
	Size() int
	Dimensions() int
	Type() string
	Close() error
}
