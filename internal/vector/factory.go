package vector

import (
	"context"
	"fmt"
)

// IndexType represents the type of vector index to use.
type IndexType string

const (
	// IndexTypeMemory uses in-memory brute-force search. Good for a few hundred thousand passages.
	IndexTypeMemory IndexType = "memory"
	// IndexTypeFAISS uses FAISS IndexFlatL2. Requires the FAISS C library and build tag -tags=faiss.
	IndexTypeFAISS IndexType = "faiss"
)

// NewIndex creates an empty vector index of the specified type.
// Supported types: "memory" (default), "faiss".
func NewIndex(indexType string, dimensions int) (Index, error) {
	switch IndexType(indexType) {
	case IndexTypeMemory, "":
		idx, err := NewMemoryIndex(dimensions)
		if err != nil {
			return nil, err
		}
		return idx, nil
	case IndexTypeFAISS:
		idx, err := NewFAISSIndex(dimensions)
		if err != nil {
			return nil, err
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("unknown index type: %s (supported: memory, faiss)", indexType)
	}
}

// Build creates an index of the given type and adds every row of vectors in order.
func Build(ctx context.Context, indexType string, dimensions int, vectors [][]float32) (Index, error) {
	idx, err := NewIndex(indexType, dimensions)
	if err != nil {
		return nil, err
	}
	if err := idx.Add(ctx, vectors); err != nil {
		_ = idx.Close()
		return nil, fmt.Errorf("add vectors: %w", err)
	}
	return idx, nil
}

// IsFAISSAvailable returns true if FAISS support is compiled in.
// This is determined by the build tag -tags=faiss.
func IsFAISSAvailable() bool {
	idx, err := NewFAISSIndex(1)
	if err != nil {
		return false
	}
	_ = idx.Close()
	return true
}

func validateQuery(query []float32, k, dimensions, size int) error {
	if k <= 0 {
		return fmt.Errorf("k must be positive, got %d: %w", k, ErrInvalidArgument)
	}
	if len(query) != dimensions {
		return fmt.Errorf("query dimension mismatch: got %d, expected %d: %w", len(query), dimensions, ErrInvalidArgument)
	}
	if size == 0 {
		return ErrEmptyIndex
	}
	return nil
}
