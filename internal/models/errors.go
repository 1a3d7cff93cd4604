package models

import "errors"

// Error taxonomy shared by the builder, retrieval, generation and evaluation layers.
// Wrap with fmt.Errorf("...: %w", ErrX) and test with errors.Is.
var (
	// ErrCacheInconsistency means persisted artifacts exist but disagree with each other.
	ErrCacheInconsistency = errors.New("cache inconsistency")
	// ErrEmbeddingFailure means the embedding model failed while embedding the corpus.
	ErrEmbeddingFailure = errors.New("embedding failure")
	// ErrInvalidArgument covers k <= 0, empty questions and dimension mismatches.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrEmptyIndex is returned when querying an index that holds no vectors.
	ErrEmptyIndex = errors.New("empty index")
	// ErrGenerationFailure is a per-example generation error (including timeouts).
	ErrGenerationFailure = errors.New("generation failure")
	// ErrEmptyInput is returned when aggregating zero score records.
	ErrEmptyInput = errors.New("empty input")
)
