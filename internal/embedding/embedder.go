// Package embedding provides text embedding via ONNX, OpenAI-compatible servers and caching.
package embedding

import "context"

// Embedder produces vector embeddings for text. EmbedBatch returns one vector per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
