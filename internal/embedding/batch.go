package embedding

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/ragbench/internal/models"
)

// DefaultBatchSize is used when BatchOptions.BatchSize is not positive.
const DefaultBatchSize = 32

// BatchOptions controls EmbedAll.
type BatchOptions struct {
	BatchSize int
	// Workers bounds the number of batches in flight. Values below 1 mean 1.
	Workers int
	// Progress is called after each batch with the number of texts embedded so far.
	// It may be called from several goroutines at once.
	Progress func(done, total int)
}

// EmbedAll embeds texts in batches and returns one vector per text in input order. Batches run
// concurrently up to opts.Workers; each batch writes into its own slot range, so completion order
// does not affect the result. Any failure cancels the remaining batches and returns an error
// wrapping models.ErrEmbeddingFailure.
func EmbedAll(ctx context.Context, e Embedder, texts []string, opts BatchOptions) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	dims := e.Dimensions()
	if dims <= 0 {
		return nil, fmt.Errorf("%w: embedder reports dimension %d", models.ErrEmbeddingFailure, dims)
	}

	out := make([][]float32, len(texts))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < len(texts); start += batchSize {
		if gctx.Err() != nil {
			break
		}
		start := start
		end := min(start+batchSize, len(texts))
		g.Go(func() error {
			vecs, err := e.EmbedBatch(gctx, texts[start:end])
			if err != nil {
				return fmt.Errorf("%w: batch [%d,%d): %w", models.ErrEmbeddingFailure, start, end, err)
			}
			if len(vecs) != end-start {
				return fmt.Errorf("%w: batch [%d,%d) returned %d vectors", models.ErrEmbeddingFailure, start, end, len(vecs))
			}
			for i, v := range vecs {
				if len(v) != dims {
					return fmt.Errorf("%w: passage %d has dimension %d, expected %d", models.ErrEmbeddingFailure, start+i, len(v), dims)
				}
			}
			copy(out[start:end], vecs)
			n := done.Add(int64(end - start))
			if opts.Progress != nil {
				opts.Progress(int(n), len(texts))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrEmbeddingFailure, err)
	}
	return out, nil
}
