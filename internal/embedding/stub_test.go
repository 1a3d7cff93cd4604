package embedding

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// stubEmbedder returns [len(text), index-in-batch...] style vectors and counts calls.
type stubEmbedder struct {
	dims       int
	embedCalls atomic.Int64
	batchCalls atomic.Int64
	failOn     string
	shortBatch bool
	badDims    bool
	delay      func(texts []string) time.Duration

	mu   sync.Mutex
	seen []string
}

var errStub = errors.New("stub failure")

func (s *stubEmbedder) vector(text string) []float32 {
	v := make([]float32, s.dims)
	v[0] = float32(len(text))
	return v
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	s.embedCalls.Add(1)
	if text == s.failOn {
		return nil, errStub
	}
	return s.vector(text), nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	s.batchCalls.Add(1)
	if s.delay != nil {
		select {
		case <-time.After(s.delay(texts)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	s.mu.Lock()
	s.seen = append(s.seen, texts...)
	s.mu.Unlock()
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		if text == s.failOn {
			return nil, errStub
		}
		v := s.vector(text)
		if s.badDims {
			v = v[:1]
		}
		out = append(out, v)
	}
	if s.shortBatch {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (s *stubEmbedder) Dimensions() int { return s.dims }
func (s *stubEmbedder) Close() error    { return nil }
