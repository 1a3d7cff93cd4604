package embedding

import (
	"context"
	"fmt"
	"testing"
)

func BenchmarkMockEmbedder_Embed(b *testing.B) {
	e := NewMockEmbedder(384)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.Embed(ctx, "Which river flows through the capital of France?")
	}
}

func BenchmarkEmbedAll(b *testing.B) {
	e := NewMockEmbedder(384)
	texts := make([]string, 1000)
	for i := range texts {
		texts[i] = fmt.Sprintf("passage %d about a river, a city and a country", i)
	}
	ctx := context.Background()
	opts := BatchOptions{BatchSize: 32, Workers: 4}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = EmbedAll(ctx, e, texts, opts)
	}
}
