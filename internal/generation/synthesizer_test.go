package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/ragbench/internal/models"
)

type fakeGenerator struct {
	output    string
	err       error
	block     bool
	prompt    string
	maxTokens int
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	f.prompt = prompt
	f.maxTokens = maxTokens
	if f.block {
		// Ignores ctx on purpose to check the synthesizer still returns.
		time.Sleep(time.Second)
	}
	return f.output, f.err
}

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt("Who built it?", []string{"First passage.", "Second passage."})
	assert.Equal(t, "question: Who built it? context: First passage. Second passage.", got)
	assert.Equal(t, "question: q context: ", BuildPrompt("q", nil))
}

func TestStripControlTokens(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"<pad> Paris</s>", "Paris"},
		{"<s>the answer</s>", "the answer"},
		{"<|im_start|>assistant Gustave Eiffel<|im_end|>", "assistant Gustave Eiffel"},
		{"<extra_id_0> 1889 <unk>", "1889"},
		{"  plain   text  ", "plain text"},
		{"a <b> tag", "a <b> tag"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripControlTokens(tt.in), "input %q", tt.in)
	}
}

func TestSynthesize(t *testing.T) {
	gen := &fakeGenerator{output: "<pad> Paris </s>"}
	s := NewSynthesizer(gen, 32, time.Second)

	answer, err := s.Synthesize(context.Background(), "Where is it?", []string{"p1", "p2"})
	require.NoError(t, err)
	assert.Equal(t, "Paris", answer)
	assert.Equal(t, 32, gen.maxTokens)
	assert.Equal(t, "question: Where is it? context: p1 p2", gen.prompt)
}

func TestSynthesize_DefaultBudget(t *testing.T) {
	gen := &fakeGenerator{output: "x"}
	s := NewSynthesizer(gen, 0, 0)
	_, err := s.Synthesize(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxTokens, gen.maxTokens)
	assert.Equal(t, DefaultMaxTokens, s.MaxTokens())
}

func TestSynthesize_GeneratorError(t *testing.T) {
	boom := errors.New("boom")
	s := NewSynthesizer(&fakeGenerator{err: boom}, 8, time.Second)
	_, err := s.Synthesize(context.Background(), "q", []string{"p"})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrGenerationFailure)
	assert.ErrorIs(t, err, boom)
}

func TestSynthesize_TimeoutIsGenerationFailure(t *testing.T) {
	s := NewSynthesizer(&fakeGenerator{block: true, output: "late"}, 8, 20*time.Millisecond)
	start := time.Now()
	_, err := s.Synthesize(context.Background(), "q", []string{"p"})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrGenerationFailure)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestEchoGenerator(t *testing.T) {
	ctx := context.Background()
	got, err := EchoGenerator{}.Generate(ctx, BuildPrompt("q", []string{"Paris is the capital. It is big."}), 64)
	require.NoError(t, err)
	assert.Equal(t, "Paris is the capital", got)

	got, _ = EchoGenerator{}.Generate(ctx, BuildPrompt("q", []string{"one two three four"}), 2)
	assert.Equal(t, "one two", got)

	got, _ = EchoGenerator{}.Generate(ctx, "no marker here", 4)
	assert.Empty(t, got)
}
