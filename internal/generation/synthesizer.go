package generation

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/hyperjump/ragbench/internal/models"
)

const (
	questionMarker = "question: "
	contextMarker  = "context: "
)

// DefaultMaxTokens bounds generated answers when no budget is configured.
const DefaultMaxTokens = 64

// controlTokens matches tokenizer specials that some servers leave in decoded text:
// T5/Llama <pad>, <s>, </s>, <unk>, T5 sentinels <extra_id_N>, and <|...|> chat markers.
var controlTokens = regexp.MustCompile(`</?s>|<pad>|<unk>|<extra_id_\d+>|<\|[^|<>]*\|>`)

// Synthesizer builds prompts and obtains bounded, cleaned answers from a Generator.
type Synthesizer struct {
	gen       Generator
	maxTokens int
	timeout   time.Duration
}

// NewSynthesizer creates a synthesizer. maxTokens <= 0 uses DefaultMaxTokens; timeout <= 0
// leaves generation bounded only by the caller's context.
func NewSynthesizer(gen Generator, maxTokens int, timeout time.Duration) *Synthesizer {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Synthesizer{gen: gen, maxTokens: maxTokens, timeout: timeout}
}

// BuildPrompt returns "question: <q> context: <p1> <p2> ...", keeping passage order.
func BuildPrompt(question string, passages []string) string {
	var b strings.Builder
	b.WriteString(questionMarker)
	b.WriteString(question)
	b.WriteString(" ")
	b.WriteString(contextMarker)
	b.WriteString(strings.Join(passages, " "))
	return b.String()
}

// StripControlTokens removes model control tokens and collapses surrounding whitespace.
func StripControlTokens(text string) string {
	return strings.Join(strings.Fields(controlTokens.ReplaceAllString(text, " ")), " ")
}

// Synthesize answers question from passages. Any generator error, including the timeout, is
// returned wrapping models.ErrGenerationFailure. The call returns once the timeout expires even
// if the generator does not honor its context.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, passages []string) (string, error) {
	prompt := BuildPrompt(question, passages)
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := s.gen.Generate(ctx, prompt, s.maxTokens)
		done <- result{text: text, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return "", fmt.Errorf("%w: %w", models.ErrGenerationFailure, r.err)
		}
		return StripControlTokens(r.text), nil
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %w", models.ErrGenerationFailure, ctx.Err())
	}
}

// MaxTokens returns the output budget passed to the generator.
func (s *Synthesizer) MaxTokens() int {
	return s.maxTokens
}
