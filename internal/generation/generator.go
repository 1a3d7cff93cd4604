// Package generation turns a question and retrieved passages into an answer using a text
// generation model.
package generation

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/ragbench/internal/config"
	"github.com/hyperjump/ragbench/pkg/utils"
)

// Generator produces text for a prompt. maxTokens bounds the length of the output.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Provider names accepted in generation.provider.
const (
	ProviderOpenAI = "openai"
	ProviderEcho   = "echo"
)

// New builds the configured generator.
func New(cfg config.GenerationConfig, logger *zap.Logger) (Generator, error) {
	logger = utils.OrNop(logger)
	switch cfg.Provider {
	case ProviderOpenAI, "":
		g, err := NewOpenAIGenerator(OpenAIConfig{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, Model: cfg.Model})
		if err != nil {
			return nil, err
		}
		logger.Debug("generator ready", zap.String("provider", ProviderOpenAI), zap.String("model", cfg.Model))
		return g, nil
	case ProviderEcho:
		logger.Debug("generator ready", zap.String("provider", ProviderEcho))
		return EchoGenerator{}, nil
	default:
		return nil, fmt.Errorf("unknown generation provider: %s (supported: openai, echo)", cfg.Provider)
	}
}

// EchoGenerator answers with the first sentence of the prompt's context, cut to maxTokens words.
// It needs no model and is meant for smoke runs of the pipeline.
type EchoGenerator struct{}

// Generate returns the leading sentence after the "context:" marker.
func (EchoGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	_, passages, found := strings.Cut(prompt, contextMarker)
	if !found {
		return "", nil
	}
	passages = strings.TrimSpace(passages)
	if i := strings.IndexAny(passages, ".!?"); i >= 0 {
		passages = passages[:i]
	}
	words := strings.Fields(passages)
	if maxTokens > 0 && len(words) > maxTokens {
		words = words[:maxTokens]
	}
	return strings.Join(words, " "), nil
}
