package embedding

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hyperjump/ragbench/internal/config"
	"github.com/hyperjump/ragbench/pkg/utils"
)

// Provider names accepted in embedding.provider.
const (
	ProviderONNX   = "onnx"
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// Options configures New.
type Options struct {
	Logger *zap.Logger
	// CacheObserver is passed to the query cache when cache_size is positive.
	CacheObserver func(hit bool)
}

// New builds the configured embedder, wrapped in a CachedEmbedder when cache_size is positive.
// An ONNX runtime that cannot be loaded falls back to MockEmbedder only when
// allow_mock_fallback is set; the fallback is logged as a warning.
func New(cfg config.EmbeddingConfig, opts Options) (Embedder, error) {
	logger := utils.OrNop(opts.Logger)

	var base Embedder
	switch cfg.Provider {
	case ProviderONNX, "":
		onnxEmbedder, err := NewONNXEmbedder(cfg.ModelPath, TokenizerPath(cfg), cfg.Dimensions, cfg.MaxTokens)
		if err != nil {
			if !cfg.AllowMockFallback {
				return nil, fmt.Errorf("onnx embedder: %w", err)
			}
			logger.Warn("ONNX embedder unavailable, using mock embedder", zap.Error(err))
			base = NewMockEmbedder(cfg.Dimensions)
		} else {
			base = onnxEmbedder
		}
	case ProviderOpenAI:
		openaiEmbedder, err := NewOpenAIEmbedder(OpenAIConfig{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		})
		if err != nil {
			return nil, err
		}
		base = openaiEmbedder
	case ProviderMock:
		base = NewMockEmbedder(cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: onnx, openai, mock)", cfg.Provider)
	}
	logger.Debug("embedder ready", zap.String("identity", Identity(base)), zap.Int("dimensions", base.Dimensions()))

	if cfg.CacheSize <= 0 {
		return base, nil
	}
	var cacheOpts []CacheOption
	if opts.CacheObserver != nil {
		cacheOpts = append(cacheOpts, WithLookupObserver(opts.CacheObserver))
	}
	cached, err := NewCachedEmbedder(base, cfg.CacheSize, cacheOpts...)
	if err != nil {
		_ = base.Close()
		return nil, err
	}
	return cached, nil
}

// TokenizerPath returns tokenizer_path, or tokenizer.json next to the model file when unset.
func TokenizerPath(cfg config.EmbeddingConfig) string {
	if cfg.TokenizerPath != "" {
		return cfg.TokenizerPath
	}
	return filepath.Join(filepath.Dir(cfg.ModelPath), "tokenizer.json")
}

// Identity returns a string naming the model behind e. It is recorded with persisted embeddings
// so that switching models invalidates them.
func Identity(e Embedder) string {
	if id, ok := e.(interface{ Identity() string }); ok {
		return id.Identity()
	}
	return fmt.Sprintf("%T/%d", e, e.Dimensions())
}

// Identity names the mock embedder and its width.
func (e *MockEmbedder) Identity() string {
	return fmt.Sprintf("mock/%d", e.dimensions)
}

func checkModelFile(path string) error {
	if path == "" {
		return fmt.Errorf("model path is empty")
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("model file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("model path %s is a directory", filepath.Clean(path))
	}
	return nil
}
