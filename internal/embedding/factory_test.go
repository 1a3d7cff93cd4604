package embedding

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/ragbench/internal/config"
)

func TestNew_Mock(t *testing.T) {
	e, err := New(config.EmbeddingConfig{Provider: ProviderMock, Dimensions: 16}, Options{})
	require.NoError(t, err)
	defer e.Close()
	assert.IsType(t, &MockEmbedder{}, e)
	assert.Equal(t, 16, e.Dimensions())
}

func TestNew_WrapsCache(t *testing.T) {
	var lookups int
	e, err := New(config.EmbeddingConfig{Provider: ProviderMock, Dimensions: 8, CacheSize: 10}, Options{
		CacheObserver: func(bool) { lookups++ },
	})
	require.NoError(t, err)
	c, ok := e.(*CachedEmbedder)
	require.True(t, ok, "expected *CachedEmbedder, got %T", e)
	_, _ = c.Embed(context.Background(), "question")
	assert.Equal(t, 1, lookups)
	assert.Equal(t, "mock/8", Identity(e))
}

func TestNew_ONNXMissingModel(t *testing.T) {
	cfg := config.EmbeddingConfig{
		Provider:   ProviderONNX,
		ModelPath:  filepath.Join(t.TempDir(), "missing.onnx"),
		Dimensions: 8,
	}
	_, err := New(cfg, Options{})
	assert.Error(t, err, "expected error without allow_mock_fallback")

	cfg.AllowMockFallback = true
	e, err := New(cfg, Options{})
	require.NoError(t, err)
	assert.IsType(t, &MockEmbedder{}, e)
}

func TestTokenizerPath(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.EmbeddingConfig
		want string
	}{
		{"next to model", config.EmbeddingConfig{ModelPath: "/models/e5/model.onnx"}, "/models/e5/tokenizer.json"},
		{"explicit", config.EmbeddingConfig{ModelPath: "/models/e5/model.onnx", TokenizerPath: "/vocab/tok.json"}, "/vocab/tok.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, filepath.FromSlash(tt.want), TokenizerPath(tt.cfg))
		})
	}
}

func TestNew_OpenAIRequiresCredentials(t *testing.T) {
	_, err := New(config.EmbeddingConfig{Provider: ProviderOpenAI, Model: "e5", Dimensions: 8}, Options{})
	assert.Error(t, err, "expected error without api key or base url")
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(config.EmbeddingConfig{Provider: "word2vec", Dimensions: 8}, Options{})
	assert.Error(t, err)
}
