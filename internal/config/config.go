// Package config provides configuration loading and structs for ragbench.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override API keys so they do not have to live in the config file.
const (
	EnvEmbeddingAPIKey  = "RAGBENCH_EMBEDDING_API_KEY"
	EnvGenerationAPIKey = "RAGBENCH_GENERATION_API_KEY"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Storage    StorageConfig    `yaml:"storage"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Vector     VectorConfig     `yaml:"vector"`
	Eval       EvalConfig       `yaml:"eval"`
}

// StorageConfig holds paths for the artifact cache, results database and metrics output.
type StorageConfig struct {
	CacheDir      string `yaml:"cache_dir"`
	ResultsDBPath string `yaml:"results_db_path"`
	MetricsPath   string `yaml:"metrics_path"`
}

// EmbeddingConfig selects and configures the embedding model.
type EmbeddingConfig struct {
	Provider          string `yaml:"provider"` // onnx, openai or mock
	ModelPath         string `yaml:"model_path"`
	TokenizerPath     string `yaml:"tokenizer_path"` // defaults to tokenizer.json next to model_path
	Model             string `yaml:"model"`
	BaseURL           string `yaml:"base_url"`
	APIKey            string `yaml:"api_key"`
	Dimensions        int    `yaml:"dimensions"`
	MaxTokens         int    `yaml:"max_tokens"`
	CacheSize         int    `yaml:"cache_size"`
	BatchSize         int    `yaml:"batch_size"`
	Workers           int    `yaml:"workers"`
	AllowMockFallback bool   `yaml:"allow_mock_fallback"`
}

// GenerationConfig selects and configures the answer generation model.
type GenerationConfig struct {
	Provider  string        `yaml:"provider"` // openai or echo
	Model     string        `yaml:"model"`
	BaseURL   string        `yaml:"base_url"`
	APIKey    string        `yaml:"api_key"`
	MaxTokens int           `yaml:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout"`
}

// VectorConfig selects the nearest-neighbor index implementation.
type VectorConfig struct {
	IndexType string `yaml:"index_type"` // memory or faiss
}

// EvalConfig holds evaluation loop settings. DatasetLimit truncates the dataset before the corpus
// is built; Limit only bounds how many of the loaded examples are evaluated. Zero means all.
type EvalConfig struct {
	DatasetPath  string `yaml:"dataset_path"`
	DatasetLimit int    `yaml:"dataset_limit"`
	TopK         int    `yaml:"top_k"`
	Workers      int    `yaml:"workers"`
	Limit        int    `yaml:"limit"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	applyEnv(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.CacheDir = expandPath(cfg.Storage.CacheDir, configDir)
	cfg.Storage.ResultsDBPath = expandPath(cfg.Storage.ResultsDBPath, configDir)
	if cfg.Storage.MetricsPath != "" {
		cfg.Storage.MetricsPath = expandPath(cfg.Storage.MetricsPath, configDir)
	}
	if cfg.Embedding.ModelPath != "" {
		cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	}
	if cfg.Embedding.TokenizerPath != "" {
		cfg.Embedding.TokenizerPath = expandPath(cfg.Embedding.TokenizerPath, configDir)
	}
	if cfg.Eval.DatasetPath != "" {
		cfg.Eval.DatasetPath = expandPath(cfg.Eval.DatasetPath, configDir)
	}

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvEmbeddingAPIKey); v != "" {
		cfg.Embedding.APIKey = v
	}
	if v := os.Getenv(EnvGenerationAPIKey); v != "" {
		cfg.Generation.APIKey = v
	}
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
