// Package dataset loads HotpotQA-style question sets.
package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"

	"github.com/hyperjump/ragbench/internal/models"
)

// Provider yields the examples of one dataset in a stable order. ExampleID is each example's
// position in that order.
type Provider interface {
	Name() string
	Load(ctx context.Context) ([]models.QAExample, error)
}

// HotpotFile reads a HotpotQA JSON file (a single top-level array of examples).
// Limit > 0 keeps only the first Limit examples.
type HotpotFile struct {
	Path  string
	Limit int
}

// Name returns the base name of the file.
func (h *HotpotFile) Name() string {
	return filepath.Base(h.Path)
}

// Load decodes the file and assigns example ids.
func (h *HotpotFile) Load(ctx context.Context) ([]models.QAExample, error) {
	data, err := os.ReadFile(h.Path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	examples, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", h.Name(), err)
	}
	if h.Limit > 0 && len(examples) > h.Limit {
		examples = examples[:h.Limit]
	}
	return examples, nil
}

// Decode parses a JSON array of HotpotQA examples and assigns ExampleID by position.
func Decode(data []byte) ([]models.QAExample, error) {
	var examples []models.QAExample
	if err := sonic.ConfigStd.Unmarshal(data, &examples); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	for i := range examples {
		examples[i].ExampleID = i
	}
	return examples, nil
}

// Slice serves examples already in memory.
type Slice struct {
	Label    string
	Examples []models.QAExample
}

// Name returns the label.
func (s *Slice) Name() string {
	return s.Label
}

// Load returns a copy of the examples with ids reassigned by position.
func (s *Slice) Load(ctx context.Context) ([]models.QAExample, error) {
	out := make([]models.QAExample, len(s.Examples))
	copy(out, s.Examples)
	for i := range out {
		out[i].ExampleID = i
	}
	return out, nil
}
