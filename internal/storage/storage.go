// Package storage persists evaluation runs and their per-example outcomes.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/ragbench/internal/models"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

// ResultStore defines run and outcome persistence operations.
type ResultStore interface {
	// Run operations
	CreateRun(ctx context.Context, run *models.RunInfo) error
	FinishRun(ctx context.Context, run *models.RunInfo) error
	GetRun(ctx context.Context, id string) (*models.RunInfo, error)
	ListRuns(ctx context.Context, limit int) ([]*models.RunInfo, error)
	DeleteRun(ctx context.Context, id string) error

	// Outcome operations
	SaveOutcome(ctx context.Context, runID string, outcome *models.ExampleOutcome) error
	ListOutcomes(ctx context.Context, runID string) ([]*models.ExampleOutcome, error)

	// Stats
	CountRuns(ctx context.Context) (int64, error)

	Close() error
}
