package models

import "time"

// RunInfo describes one evaluation run as persisted by the results store.
// FinishedAt is zero while the run is in progress or if it aborted.
type RunInfo struct {
	ID          string           `json:"id"`
	StartedAt   time.Time        `json:"started_at"`
	FinishedAt  time.Time        `json:"finished_at,omitempty"`
	Dataset     string           `json:"dataset"`
	Fingerprint string           `json:"fingerprint"`
	TopK        int              `json:"top_k"`
	Report      EvaluationReport `json:"report"`
}

// Finished reports whether the run completed.
func (r *RunInfo) Finished() bool {
	return !r.FinishedAt.IsZero()
}
