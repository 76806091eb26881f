package run

import (
	"fmt"
	"time"

	"pathexplorer/domain/core"
)

// Stage identifies one step of the dashboard-generation pipeline.
type Stage string

const (
	StageLoading     Stage = "loading"
	StageFiltering   Stage = "filtering"
	StageEmbedding   Stage = "embedding"
	StageAggregating Stage = "aggregating"
	StageRendering   Stage = "rendering"
)

// Status is the terminal state of a run.
type Status string

const (
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Run tracks one dashboard-generation execution through the stage machine
// Loading -> Filtering -> (Aggregating) -> Embedding -> Rendering -> Done.
// Aggregating only occurs in the combined view, and precedes Embedding
// because the union must be projected as one coordinate space.
// No stage is retried; any failure records the originating stage and cause.
type Run struct {
	ID          core.RunID
	Contrast    string // "All" for the combined view
	Seed        int64
	Method      string
	Stage       Stage
	Status      Status
	RecordCount int
	HitCount    int
	OutputPath  string
	Err         error
	StartedAt   time.Time
	FinishedAt  time.Time
}

// NewRun starts a run in the loading stage.
func NewRun(contrast string, seed int64, method string) *Run {
	return &Run{
		ID:        core.NewRunID(),
		Contrast:  contrast,
		Seed:      seed,
		Method:    method,
		Stage:     StageLoading,
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
	}
}

// Advance moves the run to the next stage.
func (r *Run) Advance(stage Stage) {
	r.Stage = stage
}

// Fail marks the run failed at its current stage, wrapping the cause so
// user-visible failures always carry which stage failed and why.
func (r *Run) Fail(err error) error {
	r.Status = StatusFailed
	r.FinishedAt = time.Now().UTC()
	r.Err = fmt.Errorf("stage %s: %w", r.Stage, err)
	return r.Err
}

// Complete marks the run done with its written output path.
func (r *Run) Complete(outputPath string) {
	r.Status = StatusDone
	r.OutputPath = outputPath
	r.FinishedAt = time.Now().UTC()
}

// Duration reports wall time for finished runs.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
