package ports

import (
	"context"

	"pathexplorer/domain/run"
)

// RunRegistry records dashboard-generation runs for provenance: which
// contrast was rendered, with what seed and thresholds, and where the
// output landed. Registry failures never abort a pipeline run.
type RunRegistry interface {
	// Record persists a finished (done or failed) run.
	Record(ctx context.Context, r *run.Run) error

	// History returns the most recent runs, newest first.
	History(ctx context.Context, limit int) ([]*run.Run, error)

	// Close releases the underlying store.
	Close() error
}
