package run

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRun(t *testing.T) {
	r := NewRun("KO_vs_WT", 42, "force")

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, StageLoading, r.Stage)
	assert.Equal(t, StatusRunning, r.Status)
	assert.False(t, r.StartedAt.IsZero())
	assert.True(t, r.FinishedAt.IsZero())
}

func TestRun_Complete(t *testing.T) {
	r := NewRun("KO_vs_WT", 42, "force")
	r.Advance(StageFiltering)
	r.Advance(StageEmbedding)
	r.Advance(StageRendering)
	r.Complete("out.html")

	assert.Equal(t, StatusDone, r.Status)
	assert.Equal(t, "out.html", r.OutputPath)
	assert.False(t, r.FinishedAt.IsZero())
	assert.GreaterOrEqual(t, r.Duration().Nanoseconds(), int64(0))
}

func TestRun_FailRecordsStage(t *testing.T) {
	r := NewRun("KO_vs_WT", 42, "force")
	r.Advance(StageEmbedding)

	cause := errors.New("matrix degenerate")
	err := r.Fail(cause)

	require.Error(t, err)
	assert.Equal(t, StatusFailed, r.Status)
	assert.True(t, errors.Is(err, cause), "the original cause stays unwrappable")
	assert.Contains(t, err.Error(), "stage embedding")
	assert.Equal(t, err, r.Err)
}

func TestRun_DistinctIDs(t *testing.T) {
	a := NewRun("x", 1, "force")
	b := NewRun("x", 1, "force")
	assert.NotEqual(t, a.ID, b.ID)
}
