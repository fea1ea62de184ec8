package graph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_RunIsSerializedPerTask(t *testing.T) {
	r := NewRegistry()
	assert.True(t, r.TryStartRun("t1"))
	assert.False(t, r.TryStartRun("t1"), "a second run must not start while one is in flight")

	r.FinishRun("t1")
	assert.True(t, r.TryStartRun("t1"), "run slot must be reusable once freed")
}

func TestRegistry_ResumeIsIdempotentWhileInFlight(t *testing.T) {
	r := NewRegistry()
	assert.True(t, r.TryStartResume("t1"))
	assert.True(t, r.IsResuming("t1"))
	assert.False(t, r.TryStartResume("t1"))

	r.FinishResume("t1")
	assert.False(t, r.IsResuming("t1"))
}

func TestRegistry_RunAndResumeAreIndependentSlots(t *testing.T) {
	r := NewRegistry()
	assert.True(t, r.TryStartRun("t1"))
	assert.True(t, r.TryStartResume("t1"), "resume slot is independent of the run slot")
}

func TestRegistry_PrunesOnlyIdleCompletedTasks(t *testing.T) {
	r := NewRegistry()
	r.TryStartRun("idle")
	r.FinishRun("idle")

	r.TryStartRun("busy")
	r.TryStartRun("missing-finish") // never finished, must not be pruned

	time.Sleep(5 * time.Millisecond)
	pruned := r.Prune(time.Millisecond)

	assert.Equal(t, 1, pruned)
	assert.Equal(t, 2, r.Size())
}
