package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobengine/internal/job"
	"jobengine/internal/policy"
	memstore "jobengine/internal/store/memory"
	memtransport "jobengine/internal/transport/memory"
)

func newTestEngine(t *testing.T) (*Engine, *memstore.Store, *memtransport.Transport) {
	t.Helper()
	s := memstore.New()
	tr := memtransport.New()
	e := New(s, tr, Config{TickInterval: time.Millisecond, ClaimBatch: 100})
	return e, s, tr
}

func TestEngine_Tick_DispatchesFCFSInArrivalOrder(t *testing.T) {
	e, s, tr := newTestEngine(t)
	ctx := context.Background()

	a, _ := s.Create(ctx, job.Spec{Name: "a", JobType: "sleep"})
	b, _ := s.Create(ctx, job.Spec{Name: "b", JobType: "sleep"})
	c, _ := s.Create(ctx, job.Spec{Name: "c", JobType: "sleep"})

	require.NoError(t, e.Tick(ctx))

	for _, want := range []string{a.ID, b.ID, c.ID} {
		got, err := tr.BlockPop(ctx, time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, want, got)

		j, _ := s.Get(ctx, want)
		assert.Equal(t, job.StatusScheduled, j.Status)
	}
}

func TestEngine_PolicySwitch_PreservesHeldJobs(t *testing.T) {
	e, s, tr := newTestEngine(t)
	ctx := context.Background()

	high, _ := s.Create(ctx, job.Spec{Name: "high-prio", JobType: "sleep", Priority: 9})
	low, _ := s.Create(ctx, job.Spec{Name: "low-prio", JobType: "sleep", Priority: 1})
	require.NoError(t, e.claimNewlyPending(ctx)) // now held in the FCFS policy

	require.NoError(t, tr.SetPolicy(ctx, policy.Priority))
	require.NoError(t, e.Tick(ctx))

	first, err := tr.BlockPop(ctx, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, low.ID, first, "priority policy must dispatch the lower priority value first")

	second, err := tr.BlockPop(ctx, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, high.ID, second)
}

func TestEngine_Dispatch_DropsCanceledJobSilently(t *testing.T) {
	e, s, tr := newTestEngine(t)
	ctx := context.Background()

	j, _ := s.Create(ctx, job.Spec{Name: "a", JobType: "sleep"})
	require.NoError(t, e.claimNewlyPending(ctx)) // now held in P

	require.NoError(t, s.Delete(ctx, j.ID)) // canceled out from under the Engine

	require.NoError(t, e.dispatch(ctx))

	depth, _ := tr.Depth(ctx)
	assert.Equal(t, int64(0), depth)
}
