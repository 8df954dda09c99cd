package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitRunning(t *testing.T, e *Engine, h Handle) {
	t.Helper()
	require.Eventually(t, func() bool {
		snap, err := e.Poll(h)
		return err == nil && snap.Status == StatusRunning
	}, 5*time.Second, time.Millisecond)
}

func TestListActiveAndReap(t *testing.T) {
	e := New(Options{Steps: 10})
	defer e.Close()

	long, err := e.Submit(testTarget("long"), testVectors, time.Hour)
	require.NoError(t, err)
	short, err := e.Submit(testTarget("short"), testVectors, 5*time.Millisecond)
	require.NoError(t, err)

	waitRunning(t, e, long)
	waitDone(t, e, short)

	active := e.ListActive()
	require.Len(t, active, 1)
	assert.Equal(t, long.ID(), active[0].ID())

	assert.Equal(t, 2, e.Registry().Len())
	assert.Equal(t, 1, e.Reap(), "only the joined, terminal job is reaped")
	assert.Equal(t, 0, e.Reap(), "reaping is idempotent")

	_, err = e.Lookup(short.ID())
	assert.ErrorIs(t, err, ErrUnknownJob)

	// handles keep working after their job has been reaped
	snap, err := e.Poll(short)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, snap.Status)

	e.Cancel(long)
	waitDone(t, e, long)
	assert.Empty(t, e.ListActive())
	assert.Equal(t, 1, e.Reap())
	assert.Equal(t, 0, e.Registry().Len())
}

func TestUnregister(t *testing.T) {
	e := New(Options{Steps: 10})
	defer e.Close()

	h, err := e.Submit(testTarget("T"), testVectors, time.Hour)
	require.NoError(t, err)

	assert.ErrorIs(t, e.Registry().Unregister(h), ErrJobActive)

	e.Cancel(h)
	waitDone(t, e, h)

	require.NoError(t, e.Registry().Unregister(h))
	assert.ErrorIs(t, e.Registry().Unregister(h), ErrUnknownJob)
	assert.ErrorIs(t, e.Registry().Unregister(Handle{}), ErrUnknownJob)
}

func TestListPreservesSubmissionOrder(t *testing.T) {
	e := New(Options{Steps: 10})
	defer e.Close()

	names := []string{"c", "a", "d", "b"}
	for _, name := range names {
		_, err := e.Submit(testTarget(name), testVectors, time.Hour)
		require.NoError(t, err)
	}

	listed := e.Registry().List()
	require.Len(t, listed, len(names))
	for i, h := range listed {
		snap, err := e.Poll(h)
		require.NoError(t, err)
		assert.Equal(t, names[i], snap.Target.Name)
	}
	e.CancelAll()
}

func TestStartReaperClearsFinishedJobs(t *testing.T) {
	e := New(Options{Steps: 2})
	defer e.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e.StartReaper(ctx, 5*time.Millisecond)

	h, err := e.Submit(testTarget("T"), testVectors, 2*time.Millisecond)
	require.NoError(t, err)
	waitDone(t, e, h)

	assert.Eventually(t, func() bool { return e.Registry().Len() == 0 }, 5*time.Second, 5*time.Millisecond)
}

func TestReapNeverTouchesRunningJobs(t *testing.T) {
	e := New(Options{Steps: 10})
	defer e.Close()

	h, err := e.Submit(testTarget("T"), testVectors, time.Hour)
	require.NoError(t, err)
	waitRunning(t, e, h)

	for i := 0; i < 10; i++ {
		assert.Equal(t, 0, e.Reap())
	}
	_, err = e.Submit(testTarget("T"), testVectors, time.Hour)
	assert.ErrorIs(t, err, ErrConflictingJob)
	e.Cancel(h)
}
