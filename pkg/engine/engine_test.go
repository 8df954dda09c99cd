package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajkula/renegade/pkg/catalog"
	"github.com/ajkula/renegade/pkg/severity"
	"github.com/ajkula/renegade/pkg/target"
)

var testVectors = []catalog.TestVector{
	{ID: "V1", Name: "Vector One", Category: catalog.CategoryOWASP, Severity: severity.High},
	{ID: "V2", Name: "Vector Two", Category: catalog.CategoryExploit, Severity: severity.Critical},
}

func testTarget(name string) target.Target {
	return target.Target{Name: name, Endpoint: "https://models.example.com/" + name, Kind: target.KindLLM, Credential: "secret"}
}

func waitDone(t *testing.T, e *Engine, h Handle) Snapshot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	snap, err := e.Wait(ctx, h)
	require.NoError(t, err)
	return snap
}

func riskOf(findings []Finding) int {
	total := 0
	for _, f := range findings {
		total += severity.Weight(f.Severity)
	}
	return total
}

func TestAlwaysEmittingRunCompletes(t *testing.T) {
	e := New(Options{Steps: 10, Emitter: NewRandomEmitter(1.0, 42)})
	defer e.Close()

	h, err := e.Submit(testTarget("T"), testVectors, 50*time.Millisecond)
	require.NoError(t, err)
	require.NotEmpty(t, h.ID())

	snap := waitDone(t, e, h)

	assert.Equal(t, StatusCompleted, snap.Status)
	assert.Equal(t, 1.0, snap.Progress)
	require.Len(t, snap.Findings, 10)
	assert.Equal(t, 10, snap.Summary.FindingsCount)
	assert.Equal(t, riskOf(snap.Findings), snap.Summary.RiskScore)
	assert.GreaterOrEqual(t, snap.Summary.RiskScore, 30)
	assert.LessOrEqual(t, snap.Summary.RiskScore, 50)
	assert.Equal(t, len(testVectors)*catalog.TestCasesPerVector, snap.Summary.TotalTestCases)
	assert.False(t, snap.StartedAt.IsZero())
	assert.False(t, snap.FinishedAt.Before(snap.StartedAt))
	assert.Nil(t, snap.Error)

	for i, f := range snap.Findings {
		assert.Equal(t, FindingID(i+1), f.ID)
		assert.Contains(t, []string{"V1", "V2"}, f.VectorID)
		assert.Contains(t, f.Detail, "T")
	}
}

func TestCancelAfterThirdStepFreezesProgress(t *testing.T) {
	var e *Engine
	e = New(Options{
		Steps:   10,
		Emitter: NewRandomEmitter(1.0, 7),
		OnProgress: func(s Snapshot) {
			if s.Status == StatusRunning && len(s.Findings) == 3 {
				h, err := e.Lookup(s.ID)
				if err == nil {
					e.Cancel(h)
				}
			}
		},
	})
	defer e.Close()

	h, err := e.Submit(testTarget("T"), testVectors, 200*time.Millisecond)
	require.NoError(t, err)

	snap := waitDone(t, e, h)

	assert.Equal(t, StatusCancelled, snap.Status)
	assert.InDelta(t, 0.3, snap.Progress, 1e-9)
	assert.LessOrEqual(t, len(snap.Findings), 3)
	assert.Equal(t, len(snap.Findings), snap.Summary.FindingsCount)
	assert.Equal(t, 0, snap.Summary.TotalTestCases)
	assert.False(t, snap.FinishedAt.IsZero())
}

func TestCancelIsIdempotentAndSafeOnTerminalJobs(t *testing.T) {
	e := New(Options{Steps: 5, Emitter: NewRandomEmitter(0, 1)})
	defer e.Close()

	h, err := e.Submit(testTarget("T"), testVectors, 10*time.Millisecond)
	require.NoError(t, err)
	snap := waitDone(t, e, h)
	require.Equal(t, StatusCompleted, snap.Status)

	assert.NotPanics(t, func() {
		e.Cancel(h)
		e.Cancel(h)
		e.Cancel(Handle{})
	})

	after, err := e.Poll(h)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, after.Status)
	assert.Equal(t, snap.Summary, after.Summary)

	running, err := e.Submit(testTarget("U"), testVectors, time.Hour)
	require.NoError(t, err)
	e.Cancel(running)
	e.Cancel(running)
	assert.Equal(t, StatusCancelled, waitDone(t, e, running).Status)
}

func TestSubmitValidation(t *testing.T) {
	e := New(Options{Steps: 5})
	defer e.Close()

	_, err := e.Submit(testTarget("T"), nil, time.Second)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = e.Submit(target.Target{Name: "", Endpoint: "https://x.test"}, testVectors, time.Second)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = e.Submit(target.Target{Name: "T", Endpoint: ""}, testVectors, time.Second)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = e.Submit(testTarget("T"), testVectors, 0)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = e.Submit(testTarget("T"), []catalog.TestVector{{ID: ""}}, time.Second)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	assert.Equal(t, 0, e.Registry().Len(), "rejected requests never register a job")
}

func TestConflictingJobForSameTarget(t *testing.T) {
	e := New(Options{Steps: 10, Emitter: NewRandomEmitter(0.5, 3)})
	defer e.Close()

	first, err := e.Submit(testTarget("T"), testVectors, time.Hour)
	require.NoError(t, err)

	_, err = e.Submit(testTarget("T"), testVectors, time.Second)
	require.ErrorIs(t, err, ErrConflictingJob)

	other, err := e.Submit(testTarget("other"), testVectors, time.Hour)
	require.NoError(t, err)

	e.Cancel(first)
	waitDone(t, e, first)

	retry, err := e.Submit(testTarget("T"), testVectors, 10*time.Millisecond)
	require.NoError(t, err, "a target can be resubmitted once its job terminated")
	assert.Equal(t, StatusCompleted, waitDone(t, e, retry).Status)

	e.Cancel(other)
	assert.Equal(t, StatusCancelled, waitDone(t, e, other).Status)
}

func TestCapacityLimit(t *testing.T) {
	e := New(Options{Steps: 10, MaxActiveJobs: 1})
	defer e.Close()

	h, err := e.Submit(testTarget("a"), testVectors, time.Hour)
	require.NoError(t, err)

	_, err = e.Submit(testTarget("b"), testVectors, time.Hour)
	assert.ErrorIs(t, err, ErrCapacity)

	e.Cancel(h)
	waitDone(t, e, h)

	h2, err := e.Submit(testTarget("b"), testVectors, time.Hour)
	require.NoError(t, err)
	e.Cancel(h2)
}

func TestEmitterErrorFailsOnlyThatJob(t *testing.T) {
	boom := errors.New("backend unreachable")
	emitter := EmitterFunc(func(ctx context.Context, req StepRequest) (*Finding, error) {
		if req.Target.Name == "broken" && req.Step == 5 {
			return nil, boom
		}
		return NewRandomEmitter(1.0, 11).Step(ctx, req)
	})

	e := New(Options{Steps: 10, Emitter: emitter})
	defer e.Close()

	broken, err := e.Submit(testTarget("broken"), testVectors, 20*time.Millisecond)
	require.NoError(t, err)
	healthy, err := e.Submit(testTarget("healthy"), testVectors, 20*time.Millisecond)
	require.NoError(t, err)

	failed := waitDone(t, e, broken)
	assert.Equal(t, StatusFailed, failed.Status)
	require.NotNil(t, failed.Error)
	assert.Contains(t, failed.Error.Message, "backend unreachable")
	assert.InDelta(t, 0.5, failed.Progress, 1e-9)
	assert.Len(t, failed.Findings, 5)
	assert.Less(t, failed.Progress, 1.0)

	assert.NotEmpty(t, failed.Error.Trace)

	assert.Equal(t, StatusCompleted, waitDone(t, e, healthy).Status)
}

func TestContextAwareEmitterCancelIsNotAFailure(t *testing.T) {
	entered := make(chan struct{})
	emitter := EmitterFunc(func(ctx context.Context, req StepRequest) (*Finding, error) {
		if req.Step < 2 {
			return nil, nil
		}
		close(entered)
		<-ctx.Done()
		return nil, ctx.Err()
	})

	e := New(Options{Steps: 10, Emitter: emitter})
	defer e.Close()

	h, err := e.Submit(testTarget("T"), testVectors, 10*time.Millisecond)
	require.NoError(t, err)

	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("emitter never reached step 2")
	}
	e.Cancel(h)

	snap := waitDone(t, e, h)
	assert.Equal(t, StatusCancelled, snap.Status)
	assert.Nil(t, snap.Error)
	assert.InDelta(t, 0.2, snap.Progress, 1e-9)
	assert.False(t, snap.FinishedAt.IsZero())
}

func TestEmitterPanicIsRecorded(t *testing.T) {
	e := New(Options{Steps: 4, Emitter: EmitterFunc(func(context.Context, StepRequest) (*Finding, error) {
		panic("nil map write")
	})})
	defer e.Close()

	h, err := e.Submit(testTarget("T"), testVectors, 4*time.Millisecond)
	require.NoError(t, err)

	snap := waitDone(t, e, h)
	assert.Equal(t, StatusFailed, snap.Status)
	require.NotNil(t, snap.Error)
	assert.Contains(t, snap.Error.Message, "nil map write")
	assert.NotEmpty(t, snap.Error.Trace)
	assert.Equal(t, 0.0, snap.Progress)
}

func TestObserverPanicDoesNotFailJob(t *testing.T) {
	e := New(Options{Steps: 3, OnProgress: func(Snapshot) { panic("bad observer") }})
	defer e.Close()

	h, err := e.Submit(testTarget("T"), testVectors, 3*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, waitDone(t, e, h).Status)
}

func TestConcurrentPollsNeverSeeTornState(t *testing.T) {
	e := New(Options{Steps: 50, Emitter: NewRandomEmitter(0.6, 99)})
	defer e.Close()

	h, err := e.Submit(testTarget("T"), testVectors, 50*time.Millisecond)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lastProgress, lastRisk := 0.0, 0
			for {
				snap, err := e.Poll(h)
				if err != nil {
					errs <- err.Error()
					return
				}
				if snap.Summary.FindingsCount != len(snap.Findings) {
					errs <- fmt.Sprintf("count %d != len %d", snap.Summary.FindingsCount, len(snap.Findings))
				}
				if snap.Summary.RiskScore != riskOf(snap.Findings) {
					errs <- "risk score out of sync with findings"
				}
				if snap.Progress < lastProgress || snap.Summary.RiskScore < lastRisk {
					errs <- "progress or risk score went backwards"
				}
				lastProgress, lastRisk = snap.Progress, snap.Summary.RiskScore
				if snap.Status.IsTerminal() {
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for msg := range errs {
		t.Error(msg)
	}
}

func TestEveryJobTerminatesWithConsistentProgress(t *testing.T) {
	e := New(Options{Steps: 20})
	defer e.Close()

	catalogVectors := catalog.Default().List()
	var handles []Handle
	for i := 1; i <= 6; i++ {
		h, err := e.Submit(testTarget(fmt.Sprintf("t%d", i)), catalogVectors[:i], time.Duration(i)*5*time.Millisecond)
		require.NoError(t, err)
		handles = append(handles, h)
	}
	e.Cancel(handles[5])

	for _, h := range handles {
		snap := waitDone(t, e, h)
		require.True(t, snap.Status.IsTerminal())
		assert.Equal(t, snap.Status == StatusCompleted, snap.Progress == 1.0, "job %s: status %s progress %v", h.ID(), snap.Status, snap.Progress)
		assert.Equal(t, riskOf(snap.Findings), snap.Summary.RiskScore)
	}
}

func TestPollSnapshotsAreIndependent(t *testing.T) {
	e := New(Options{Steps: 4, Emitter: NewRandomEmitter(1.0, 5)})
	defer e.Close()

	h, err := e.Submit(testTarget("T"), testVectors, 4*time.Millisecond)
	require.NoError(t, err)
	snap := waitDone(t, e, h)
	require.NotEmpty(t, snap.Findings)

	snap.Findings[0].ID = "tampered"
	snap.Vectors[0].Name = "tampered"

	again, err := e.Poll(h)
	require.NoError(t, err)
	assert.Equal(t, "VULN-1", again.Findings[0].ID)
	assert.Equal(t, "Vector One", again.Vectors[0].Name)

	_, err = e.Poll(Handle{})
	assert.ErrorIs(t, err, ErrUnknownJob)
}

func TestSubmitTakesTargetSnapshot(t *testing.T) {
	e := New(Options{Steps: 4})
	defer e.Close()

	tgt := testTarget("T")
	h, err := e.Submit(tgt, testVectors, time.Hour)
	require.NoError(t, err)
	tgt.Endpoint = "https://mutated.example.com"

	snap, err := e.Poll(h)
	require.NoError(t, err)
	assert.Equal(t, "https://models.example.com/T", snap.Target.Endpoint)
	e.Cancel(h)
}

func TestCloseCancelsRunningJobs(t *testing.T) {
	e := New(Options{Steps: 10})

	h, err := e.Submit(testTarget("T"), testVectors, time.Hour)
	require.NoError(t, err)

	e.Close()

	snap, err := e.Poll(h)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, snap.Status)

	_, err = e.Submit(testTarget("U"), testVectors, time.Second)
	assert.ErrorIs(t, err, ErrEngineClosed)
}
