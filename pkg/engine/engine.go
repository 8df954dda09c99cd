// Package engine runs simulated security assessments as cancellable background jobs.
//
// Each submitted job steps through a fixed number of units of work on its own
// goroutine, asking an Emitter at every step whether a finding was discovered.
// Callers observe jobs through immutable snapshots returned by Poll, and may
// cancel them at any time; cancellation is noticed at the next step boundary.
package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ajkula/renegade/pkg/catalog"
	"github.com/ajkula/renegade/pkg/console"
	"github.com/ajkula/renegade/pkg/target"
)

// DefaultSteps is the number of units of work in one assessment
const DefaultSteps = 100

const testCasesPerVector = catalog.TestCasesPerVector

// Options configures an Engine
type Options struct {
	// Steps per job; zero means DefaultSteps
	Steps int

	// Emitter decides findings; nil means a RandomEmitter with DefaultEmitProbability
	Emitter Emitter

	// MaxActiveJobs caps concurrently active jobs; zero means unlimited
	MaxActiveJobs int

	// OnProgress is called from the job goroutine after every committed step and
	// once with the terminal snapshot. It must return quickly.
	OnProgress func(Snapshot)

	Logger *console.Logger
}

// Engine submits, runs and tracks assessment jobs
type Engine struct {
	steps      int
	emitter    Emitter
	registry   *Registry
	onProgress func(Snapshot)
	logger     *console.Logger
	now        func() time.Time
	newID      func() string

	ctx    context.Context
	stop   context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// New creates an engine
func New(opts Options) *Engine {
	steps := opts.Steps
	if steps <= 0 {
		steps = DefaultSteps
	}

	emitter := opts.Emitter
	if emitter == nil {
		emitter = NewRandomEmitter(DefaultEmitProbability, 0)
	}

	ctx, stop := context.WithCancel(context.Background())
	return &Engine{
		steps:      steps,
		emitter:    emitter,
		registry:   NewRegistry(opts.MaxActiveJobs),
		onProgress: opts.OnProgress,
		logger:     opts.Logger,
		now:        time.Now,
		newID:      uuid.NewString,
		ctx:        ctx,
		stop:       stop,
	}
}

// Steps returns the number of steps per job
func (e *Engine) Steps() int {
	return e.steps
}

// Registry exposes the job registry for housekeeping
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Submit validates the request, registers a pending job and starts it in the background
func (e *Engine) Submit(tgt target.Target, vectors []catalog.TestVector, budget time.Duration) (Handle, error) {
	snapshot := tgt.Snapshot()
	if err := snapshot.Validate(); err != nil {
		return Handle{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	selected, err := normalizeVectors(vectors)
	if err != nil {
		return Handle{}, err
	}

	if budget <= 0 {
		return Handle{}, fmt.Errorf("%w: duration budget must be positive, got %v", ErrInvalidRequest, budget)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return Handle{}, ErrEngineClosed
	}

	j := newJob(e.ctx, e.newID(), snapshot, selected, budget, e.now())
	if err := e.registry.Register(j); err != nil {
		j.cancel()
		return Handle{}, err
	}

	e.logger.Debugf("job %s submitted for %s: %d vectors, budget %v", j.id, snapshot.Name, len(selected), budget)

	e.wg.Add(1)
	go e.run(j)

	return Handle{job: j}, nil
}

// normalizeVectors copies the vector set, dropping repeated IDs
func normalizeVectors(vectors []catalog.TestVector) ([]catalog.TestVector, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: at least one test vector is required", ErrInvalidRequest)
	}

	seen := make(map[string]bool, len(vectors))
	selected := make([]catalog.TestVector, 0, len(vectors))
	for _, v := range vectors {
		if strings.TrimSpace(v.ID) == "" {
			return nil, fmt.Errorf("%w: test vector with empty id", ErrInvalidRequest)
		}
		if seen[v.ID] {
			continue
		}
		seen[v.ID] = true
		selected = append(selected, v)
	}
	return selected, nil
}

// Cancel requests cooperative cancellation. It never blocks and is a no-op on finished jobs.
func (e *Engine) Cancel(h Handle) {
	if h.job == nil {
		return
	}
	h.job.cancel()
}

// CancelAll requests cancellation of every registered job
func (e *Engine) CancelAll() {
	for _, h := range e.registry.List() {
		e.Cancel(h)
	}
}

// Poll returns a snapshot of the job's current state
func (e *Engine) Poll(h Handle) (Snapshot, error) {
	if h.job == nil {
		return Snapshot{}, ErrUnknownJob
	}
	return h.job.snapshot(), nil
}

// Wait blocks until the job's goroutine has exited or ctx is done
func (e *Engine) Wait(ctx context.Context, h Handle) (Snapshot, error) {
	if h.job == nil {
		return Snapshot{}, ErrUnknownJob
	}

	select {
	case <-h.job.done:
		return h.job.snapshot(), nil
	case <-ctx.Done():
		return h.job.snapshot(), ctx.Err()
	}
}

// Lookup finds a registered job by ID
func (e *Engine) Lookup(id string) (Handle, error) {
	h, ok := e.registry.Lookup(id)
	if !ok {
		return Handle{}, fmt.Errorf("%w: %s", ErrUnknownJob, id)
	}
	return h, nil
}

// ListActive returns the running jobs
func (e *Engine) ListActive() []Handle {
	return e.registry.ListActive()
}

// Reap drops finished jobs from the registry
func (e *Engine) Reap() int {
	n := e.registry.Reap()
	if n > 0 {
		e.logger.Debugf("reaped %d finished job(s)", n)
	}
	return n
}

// StartReaper reaps finished jobs every interval until ctx is done or the engine closes
func (e *Engine) StartReaper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-e.ctx.Done():
				return
			case <-ticker.C:
				e.Reap()
			}
		}
	}()
}

// Close cancels every job and waits for all job goroutines to exit
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	e.stop()
	e.wg.Wait()
}

// run is the step loop of one job
func (e *Engine) run(j *job) {
	defer e.wg.Done()
	defer close(j.done)
	defer j.cancel()

	step := 0
	defer func() {
		if r := recover(); r != nil {
			fault := &ExecutionFault{
				JobID: j.id,
				Step:  step,
				Err:   fmt.Errorf("panic: %v", r),
				Trace: string(debug.Stack()),
			}
			e.fail(j, fault)
		}
	}()

	if !j.markRunning(e.now()) {
		return
	}
	e.logger.Debugf("job %s running against %s", j.id, j.target.Name)

	stepBudget := j.budget / time.Duration(e.steps)
	timer := time.NewTimer(stepBudget)
	defer timer.Stop()

	for step = 0; step < e.steps; step++ {
		if j.ctx.Err() != nil {
			e.cancelled(j)
			return
		}

		if step > 0 {
			timer.Reset(stepBudget)
		}
		select {
		case <-j.ctx.Done():
			e.cancelled(j)
			return
		case <-timer.C:
		}

		finding, err := e.emitter.Step(j.ctx, StepRequest{
			Target:           j.target,
			Vectors:          j.vectors,
			PreviousFindings: j.findingCount(),
			Step:             step,
		})
		if err != nil {
			// an emitter that honours ctx reports the user's cancel as an error
			if j.ctx.Err() != nil && errors.Is(err, context.Canceled) {
				e.cancelled(j)
				return
			}
			e.fail(j, &ExecutionFault{JobID: j.id, Step: step, Err: err, Trace: string(debug.Stack())})
			return
		}

		j.commitStep(step+1, e.steps, finding)
		if finding != nil {
			e.logger.Debugf("job %s: %s %s (%s)", j.id, finding.ID, finding.VectorName, finding.Severity)
		}
		e.notify(j)
	}

	if j.complete(e.now()) {
		snap := j.snapshot()
		e.logger.Debugf("job %s completed: %d findings, risk score %d", j.id, snap.Summary.FindingsCount, snap.Summary.RiskScore)
		e.notifySnapshot(snap)
	}
}

func (e *Engine) cancelled(j *job) {
	if j.markCancelled(e.now()) {
		e.logger.Debugf("job %s cancelled", j.id)
		e.notify(j)
	}
}

func (e *Engine) fail(j *job, fault *ExecutionFault) {
	if j.markFailed(fault, e.now()) {
		e.logger.Errorf("assessment of %s failed: %v", j.target.Name, fault)
		e.notify(j)
	}
}

func (e *Engine) notify(j *job) {
	if e.onProgress != nil {
		e.notifySnapshot(j.snapshot())
	}
}

func (e *Engine) notifySnapshot(s Snapshot) {
	if e.onProgress == nil {
		return
	}
	// observer panics must not fail the job they observe
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warningf("progress observer panicked for job %s: %v", s.ID, r)
		}
	}()
	e.onProgress(s)
}
