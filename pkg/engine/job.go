package engine

import (
	"context"
	"sync"
	"time"

	"github.com/ajkula/renegade/pkg/catalog"
	"github.com/ajkula/renegade/pkg/target"
)

// Status is the lifecycle state of a job
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether no transition can leave s
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusCompleted || s == StatusFailed
}

// Snapshot is a read-only copy of a job's state at one point in time
type Snapshot struct {
	ID          string               `json:"id"`
	Target      target.Target        `json:"target"`
	Vectors     []catalog.TestVector `json:"vectors"`
	Status      Status               `json:"status"`
	Progress    float64              `json:"progress"`
	Findings    []Finding            `json:"findings"`
	Summary     Summary              `json:"summary"`
	Budget      time.Duration        `json:"budget"`
	SubmittedAt time.Time            `json:"submitted_at"`
	StartedAt   time.Time            `json:"started_at,omitempty"`
	FinishedAt  time.Time            `json:"finished_at,omitempty"`
	Error       *ErrorInfo           `json:"error,omitempty"`
}

// Elapsed returns the run time so far, or the total run time once finished
func (s Snapshot) Elapsed() time.Duration {
	if s.StartedAt.IsZero() {
		return 0
	}
	if s.FinishedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Handle identifies a submitted job
type Handle struct {
	job *job
}

// ID returns the job ID, or "" for the zero handle
func (h Handle) ID() string {
	if h.job == nil {
		return ""
	}
	return h.job.id
}

// IsZero reports whether h was never issued by an engine
func (h Handle) IsZero() bool {
	return h.job == nil
}

// job is the mutable record of one assessment. Its step loop is the only writer.
type job struct {
	id      string
	target  target.Target
	vectors []catalog.TestVector
	budget  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu          sync.RWMutex
	status      Status
	progress    float64
	findings    []Finding
	summary     Summary
	submittedAt time.Time
	startedAt   time.Time
	finishedAt  time.Time
	err         *ErrorInfo
}

func newJob(parent context.Context, id string, tgt target.Target, vectors []catalog.TestVector, budget time.Duration, now time.Time) *job {
	ctx, cancel := context.WithCancel(parent)
	return &job{
		id:          id,
		target:      tgt,
		vectors:     vectors,
		budget:      budget,
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
		status:      StatusPending,
		submittedAt: now,
	}
}

// joined reports whether the job's goroutine has exited
func (j *job) joined() bool {
	select {
	case <-j.done:
		return true
	default:
		return false
	}
}
