package engine

import (
	"time"

	"github.com/ajkula/renegade/pkg/catalog"
)

// Thread-safe state management methods

// snapshot copies the job state under the read lock
func (j *job) snapshot() Snapshot {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var errInfo *ErrorInfo
	if j.err != nil {
		copied := *j.err
		errInfo = &copied
	}

	return Snapshot{
		ID:          j.id,
		Target:      j.target,
		Vectors:     append([]catalog.TestVector(nil), j.vectors...),
		Status:      j.status,
		Progress:    j.progress,
		Findings:    append([]Finding(nil), j.findings...),
		Summary:     j.summary,
		Budget:      j.budget,
		SubmittedAt: j.submittedAt,
		StartedAt:   j.startedAt,
		FinishedAt:  j.finishedAt,
		Error:       errInfo,
	}
}

// currentStatus returns the job status
func (j *job) currentStatus() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.status
}

// findingCount returns the number of findings appended so far
func (j *job) findingCount() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.findings)
}

// markRunning moves a pending job to running
func (j *job) markRunning(now time.Time) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status != StatusPending {
		return false
	}
	j.status = StatusRunning
	j.startedAt = now
	return true
}

// commitStep publishes one step: progress, the optional finding and the summary change together
func (j *job) commitStep(completed, total int, f *Finding) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status != StatusRunning {
		return
	}

	if p := float64(completed) / float64(total); p > j.progress {
		j.progress = p
	}
	if f != nil {
		j.findings = append(j.findings, *f)
		j.summary.add(*f)
	}
}

// complete marks the job completed
func (j *job) complete(now time.Time) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status.IsTerminal() {
		return false
	}
	j.summary.TotalTestCases = len(j.vectors) * testCasesPerVector
	j.progress = 1
	j.status = StatusCompleted
	j.finishedAt = now
	return true
}

// markCancelled freezes the job with its last progress value
func (j *job) markCancelled(now time.Time) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status.IsTerminal() {
		return false
	}
	j.status = StatusCancelled
	j.finishedAt = now
	return true
}

// markFailed records the fault and terminates the job
func (j *job) markFailed(err error, now time.Time) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status.IsTerminal() {
		return false
	}
	j.status = StatusFailed
	j.err = errorInfoFrom(err)
	j.finishedAt = now
	return true
}
