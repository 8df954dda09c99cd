package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest rejects a submission that can never run
	ErrInvalidRequest = errors.New("invalid assessment request")

	// ErrConflictingJob rejects a submission for a target that already has an active job
	ErrConflictingJob = errors.New("assessment already active for target")

	// ErrCapacity rejects a submission when the active job limit is reached
	ErrCapacity = errors.New("too many active assessments")

	// ErrUnknownJob is returned for handles or IDs the engine never issued
	ErrUnknownJob = errors.New("unknown assessment job")

	// ErrJobActive is returned when unregistering a job that has not terminated
	ErrJobActive = errors.New("assessment job still active")

	// ErrEngineClosed rejects submissions after Close
	ErrEngineClosed = errors.New("engine closed")
)

// ExecutionFault is an unexpected failure inside a job's step loop
type ExecutionFault struct {
	JobID string
	Step  int
	Err   error
	Trace string
}

func (f *ExecutionFault) Error() string {
	return fmt.Sprintf("job %s failed at step %d: %v", f.JobID, f.Step, f.Err)
}

func (f *ExecutionFault) Unwrap() error {
	return f.Err
}

// ErrorInfo is the error payload recorded on a failed job
type ErrorInfo struct {
	Message string `json:"message"`
	Trace   string `json:"trace,omitempty"`
}

func errorInfoFrom(err error) *ErrorInfo {
	info := &ErrorInfo{Message: err.Error()}
	var fault *ExecutionFault
	if errors.As(err, &fault) {
		info.Trace = fault.Trace
	}
	return info
}
