package engine

import (
	"fmt"
	"sort"
	"sync"
)

// Registry tracks in-flight and finished jobs.
// Lock order is registry before job; job locks never wrap registry calls.
type Registry struct {
	mu       sync.Mutex
	jobs     map[string]*job
	order    map[string]uint64
	byTarget map[string]*job
	seq      uint64
	limit    int
}

// NewRegistry creates a registry; limit caps concurrently active jobs (0 = unlimited)
func NewRegistry(limit int) *Registry {
	return &Registry{
		jobs:     make(map[string]*job),
		order:    make(map[string]uint64),
		byTarget: make(map[string]*job),
		limit:    limit,
	}
}

// Register adds a job, enforcing one active job per target and the active job limit
func (r *Registry) Register(j *job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[j.id]; exists {
		return fmt.Errorf("%w: duplicate job id %s", ErrInvalidRequest, j.id)
	}

	if existing, ok := r.byTarget[j.target.Name]; ok && !existing.currentStatus().IsTerminal() {
		return fmt.Errorf("%w: %s (job %s)", ErrConflictingJob, j.target.Name, existing.id)
	}

	if r.limit > 0 && r.activeCountLocked() >= r.limit {
		return fmt.Errorf("%w: limit is %d", ErrCapacity, r.limit)
	}

	r.seq++
	r.jobs[j.id] = j
	r.order[j.id] = r.seq
	r.byTarget[j.target.Name] = j
	return nil
}

// Unregister removes a terminated job
func (r *Registry) Unregister(h Handle) error {
	if h.job == nil {
		return ErrUnknownJob
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[h.job.id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, h.job.id)
	}
	if !j.currentStatus().IsTerminal() {
		return fmt.Errorf("%w: %s", ErrJobActive, j.id)
	}

	r.removeLocked(j)
	return nil
}

// Lookup finds a registered job by ID
func (r *Registry) Lookup(id string) (Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[id]
	if !ok {
		return Handle{}, false
	}
	return Handle{job: j}, true
}

// List returns every registered job in submission order
func (r *Registry) List() []Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filterLocked(func(*job) bool { return true })
}

// ListActive returns the running jobs in submission order
func (r *Registry) ListActive() []Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filterLocked(func(j *job) bool { return j.currentStatus() == StatusRunning })
}

// Len returns the number of registered jobs
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

// Reap drops jobs that have terminated and whose goroutine has exited.
// It returns the number of jobs removed.
func (r *Registry) Reap() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	reaped := 0
	for _, j := range r.jobs {
		if j.joined() && j.currentStatus().IsTerminal() {
			r.removeLocked(j)
			reaped++
		}
	}
	return reaped
}

func (r *Registry) activeCountLocked() int {
	active := 0
	for _, j := range r.jobs {
		if !j.currentStatus().IsTerminal() {
			active++
		}
	}
	return active
}

func (r *Registry) removeLocked(j *job) {
	delete(r.jobs, j.id)
	delete(r.order, j.id)
	if r.byTarget[j.target.Name] == j {
		delete(r.byTarget, j.target.Name)
	}
}

func (r *Registry) filterLocked(keep func(*job) bool) []Handle {
	var selected []*job
	for _, j := range r.jobs {
		if keep(j) {
			selected = append(selected, j)
		}
	}
	sort.Slice(selected, func(a, b int) bool {
		return r.order[selected[a].id] < r.order[selected[b].id]
	})

	handles := make([]Handle, len(selected))
	for i, j := range selected {
		handles[i] = Handle{job: j}
	}
	return handles
}
