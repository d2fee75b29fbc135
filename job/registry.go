package job

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

var (
	ErrNotFound  = errors.New("job not found")
	ErrDuplicate = errors.New("job already exists")
)

// TransitionError reports an edge outside the state machine.
type TransitionError struct {
	ID       string
	From, To Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("job %s: illegal transition %s -> %s", e.ID, e.From, e.To)
}

type record struct {
	mu     sync.RWMutex
	job    Job
	events []Event
	done   chan struct{}
}

// Registry stores job records. The map lock only guards membership; each
// record has its own lock, so updates to one job never block another.
type Registry struct {
	mu      sync.RWMutex
	records map[string]*record
	now     func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{records: make(map[string]*record), now: time.Now}
}

// create adds a pending job and records its first event.
func (r *Registry) create(j Job) (Job, Event, error) {
	now := r.now()
	j.Status = StatusPending
	j.CreatedAt, j.UpdatedAt = now, now
	j.Result, j.Error, j.ErrorCode = "", "", ""

	rec := &record{job: j, done: make(chan struct{})}
	ev := Event{JobID: j.ID, Status: StatusPending, Seq: 1, At: now}
	rec.events = append(rec.events, ev)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[j.ID]; exists {
		return Job{}, Event{}, ErrDuplicate
	}
	r.records[j.ID] = rec
	return j, ev, nil
}

func (r *Registry) record(id string) (*record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	return rec, ok
}

// transition moves a job to status. result is kept only for completed and
// errMsg only for failed, so a record never carries both.
func (r *Registry) transition(id string, to Status, result, errMsg string) (Job, Event, error) {
	return r.apply(id, to, func(j *Job) {
		switch to {
		case StatusCompleted:
			j.Result = result
		case StatusFailed:
			j.Error = errMsg
		}
	})
}

// failWith fails a job with a classified error code next to its message.
func (r *Registry) failWith(id, code, msg string) (Job, Event, error) {
	return r.apply(id, StatusFailed, func(j *Job) {
		j.Error, j.ErrorCode = msg, code
	})
}

func (r *Registry) apply(id string, to Status, update func(*Job)) (Job, Event, error) {
	rec, ok := r.record(id)
	if !ok {
		return Job{}, Event{}, ErrNotFound
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	from := rec.job.Status
	if !CanTransition(from, to) {
		return rec.job, Event{}, &TransitionError{ID: id, From: from, To: to}
	}

	now := r.now()
	rec.job.Status = to
	rec.job.UpdatedAt = now
	update(&rec.job)

	ev := Event{JobID: id, Status: to, Seq: len(rec.events) + 1, At: now, Error: rec.job.Error}
	rec.events = append(rec.events, ev)
	if to.Terminal() {
		close(rec.done)
	}
	return rec.job, ev, nil
}

// Get returns a snapshot of the job.
func (r *Registry) Get(id string) (Job, bool) {
	rec, ok := r.record(id)
	if !ok {
		return Job{}, false
	}
	rec.mu.RLock()
	defer rec.mu.RUnlock()
	return rec.job, true
}

// List returns snapshots of all jobs, newest first.
func (r *Registry) List() []Job {
	r.mu.RLock()
	recs := make([]*record, 0, len(r.records))
	for _, rec := range r.records {
		recs = append(recs, rec)
	}
	r.mu.RUnlock()

	out := make([]Job, 0, len(recs))
	for _, rec := range recs {
		rec.mu.RLock()
		out = append(out, rec.job)
		rec.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Len returns the number of jobs held.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// Events returns the job's events with Seq greater than since.
func (r *Registry) Events(id string, since int) ([]Event, bool) {
	rec, ok := r.record(id)
	if !ok {
		return nil, false
	}
	rec.mu.RLock()
	defer rec.mu.RUnlock()
	if since < 0 {
		since = 0
	}
	if since >= len(rec.events) {
		return nil, true
	}
	return append([]Event(nil), rec.events[since:]...), true
}

// Done returns a channel closed once the job is terminal.
func (r *Registry) Done(id string) (<-chan struct{}, bool) {
	rec, ok := r.record(id)
	if !ok {
		return nil, false
	}
	return rec.done, true
}

// Prune removes terminal jobs last updated before cutoff and returns how
// many were removed.
func (r *Registry) Prune(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, rec := range r.records {
		rec.mu.RLock()
		stale := rec.job.Status.Terminal() && rec.job.UpdatedAt.Before(cutoff)
		rec.mu.RUnlock()
		if stale {
			delete(r.records, id)
			removed++
		}
	}
	return removed
}
