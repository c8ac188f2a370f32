package jobs

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"server/internal/domain"
)

// Tracker is an in-memory registry of asynchronous composite jobs. It is
// safe for concurrent use; a record that has reached a terminal state never
// changes again. Records are kept for the life of the process — there is no
// eviction.
type Tracker struct {
	mu   sync.RWMutex
	jobs map[string]*domain.Job
}

// NewTracker returns an empty registry.
func NewTracker() *Tracker {
	return &Tracker{jobs: make(map[string]*domain.Job)}
}

// Create registers a new pending job and returns its id immediately so the
// caller can fire the work and let clients poll.
func (t *Tracker) Create() string {
	job := &domain.Job{
		ID:        uuid.NewString(),
		Status:    domain.JobStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	t.mu.Lock()
	t.jobs[job.ID] = job
	t.mu.Unlock()
	return job.ID
}

// MarkProcessing transitions a pending job to processing. Unknown ids and
// terminal jobs are ignored: the call comes from a detached goroutine with
// nowhere useful to report an error.
func (t *Tracker) MarkProcessing(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[id]
	if !ok || job.Status != domain.JobStatusPending {
		return
	}
	job.Status = domain.JobStatusProcessing
}

// Complete moves the job to its terminal completed state and attaches the
// result. Ignored for unknown ids and jobs already terminal.
func (t *Tracker) Complete(id string, result *domain.CompositeResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[id]
	if !ok || job.Status.Terminal() {
		return
	}
	now := time.Now().UTC()
	job.Status = domain.JobStatusCompleted
	job.CompletedAt = &now
	job.Result = result
}

// Fail moves the job to its terminal failed state with an error message.
// Ignored for unknown ids and jobs already terminal.
func (t *Tracker) Fail(id string, errMsg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[id]
	if !ok || job.Status.Terminal() {
		return
	}
	now := time.Now().UTC()
	job.Status = domain.JobStatusFailed
	job.CompletedAt = &now
	job.Error = errMsg
}

// Get returns a snapshot of the job record, or false when the id is
// unknown. The copy keeps callers from observing later mutations.
func (t *Tracker) Get(id string) (domain.Job, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	job, ok := t.jobs[id]
	if !ok {
		return domain.Job{}, false
	}
	return *job, true
}
