package domain

import "time"

// JobStatus enumerates composite job lifecycle states.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job tracks one asynchronous composite-creation request. Records live in
// process memory only; there is no persistence or eviction.
type Job struct {
	ID          string           `json:"job_id"`
	Status      JobStatus        `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	CompletedAt *time.Time       `json:"completed_at"`
	Result      *CompositeResult `json:"result"`
	Error       string           `json:"error,omitempty"`
}
