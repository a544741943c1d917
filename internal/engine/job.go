package engine

import (
	"time"

	"github.com/maher92-collab/securescan-pro/internal/finding"
	"github.com/maher92-collab/securescan-pro/internal/scanner"
)

// Status is the lifecycle state of a scan job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status is an end state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// JobError is the failure record of a failed job: a machine-readable reason
// code plus a human message.
type JobError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Job is one scan submission. Report is set iff Status is completed; Error
// is set iff Status is failed; Progress never decreases and reaches 100 only
// in a terminal state. Jobs are mutated only by the orchestrator, through the
// store's atomic update.
type Job struct {
	ID          string                `json:"job_id"`
	Target      string                `json:"target"`
	Mode        scanner.Mode          `json:"scan_type"`
	Components  []scanner.ComponentID `json:"components"`
	Status      Status                `json:"status"`
	Progress    int                   `json:"progress"`
	CreatedAt   time.Time             `json:"created_at"`
	CompletedAt *time.Time            `json:"completed_at,omitempty"`
	Report      *finding.Report       `json:"results,omitempty"`
	Error       *JobError             `json:"error,omitempty"`
}

// clone returns a copy safe to hand to readers. The report pointer is shared:
// reports are immutable once attached.
func (j *Job) clone() *Job {
	cp := *j
	cp.Components = append([]scanner.ComponentID(nil), j.Components...)
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		cp.CompletedAt = &t
	}
	if j.Error != nil {
		e := *j.Error
		cp.Error = &e
	}
	return &cp
}

// Store is the job persistence dependency of the orchestrator. Create, Get
// and Update must each be atomic for a single job record. Get and Update
// return ErrJobNotFound for unknown identifiers.
type Store interface {
	Create(job *Job) error
	Get(id string) (*Job, error)
	Update(id string, mutate func(*Job)) (*Job, error)
}
