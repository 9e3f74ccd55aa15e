package pipeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of a cleaning job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// terminal reports whether a status permits no further transitions.
func terminal(s JobStatus) bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// Result is the structured payload of a finished run.
type Result struct {
	RowsBefore int            `json:"rows_before"`
	RowsAfter  int            `json:"rows_after"`
	OutputPath string         `json:"output_path"`
	Errors     []string       `json:"errors"`
	Summary    map[string]any `json:"summary"`
	Metadata   map[string]any `json:"metadata"`
}

// Job tracks one file through the cleaning pipeline. Status transitions
// are one-directional: a terminal job is never resurrected. Progress is
// monotonically non-decreasing within a run.
type Job struct {
	mu sync.RWMutex

	ID          string
	FileName    string
	FilePath    string
	Status      JobStatus
	Progress    float64
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	Result      *Result
	Errors      []string
	Metadata    map[string]any
	Options     Options
}

// NewJob creates a pending job for a file.
func NewJob(fileName, filePath string, opts Options) *Job {
	return &Job{
		ID:        uuid.NewString(),
		FileName:  fileName,
		FilePath:  filePath,
		Status:    JobStatusPending,
		CreatedAt: time.Now(),
		Metadata:  make(map[string]any),
		Options:   opts,
	}
}

// Start transitions the job to processing. Fails on terminal jobs.
func (j *Job) Start() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if terminal(j.Status) {
		return fmt.Errorf("job %s cannot start from status %s", j.ID, j.Status)
	}
	now := time.Now()
	j.Status = JobStatusProcessing
	j.StartedAt = &now
	return nil
}

// Complete marks the job completed with its result and full progress.
func (j *Job) Complete(result *Result) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if terminal(j.Status) {
		return
	}
	now := time.Now()
	j.Status = JobStatusCompleted
	j.CompletedAt = &now
	j.Progress = 1.0
	j.Result = result
}

// Fail marks the job failed, recording the error.
func (j *Job) Fail(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if terminal(j.Status) {
		return
	}
	now := time.Now()
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	if err != nil {
		j.Errors = append(j.Errors, err.Error())
	}
}

// Cancel marks the job cancelled. Allowed from pending and processing; a
// processing job stops at its next stage boundary.
func (j *Job) Cancel() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if terminal(j.Status) {
		return fmt.Errorf("job %s cannot be cancelled (status: %s)", j.ID, j.Status)
	}
	now := time.Now()
	j.Status = JobStatusCancelled
	j.CompletedAt = &now
	return nil
}

// SetProgress advances progress; regressions are ignored to keep the value
// monotonic within a run.
func (j *Job) SetProgress(p float64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if p > j.Progress && !terminal(j.Status) {
		j.Progress = p
	}
}

// AppendError records a non-fatal error on the job.
func (j *Job) AppendError(msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Errors = append(j.Errors, msg)
}

// GetStatus returns the current status.
func (j *Job) GetStatus() JobStatus {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

// Cancelled reports whether the job was cancelled, checked by the runner
// at stage boundaries.
func (j *Job) Cancelled() bool {
	return j.GetStatus() == JobStatusCancelled
}

// View is an immutable snapshot of a job for API responses.
type View struct {
	ID          string         `json:"id"`
	FileName    string         `json:"file_name"`
	Status      JobStatus      `json:"status"`
	Progress    float64        `json:"progress"`
	CreatedAt   time.Time      `json:"created_at"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Result      *Result        `json:"result,omitempty"`
	Errors      []string       `json:"errors,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Snapshot copies the job's externally visible state under the read lock.
func (j *Job) Snapshot() View {
	j.mu.RLock()
	defer j.mu.RUnlock()
	view := View{
		ID:          j.ID,
		FileName:    j.FileName,
		Status:      j.Status,
		Progress:    j.Progress,
		CreatedAt:   j.CreatedAt,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
		Result:      j.Result,
		Errors:      append([]string(nil), j.Errors...),
		Metadata:    j.Metadata,
	}
	return view
}
