package dto

import "time"

// EnqueueRequest is the input for enqueueing a job, shared by the CLI flags,
// the JSON argument form, and the HTTP API.
type EnqueueRequest struct {
	ID         string     `json:"id"`
	Command    string     `json:"command" validate:"required"`
	MaxRetries *int       `json:"max_retries,omitempty" validate:"omitempty,gte=0,lte=50"`
	Priority   int        `json:"priority" validate:"gte=0,lte=10"`
	RunAt      *time.Time `json:"run_at,omitempty"`
}

type JobResponse struct {
	ID          string     `json:"id"`
	Command     string     `json:"command"`
	State       string     `json:"state"`
	Priority    int        `json:"priority"`
	Attempts    int        `json:"attempts"`
	MaxRetries  int        `json:"max_retries"`
	LockedBy    *int       `json:"locked_by,omitempty"`
	LockedUntil *time.Time `json:"locked_until,omitempty"`
	RetryAt     *time.Time `json:"retry_at,omitempty"`
	RunAt       *time.Time `json:"run_at,omitempty"`
	LastError   *string    `json:"last_error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// StatusResponse reports per-state job counts and the recorded worker PIDs.
type StatusResponse struct {
	Counts  map[string]int64 `json:"counts"`
	Workers []int            `json:"workers"`
}

// OutputResponse carries the captured output of a job's last execution.
type OutputResponse struct {
	JobID       string     `json:"job_id"`
	Stdout      string     `json:"stdout"`
	Stderr      string     `json:"stderr"`
	ExitCode    *int       `json:"exit_code,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
