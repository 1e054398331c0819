// Package job defines the Job entity and its lifecycle state machine,
// without an ORM: the Store packages own the mapping to their backing
// storage.
package job

import (
	"fmt"
	"time"

	"jobengine/internal/errs"
)

// Status is one of the legal lifecycle states a Job can occupy.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusScheduled Status = "SCHEDULED"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusRetried   Status = "RETRIED"
)

func (s Status) String() string { return string(s) }

// IsTerminal reports whether no further transition is legal from s.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// transitions enumerates every legal (from, to) edge in the state
// machine. Any CAS attempt outside this table is a bug in the caller,
// not just a store-level Conflict.
var transitions = map[Status]map[Status]bool{
	StatusPending:   {StatusScheduled: true},
	StatusScheduled: {StatusRunning: true, StatusPending: true}, // recover() sweep
	StatusRunning: {
		StatusCompleted: true,
		StatusFailed:    true,
		StatusRetried:   true,
		StatusPending:   true, // crash recovery: dispatched but never verdicted
	},
	StatusRetried: {StatusPending: true},
}

// CanTransition reports whether from→to is a legal edge.
func CanTransition(from, to Status) bool {
	next, ok := transitions[from]
	if !ok {
		return false
	}
	return next[to]
}

const (
	MinPriority     = 1
	MaxPriority     = 10
	DefaultPriority = 5
)

// Job is the central entity: a persisted unit of work.
type Job struct {
	ID                string                 `json:"id"`
	Name              string                 `json:"name"`
	JobType           string                 `json:"job_type"`
	Payload           map[string]interface{} `json:"payload"`
	Priority          int                    `json:"priority"`
	EstimatedDuration float64                `json:"estimated_duration"`
	Status            Status                 `json:"status"`
	RetryCount        int                    `json:"retry_count"`
	MaxRetries        int                    `json:"max_retries"`
	Result            map[string]interface{} `json:"result,omitempty"`
	Error             string                 `json:"error,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
	StartedAt         *time.Time             `json:"started_at,omitempty"`
	FinishedAt        *time.Time             `json:"finished_at,omitempty"`
	LockedBy          string                 `json:"locked_by,omitempty"`
	LockedAt          *time.Time             `json:"locked_at,omitempty"`
}

// Spec is the caller-supplied shape for Store.Create: everything a
// submitter is allowed to set. Status, retry_count, and timestamps are
// always store-assigned.
type Spec struct {
	Name              string
	JobType           string
	Payload           map[string]interface{}
	Priority          int
	EstimatedDuration float64

	// MaxRetries is a pointer so Normalize can tell "not set, apply the
	// store's default" apart from an explicit 0 (no retries wanted).
	MaxRetries *int
}

// Normalize fills in defaults (priority=5, estimated_duration=0,
// max_retries from the store's configured default when the caller left
// it nil) and returns the spec ready for validation.
func (s Spec) Normalize(defaultMaxRetries int) Spec {
	if s.Priority == 0 {
		s.Priority = DefaultPriority
	}
	if s.MaxRetries == nil {
		n := defaultMaxRetries
		s.MaxRetries = &n
	}
	if s.Payload == nil {
		s.Payload = map[string]interface{}{}
	}
	return s
}

// Validate checks a normalized Spec against the invariants Store.Create
// requires: job_type known (when knownType is non-nil —
// a nil checker means "accept any type", used by test doubles that
// don't wire a handler registry), priority in [1,10], and non-negative
// numeric fields. It returns an *errs.ValidationError aggregating every
// problem found, never just the first.
func Validate(s Spec, knownType func(string) bool) error {
	v := &errs.ValidationError{}

	if s.JobType == "" {
		v.Add(fmt.Errorf("job_type is required"))
	} else if knownType != nil && !knownType(s.JobType) {
		v.Add(fmt.Errorf("unknown job_type %q", s.JobType))
	}
	if s.Priority < MinPriority || s.Priority > MaxPriority {
		v.Add(fmt.Errorf("priority must be in [%d,%d], got %d", MinPriority, MaxPriority, s.Priority))
	}
	if s.EstimatedDuration < 0 {
		v.Add(fmt.Errorf("estimated_duration must be non-negative, got %v", s.EstimatedDuration))
	}
	if s.MaxRetries != nil && *s.MaxRetries < 0 {
		v.Add(fmt.Errorf("max_retries must be non-negative, got %d", *s.MaxRetries))
	}

	if v.HasErrors() {
		return v
	}
	return nil
}

// DLQEntry is an append-only dead-letter record.
type DLQEntry struct {
	JobID      string    `json:"job_id"`
	FinalError string    `json:"final_error"`
	RetryCount int       `json:"retry_count"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Summary is the lightweight DTO the Policy layer orders — the scheduler
// doesn't need (and shouldn't depend on) the full Job record.
type Summary struct {
	ID                string
	Priority          int
	EstimatedDuration float64
	CreatedAt         time.Time
}
