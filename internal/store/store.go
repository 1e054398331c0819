// Package store defines the Job Store contract: durable persistence
// with CAS-guarded status transitions.
package store

import (
	"context"
	"time"

	"jobengine/internal/job"
)

// Store is the durable record of every Job the system has ever accepted.
// Implementations must make Transition atomic: it succeeds only if the
// job's current status equals from, and fails with an errs.ConflictError
// otherwise (see internal/errs).
type Store interface {
	// Create persists a new job in PENDING status and returns it.
	Create(ctx context.Context, spec job.Spec) (*job.Job, error)

	// Get returns a single job by id, or an errs.NotFoundError.
	Get(ctx context.Context, id string) (*job.Job, error)

	// List returns jobs, optionally filtered by status and/or job_type,
	// newest first.
	List(ctx context.Context, status job.Status, jobType string, limit, offset int) ([]*job.Job, error)

	// CountList reports how many jobs match the same status/job_type
	// filter List would apply, ignoring limit/offset — the total a
	// paginated listing needs to report.
	CountList(ctx context.Context, status job.Status, jobType string) (int, error)

	// Transition performs a CAS: id's status must equal from, then it
	// becomes to. fields carries any other columns to update alongside
	// the status change (e.g. result, error, started_at).
	Transition(ctx context.Context, id string, from, to job.Status, fields Fields) error

	// Delete removes a job, but only while it is still PENDING or
	// SCHEDULED. errs.ConflictError if RUNNING or terminal,
	// errs.NotFoundError if unknown.
	Delete(ctx context.Context, id string) error

	// ClaimPending returns up to limit PENDING jobs in created_at
	// ascending order, without transitioning them — the read-only feed
	// the Scheduler Engine drains into its in-memory Policy.
	ClaimPending(ctx context.Context, limit int) ([]*job.Job, error)

	// RecoverStuck sweeps SCHEDULED and ownerless RUNNING jobs back to
	// PENDING without incrementing retry_count, recovering from a crashed
	// Engine or Worker Pool process.
	RecoverStuck(ctx context.Context, runningOwnerTTL time.Duration) (int, error)

	// CountByStatus supports the stats surface in the HTTP API.
	CountByStatus(ctx context.Context) (map[job.Status]int, error)

	Close() error
}

// Fields is a sparse set of column updates applied alongside a
// Transition. Nil pointers mean "leave unchanged".
type Fields struct {
	RetryCount *int
	Result     map[string]interface{}
	Error      *string
	LockedBy   *string
	StartedAt  *time.Time
	FinishedAt *time.Time
}
