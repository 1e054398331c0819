package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"jobengine/internal/errs"
	"jobengine/internal/job"
	"jobengine/internal/store"
)

// Store is the Postgres-backed Job Store, built on CAS-on-status
// transitions rather than a lock-then-set approach.
type Store struct {
	db                *sql.DB
	knownType         func(string) bool
	defaultMaxRetries int
}

// Option configures a Store at construction.
type Option func(*Store)

// WithJobTypeValidator restricts Create to job_types fn reports known.
func WithJobTypeValidator(fn func(string) bool) Option {
	return func(s *Store) { s.knownType = fn }
}

// WithDefaultMaxRetries sets the max_retries a submission gets when it
// doesn't specify one.
func WithDefaultMaxRetries(n int) Option {
	return func(s *Store) { s.defaultMaxRetries = n }
}

func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, defaultMaxRetries: 3}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) Create(ctx context.Context, spec job.Spec) (*job.Job, error) {
	spec = spec.Normalize(s.defaultMaxRetries)
	if err := job.Validate(spec, s.knownType); err != nil {
		return nil, err
	}

	payloadJSON, err := json.Marshal(spec.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	id := uuid.NewString()
	const query = `
		INSERT INTO jobengine_schema.jobs
			(id, name, job_type, payload, priority, estimated_duration,
			 status, retry_count, max_retries, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, now(), now())
		RETURNING created_at, updated_at
	`

	j := &job.Job{
		ID:                id,
		Name:              spec.Name,
		JobType:           spec.JobType,
		Payload:           spec.Payload,
		Priority:          spec.Priority,
		EstimatedDuration: spec.EstimatedDuration,
		Status:            job.StatusPending,
		MaxRetries:        *spec.MaxRetries,
	}

	err = s.db.QueryRowContext(ctx, query,
		id, spec.Name, spec.JobType, payloadJSON, spec.Priority,
		spec.EstimatedDuration, job.StatusPending, *spec.MaxRetries,
	).Scan(&j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return j, nil
}

func (s *Store) Get(ctx context.Context, id string) (*job.Job, error) {
	const query = `
		SELECT id, name, job_type, payload, priority, estimated_duration,
		       status, retry_count, max_retries, result, error,
		       locked_by, locked_at, created_at, updated_at, started_at, finished_at
		FROM jobengine_schema.jobs
		WHERE id = $1
	`
	row := s.db.QueryRowContext(ctx, query, id)
	j, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, errs.NewNotFound("job", id)
	}
	if err != nil {
		return nil, err
	}
	return j, nil
}

// listFilter builds a WHERE clause and its positional args for the
// optional status/job_type filter List and CountList share, the same
// set/args/n accumulation Transition uses for its SET clause.
func listFilter(status job.Status, jobType string) (string, []interface{}) {
	var clauses []string
	var args []interface{}
	n := 1

	if status != "" {
		clauses = append(clauses, fmt.Sprintf("status = $%d", n))
		args = append(args, status)
		n++
	}
	if jobType != "" {
		clauses = append(clauses, fmt.Sprintf("job_type = $%d", n))
		args = append(args, jobType)
		n++
	}
	if len(clauses) == 0 {
		return "", args
	}
	where := " WHERE "
	for i, c := range clauses {
		if i > 0 {
			where += " AND "
		}
		where += c
	}
	return where, args
}

func (s *Store) List(ctx context.Context, status job.Status, jobType string, limit, offset int) ([]*job.Job, error) {
	where, args := listFilter(status, jobType)
	n := len(args) + 1
	query := fmt.Sprintf(`
		SELECT id, name, job_type, payload, priority, estimated_duration,
		       status, retry_count, max_retries, result, error,
		       locked_by, locked_at, created_at, updated_at, started_at, finished_at
		FROM jobengine_schema.jobs%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d
	`, where, n, n+1)
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*job.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// CountList reports the total rows the same status/job_type filter
// would match, ignoring limit/offset, so a paginated listing can
// report an accurate total instead of the page size.
func (s *Store) CountList(ctx context.Context, status job.Status, jobType string) (int, error) {
	where, args := listFilter(status, jobType)
	query := "SELECT COUNT(*) FROM jobengine_schema.jobs" + where

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count jobs: %w", err)
	}
	return count, nil
}

// Delete removes a job while it is still PENDING or SCHEDULED,
// guarded by the same RowsAffected-based CAS idiom as Transition.
func (s *Store) Delete(ctx context.Context, id string) error {
	const query = `
		DELETE FROM jobengine_schema.jobs
		WHERE id = $1 AND status IN ($2, $3)
	`
	res, err := s.db.ExecContext(ctx, query, id, job.StatusPending, job.StatusScheduled)
	if err != nil {
		return fmt.Errorf("delete job %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}
	current, getErr := s.Get(ctx, id)
	if getErr != nil {
		return getErr
	}
	return errs.NewConflict(id, "PENDING or SCHEDULED", current.Status.String())
}

// ClaimPending returns up to limit PENDING jobs in created_at ascending
// order, the read-only feed the Scheduler Engine drains into P.
func (s *Store) ClaimPending(ctx context.Context, limit int) ([]*job.Job, error) {
	const query = `
		SELECT id, name, job_type, payload, priority, estimated_duration,
		       status, retry_count, max_retries, result, error,
		       locked_by, locked_at, created_at, updated_at, started_at, finished_at
		FROM jobengine_schema.jobs
		WHERE status = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, job.StatusPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*job.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// Transition performs the CAS: the UPDATE's WHERE clause pins the
// expected current status, and RowsAffected == 0 means someone else
// already moved it — an errs.ConflictError, never a silent no-op.
func (s *Store) Transition(ctx context.Context, id string, from, to job.Status, f store.Fields) error {
	set := []string{"status = $1", "updated_at = now()"}
	args := []interface{}{to}
	n := 2

	if f.RetryCount != nil {
		set = append(set, fmt.Sprintf("retry_count = $%d", n))
		args = append(args, *f.RetryCount)
		n++
	}
	if f.Result != nil {
		resultJSON, err := json.Marshal(f.Result)
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		set = append(set, fmt.Sprintf("result = $%d", n))
		args = append(args, resultJSON)
		n++
	}
	if f.Error != nil {
		set = append(set, fmt.Sprintf("error = $%d", n))
		args = append(args, *f.Error)
		n++
	}
	if f.LockedBy != nil {
		set = append(set, fmt.Sprintf("locked_by = $%d", n))
		args = append(args, *f.LockedBy)
		n++
		set = append(set, "locked_at = now()")
	}
	if f.StartedAt != nil {
		set = append(set, fmt.Sprintf("started_at = $%d", n))
		args = append(args, *f.StartedAt)
		n++
	}
	if f.FinishedAt != nil {
		set = append(set, fmt.Sprintf("finished_at = $%d", n))
		args = append(args, *f.FinishedAt)
		n++
	}

	args = append(args, id, from)
	query := fmt.Sprintf(
		"UPDATE jobengine_schema.jobs SET %s WHERE id = $%d AND status = $%d",
		joinComma(set), n, n+1,
	)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("transition job %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		current, getErr := s.Get(ctx, id)
		if getErr != nil {
			return errs.NewConflict(id, from.String(), "unknown")
		}
		return errs.NewConflict(id, from.String(), current.Status.String())
	}
	return nil
}

// RecoverStuck sweeps stuck jobs back to PENDING: SCHEDULED jobs always
// go back (they never reached a worker), and RUNNING jobs
// whose lock is older than runningOwnerTTL are presumed crashed and also
// go back to PENDING, with retry_count untouched in both cases.
func (s *Store) RecoverStuck(ctx context.Context, runningOwnerTTL time.Duration) (int, error) {
	const query = `
		UPDATE jobengine_schema.jobs
		SET status = $1, locked_by = NULL, locked_at = NULL, updated_at = now()
		WHERE status = $2
		   OR (status = $3 AND locked_at IS NOT NULL AND locked_at < now() - $4::interval)
	`
	res, err := s.db.ExecContext(ctx, query,
		job.StatusPending, job.StatusScheduled, job.StatusRunning,
		fmt.Sprintf("%d seconds", int(runningOwnerTTL.Seconds())),
	)
	if err != nil {
		return 0, fmt.Errorf("recover stuck jobs: %w", err)
	}
	affected, err := res.RowsAffected()
	return int(affected), err
}

func (s *Store) CountByStatus(ctx context.Context) (map[job.Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM jobengine_schema.jobs GROUP BY status
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[job.Status]int)
	for rows.Next() {
		var st job.Status
		var count int
		if err := rows.Scan(&st, &count); err != nil {
			return nil, err
		}
		out[st] = count
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*job.Job, error) {
	var j job.Job
	var payloadJSON, resultJSON []byte
	var errText, lockedBy sql.NullString
	var lockedAt, startedAt, finishedAt sql.NullTime

	if err := row.Scan(
		&j.ID, &j.Name, &j.JobType, &payloadJSON, &j.Priority, &j.EstimatedDuration,
		&j.Status, &j.RetryCount, &j.MaxRetries, &resultJSON, &errText,
		&lockedBy, &lockedAt, &j.CreatedAt, &j.UpdatedAt, &startedAt, &finishedAt,
	); err != nil {
		return nil, err
	}

	if len(payloadJSON) > 0 {
		if err := json.Unmarshal(payloadJSON, &j.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
	}
	if len(resultJSON) > 0 {
		if err := json.Unmarshal(resultJSON, &j.Result); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
	}
	j.Error = errText.String
	j.LockedBy = lockedBy.String
	if lockedAt.Valid {
		t := lockedAt.Time
		j.LockedAt = &t
	}
	if startedAt.Valid {
		t := startedAt.Time
		j.StartedAt = &t
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		j.FinishedAt = &t
	}
	return &j, nil
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}
