// Package memory provides an in-process Store fake satisfying the same
// contract as internal/store/postgres, used by engine and worker tests
// so they never need a live database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"jobengine/internal/errs"
	"jobengine/internal/job"
	"jobengine/internal/store"
)

type Store struct {
	mu                sync.Mutex
	jobs              map[string]*job.Job
	knownType         func(string) bool
	defaultMaxRetries int
}

// Option configures a Store at construction, matching the functional
// options style internal/transport/redis already uses.
type Option func(*Store)

// WithJobTypeValidator restricts Create to job_types fn reports known.
// Left unset, any non-empty job_type is accepted — the shape test
// doubles want when they don't carry a handler registry.
func WithJobTypeValidator(fn func(string) bool) Option {
	return func(s *Store) { s.knownType = fn }
}

// WithDefaultMaxRetries sets the max_retries a submission gets when it
// doesn't specify one.
func WithDefaultMaxRetries(n int) Option {
	return func(s *Store) { s.defaultMaxRetries = n }
}

func New(opts ...Option) *Store {
	s := &Store{jobs: make(map[string]*job.Job), defaultMaxRetries: 3}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) Create(_ context.Context, spec job.Spec) (*job.Job, error) {
	spec = spec.Normalize(s.defaultMaxRetries)
	if err := job.Validate(spec, s.knownType); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	j := &job.Job{
		ID:                uuid.NewString(),
		Name:              spec.Name,
		JobType:           spec.JobType,
		Payload:           spec.Payload,
		Priority:          spec.Priority,
		EstimatedDuration: spec.EstimatedDuration,
		Status:            job.StatusPending,
		MaxRetries:        *spec.MaxRetries,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	s.jobs[j.ID] = j
	cp := *j
	return &cp, nil
}

func (s *Store) Get(_ context.Context, id string) (*job.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, errs.NewNotFound("job", id)
	}
	cp := *j
	return &cp, nil
}

func (s *Store) List(_ context.Context, status job.Status, jobType string, limit, offset int) ([]*job.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.filtered(status, jobType)
	sort.Slice(out, func(i, k int) bool {
		if out[i].CreatedAt.Equal(out[k].CreatedAt) {
			return out[i].ID > out[k].ID
		}
		return out[i].CreatedAt.After(out[k].CreatedAt)
	})
	if offset >= len(out) {
		return nil, nil
	}
	end := len(out)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return out[offset:end], nil
}

// CountList reports how many jobs match the same status/job_type
// filter List would apply, ignoring limit/offset.
func (s *Store) CountList(_ context.Context, status job.Status, jobType string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.filtered(status, jobType)), nil
}

func (s *Store) filtered(status job.Status, jobType string) []*job.Job {
	var out []*job.Job
	for _, j := range s.jobs {
		if status != "" && j.Status != status {
			continue
		}
		if jobType != "" && j.JobType != jobType {
			continue
		}
		cp := *j
		out = append(out, &cp)
	}
	return out
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return errs.NewNotFound("job", id)
	}
	if j.Status != job.StatusPending && j.Status != job.StatusScheduled {
		return errs.NewConflict(id, "PENDING or SCHEDULED", j.Status.String())
	}
	delete(s.jobs, id)
	return nil
}

func (s *Store) ClaimPending(_ context.Context, limit int) ([]*job.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*job.Job
	for _, j := range s.jobs {
		if j.Status == job.StatusPending {
			cp := *j
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, k int) bool {
		if out[i].CreatedAt.Equal(out[k].CreatedAt) {
			return out[i].ID < out[k].ID
		}
		return out[i].CreatedAt.Before(out[k].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) Transition(_ context.Context, id string, from, to job.Status, f store.Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return errs.NewNotFound("job", id)
	}
	if j.Status != from {
		return errs.NewConflict(id, from.String(), j.Status.String())
	}

	j.Status = to
	j.UpdatedAt = time.Now()
	if f.RetryCount != nil {
		j.RetryCount = *f.RetryCount
	}
	if f.Result != nil {
		j.Result = f.Result
	}
	if f.Error != nil {
		j.Error = *f.Error
	}
	if f.LockedBy != nil {
		j.LockedBy = *f.LockedBy
		now := time.Now()
		j.LockedAt = &now
	} else if to == job.StatusPending {
		j.LockedBy = ""
		j.LockedAt = nil
	}
	if f.StartedAt != nil {
		j.StartedAt = f.StartedAt
	}
	if f.FinishedAt != nil {
		j.FinishedAt = f.FinishedAt
	}
	return nil
}

func (s *Store) RecoverStuck(_ context.Context, runningOwnerTTL time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	now := time.Now()
	for _, j := range s.jobs {
		switch {
		case j.Status == job.StatusScheduled:
			j.Status = job.StatusPending
			j.LockedBy = ""
			j.LockedAt = nil
			j.UpdatedAt = now
			n++
		case j.Status == job.StatusRunning && j.LockedAt != nil && now.Sub(*j.LockedAt) >= runningOwnerTTL:
			j.Status = job.StatusPending
			j.LockedBy = ""
			j.LockedAt = nil
			j.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (s *Store) CountByStatus(_ context.Context) (map[job.Status]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[job.Status]int)
	for _, j := range s.jobs {
		out[j.Status]++
	}
	return out, nil
}

func (s *Store) Close() error { return nil }
