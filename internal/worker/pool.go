// Package worker implements the Worker Pool: a semaphore-bounded set of
// concurrent job executions fed by a single block-popping loop over the
// Ready Transport, dispatching each job to the matching Handler
// Registry entry and driving the RUNNING → {COMPLETED, retried back to
// PENDING, FAILED→DLQ} leg of the job lifecycle. The Handler Registry is
// a typed job_type → func map in place of an args-slice callback map.
package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"jobengine/internal/errs"
	"jobengine/internal/handler"
	"jobengine/internal/job"
	"jobengine/internal/metrics"
	"jobengine/internal/store"
	"jobengine/internal/transport"
)

// Config holds the Worker Pool's tunables.
type Config struct {
	PoolSize    int           // WORKER_POOL_SIZE
	PopTimeout  time.Duration // WORKER_POP_TIMEOUT_S
	InstanceTag string        // used as Fields.LockedBy, observability only
}

func DefaultConfig() Config {
	return Config{PoolSize: 4, PopTimeout: 5 * time.Second, InstanceTag: "worker"}
}

// Pool runs one block-popping loop and up to cfg.PoolSize concurrent job
// goroutines, all sharing one Store handle and one Transport handle, both
// safe for concurrent use.
type Pool struct {
	store     store.Store
	transport transport.Transport
	registry  *handler.Registry
	cfg       Config

	// OnTransition, if set, is called after every successful CAS this
	// pool performs — used by tests asserting exact transition counts,
	// and by the Lifecycle Event Notifier.
	OnTransition func(id string, from, to job.Status)
}

func New(s store.Store, t transport.Transport, r *handler.Registry, cfg Config) *Pool {
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = DefaultConfig().PoolSize
	}
	if cfg.PopTimeout <= 0 {
		cfg.PopTimeout = DefaultConfig().PopTimeout
	}
	if cfg.InstanceTag == "" {
		cfg.InstanceTag = DefaultConfig().InstanceTag
	}
	return &Pool{store: s, transport: t, registry: r, cfg: cfg}
}

// Run blocks until ctx is canceled. A single loop block-pops ready job
// ids and hands each to its own goroutine, gated by a semaphore weighted
// at cfg.PoolSize so at most that many jobs execute concurrently — the
// pop loop itself never blocks on a slow handler. Run waits for every
// in-flight job to finish before returning.
func (p *Pool) Run(ctx context.Context) {
	sem := semaphore.NewWeighted(int64(p.cfg.PoolSize))
	var wg sync.WaitGroup

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		default:
		}

		jobID, err := p.transport.BlockPop(ctx, p.cfg.PopTimeout)
		if err != nil {
			if ctx.Err() != nil {
				wg.Wait()
				return
			}
			log.Printf("worker: pop error: %v", err)
			continue
		}
		if jobID == "" {
			continue // timeout, loop
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return
		}
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			defer sem.Release(1)
			p.handleOne(ctx, id)
		}(jobID)
	}
}

// handleOne claims, executes, and verdicts a single popped job id.
func (p *Pool) handleOne(ctx context.Context, jobID string) {
	now := time.Now()
	err := p.store.Transition(ctx, jobID, job.StatusScheduled, job.StatusRunning, store.Fields{
		StartedAt: &now,
		LockedBy:  &p.cfg.InstanceTag,
	})
	if err != nil {
		// Canceled or already claimed by another executor: discard
		// and continue.
		if errs.IsConflict(err) || errs.IsNotFound(err) {
			return
		}
		log.Printf("worker: transition to RUNNING failed for %s: %v", jobID, err)
		return
	}
	p.notify(jobID, job.StatusScheduled, job.StatusRunning)

	j, err := p.store.Get(ctx, jobID)
	if err != nil {
		log.Printf("worker: get %s after claiming RUNNING failed: %v", jobID, err)
		return
	}

	fn, ok := p.registry.Lookup(j.JobType)
	if !ok {
		// Defense in depth: Store.Create already refused this
		// job_type, so a miss here should be unreachable. Treat it as
		// a permanent failure with no retry.
		p.fail(ctx, j, handler.ErrUnknownType(j.JobType).Error(), true)
		return
	}

	result, handlerErr := fn(ctx, j.Payload)
	if handlerErr == nil {
		p.succeed(ctx, j, result)
		return
	}
	p.fail(ctx, j, handlerErr.Error(), false)
}

func (p *Pool) succeed(ctx context.Context, j *job.Job, result map[string]interface{}) {
	now := time.Now()
	err := p.store.Transition(ctx, j.ID, job.StatusRunning, job.StatusCompleted, store.Fields{
		FinishedAt: &now,
		Result:     result,
	})
	if err != nil {
		log.Printf("worker: transition to COMPLETED failed for %s: %v", j.ID, err)
		return
	}
	p.notify(j.ID, job.StatusRunning, job.StatusCompleted)
	metrics.JobsCompletedTotal.Inc()
	if j.StartedAt != nil {
		metrics.JobDurationSeconds.WithLabelValues(j.JobType).Observe(now.Sub(*j.StartedAt).Seconds())
	}
}

// fail retries if budget remains, else moves the job to FAILED and
// appends it to the DLQ. permanent forces the FAILED branch regardless
// of remaining retry budget (the unknown-handler case, a permanent
// infra failure that retrying can never fix).
func (p *Pool) fail(ctx context.Context, j *job.Job, errMsg string, permanent bool) {
	if !permanent && j.RetryCount+1 <= j.MaxRetries {
		p.retry(ctx, j, errMsg)
		return
	}

	now := time.Now()
	err := p.store.Transition(ctx, j.ID, job.StatusRunning, job.StatusFailed, store.Fields{
		FinishedAt: &now,
		Error:      &errMsg,
	})
	if err != nil {
		log.Printf("worker: transition to FAILED failed for %s: %v", j.ID, err)
		return
	}
	p.notify(j.ID, job.StatusRunning, job.StatusFailed)
	metrics.JobsFailedTotal.Inc()

	dlqErr := p.transport.AppendDLQ(ctx, job.DLQEntry{
		JobID:      j.ID,
		FinalError: errMsg,
		RetryCount: j.RetryCount,
	})
	if dlqErr != nil {
		log.Printf("worker: DLQ append failed for %s: %v", j.ID, dlqErr)
	}
}

// retry moves a job RUNNING→RETRIED (observable in history) immediately
// followed by RETRIED→PENDING, so the job re-enters the same lifecycle
// the Engine already knows how to dispatch.
func (p *Pool) retry(ctx context.Context, j *job.Job, errMsg string) {
	nextCount := j.RetryCount + 1
	err := p.store.Transition(ctx, j.ID, job.StatusRunning, job.StatusRetried, store.Fields{
		RetryCount: &nextCount,
		Error:      &errMsg,
	})
	if err != nil {
		log.Printf("worker: transition to RETRIED failed for %s: %v", j.ID, err)
		return
	}
	p.notify(j.ID, job.StatusRunning, job.StatusRetried)
	metrics.JobsRetriedTotal.Inc()

	if err := p.store.Transition(ctx, j.ID, job.StatusRetried, job.StatusPending, store.Fields{}); err != nil {
		log.Printf("worker: transition RETRIED->PENDING failed for %s: %v", j.ID, err)
		return
	}
	p.notify(j.ID, job.StatusRetried, job.StatusPending)
}

func (p *Pool) notify(id string, from, to job.Status) {
	if p.OnTransition != nil {
		p.OnTransition(id, from, to)
	}
}
