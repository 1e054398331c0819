// Package engine implements the Scheduler Engine: the periodic loop
// that drains PENDING jobs from the Store into the currently active
// Policy, pops them in policy order, transitions them to SCHEDULED, and
// pushes their ids onto the Ready Transport. The loop itself is a
// ticker-plus-select, the same shape as any periodic poller, generalized
// here into the Store/Transport/Policy trio the Scheduler Engine needs.
package engine

import (
	"context"
	"log"
	"time"

	"jobengine/internal/errs"
	"jobengine/internal/job"
	"jobengine/internal/policy"
	"jobengine/internal/store"
	"jobengine/internal/transport"
)

// Config holds the Engine's tunables.
type Config struct {
	TickInterval  time.Duration // ENGINE_TICK_MS
	ClaimBatch    int           // how many PENDING rows to pull from S per tick
	DispatchQuota int           // how many ids to push to T per tick; 0 = drain P fully
	DefaultPolicy string        // DEFAULT_POLICY
}

func DefaultConfig() Config {
	return Config{
		TickInterval:  100 * time.Millisecond,
		ClaimBatch:    100,
		DispatchQuota: 0,
		DefaultPolicy: policy.FCFS,
	}
}

// Engine is single-threaded by design: one goroutine runs Run, and the
// Policy it holds is never touched from anywhere else.
type Engine struct {
	store     store.Store
	transport transport.Transport
	cfg       Config

	p         policy.Policy
	policyNow string
	held      map[string]bool // ids currently sitting in p, tracked alongside it
}

func New(s store.Store, t transport.Transport, cfg Config) *Engine {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultConfig().TickInterval
	}
	if cfg.ClaimBatch <= 0 {
		cfg.ClaimBatch = DefaultConfig().ClaimBatch
	}
	if cfg.DefaultPolicy == "" {
		cfg.DefaultPolicy = DefaultConfig().DefaultPolicy
	}
	return &Engine{
		store:     s,
		transport: t,
		cfg:       cfg,
		p:         policy.New(cfg.DefaultPolicy),
		policyNow: cfg.DefaultPolicy,
		held:      make(map[string]bool),
	}
}

// Run blocks, ticking until ctx is canceled. Each tick is Tick; a
// transient failure is logged and retried on the next interval rather
// than aborting the loop.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := e.Tick(ctx); err != nil {
				log.Printf("engine: tick error: %v", err)
			}
		}
	}
}

// Tick runs one full pass: sync the active policy, claim newly-PENDING
// jobs into it, dispatch from it, and return (the sleep between ticks
// is Run's ticker's job, not Tick's).
func (e *Engine) Tick(ctx context.Context) error {
	if err := e.syncPolicy(ctx); err != nil {
		return err
	}
	if err := e.claimNewlyPending(ctx); err != nil {
		return err
	}
	return e.dispatch(ctx)
}

// syncPolicy checks whether the Transport's active-policy name differs
// from the one the Engine currently holds; if so it builds a fresh
// Policy of the new kind and migrates every summary still held by
// re-offering it.
func (e *Engine) syncPolicy(ctx context.Context) error {
	name, err := e.transport.GetPolicy(ctx)
	if err != nil {
		return err
	}
	if name == "" || name == e.policyNow {
		return nil
	}

	fresh := policy.New(name)
	for _, summary := range e.p.Drain() {
		fresh.Offer(summary)
	}
	e.p = fresh
	e.policyNow = name
	return nil
}

// claimNewlyPending pulls freshly-PENDING jobs from the Store and offers
// each to the active Policy. The Policy contract doesn't require Offer
// to check membership across ticks cheaply, so the Engine tracks which
// ids it's currently holding to avoid re-offering the same job twice.
func (e *Engine) claimNewlyPending(ctx context.Context) error {
	claimed, err := e.store.ClaimPending(ctx, e.cfg.ClaimBatch)
	if err != nil {
		return err
	}

	for _, j := range claimed {
		if e.held[j.ID] {
			continue
		}
		e.p.Offer(job.Summary{
			ID:                j.ID,
			Priority:          j.Priority,
			EstimatedDuration: j.EstimatedDuration,
			CreatedAt:         j.CreatedAt,
		})
		e.held[j.ID] = true
	}
	return nil
}

// dispatch pops from the active Policy in its order, CASes the job
// PENDING→SCHEDULED on the Store, then pushes it onto the Transport. A
// Conflict (the job was canceled out from under us) is dropped silently
// rather than treated as an error.
func (e *Engine) dispatch(ctx context.Context) error {
	quota := e.cfg.DispatchQuota
	dispatched := 0

	for {
		if quota > 0 && dispatched >= quota {
			return nil
		}
		summary, ok := e.p.Next()
		if !ok {
			return nil
		}
		delete(e.held, summary.ID)

		err := e.store.Transition(ctx, summary.ID, job.StatusPending, job.StatusScheduled, store.Fields{})
		if err != nil {
			// A canceled job surfaces here as either NotFound (the
			// record is gone) or Conflict (raced by another
			// transition); either way, drop it and keep dispatching.
			if errs.IsConflict(err) || errs.IsNotFound(err) {
				continue
			}
			return err
		}

		if err := e.transport.Push(ctx, summary.ID); err != nil {
			// Compensate: give the job back to PENDING so recover()
			// isn't the only thing that can reclaim it. If the
			// compensation itself fails, leave it SCHEDULED — recover()
			// will sweep it on the next process restart.
			if compErr := e.store.Transition(ctx, summary.ID, job.StatusScheduled, job.StatusPending, store.Fields{}); compErr != nil {
				log.Printf("engine: job %s stuck SCHEDULED after failed push and failed compensation: push=%v comp=%v", summary.ID, err, compErr)
			}
			return err
		}
		dispatched++
	}
}
