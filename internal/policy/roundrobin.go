package policy

import "jobengine/internal/job"

// RoundRobinPolicy is structurally identical to FCFS — arrival-order
// FIFO. A job that re-enters after Next (a retried job the Scheduler
// Engine claims again once it is back in PENDING) is offered again and
// goes to the tail exactly like a fresh arrival. Running jobs are never
// preempted; there is no time quantum.
type RoundRobinPolicy struct {
	queue []job.Summary
	held  map[string]bool
}

func NewRoundRobin() *RoundRobinPolicy {
	return &RoundRobinPolicy{held: make(map[string]bool)}
}

// Offer is a no-op if j.ID is already queued. A requeue after Next has
// already removed the id from held, so a tail-requeue of a popped job
// still works.
func (p *RoundRobinPolicy) Offer(j job.Summary) {
	if p.held[j.ID] {
		return
	}
	p.held[j.ID] = true
	p.queue = append(p.queue, j)
}

func (p *RoundRobinPolicy) Next() (job.Summary, bool) {
	if len(p.queue) == 0 {
		return job.Summary{}, false
	}
	j := p.queue[0]
	p.queue = p.queue[1:]
	delete(p.held, j.ID)
	return j, true
}

func (p *RoundRobinPolicy) Peek() (job.Summary, bool) {
	if len(p.queue) == 0 {
		return job.Summary{}, false
	}
	return p.queue[0], true
}

func (p *RoundRobinPolicy) Size() int { return len(p.queue) }

func (p *RoundRobinPolicy) Name() string { return RoundRobin }

func (p *RoundRobinPolicy) Drain() []job.Summary {
	out := p.queue
	p.queue = nil
	p.held = make(map[string]bool)
	return out
}
