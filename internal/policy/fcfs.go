package policy

import "jobengine/internal/job"

// FCFSPolicy runs jobs in arrival order. Simplest possible queue: a
// slice used as a deque, appended at the tail and popped from the head.
//
// Fair, but a long job still blocks everything behind it — the convoy
// effect.
type FCFSPolicy struct {
	queue []job.Summary
	held  map[string]bool
}

func NewFCFS() *FCFSPolicy {
	return &FCFSPolicy{held: make(map[string]bool)}
}

// Offer is a no-op if j.ID is already queued, so a duplicate offer
// never produces a duplicate dispatch.
func (p *FCFSPolicy) Offer(j job.Summary) {
	if p.held[j.ID] {
		return
	}
	p.held[j.ID] = true
	p.queue = append(p.queue, j)
}

func (p *FCFSPolicy) Next() (job.Summary, bool) {
	if len(p.queue) == 0 {
		return job.Summary{}, false
	}
	j := p.queue[0]
	p.queue = p.queue[1:]
	delete(p.held, j.ID)
	return j, true
}

func (p *FCFSPolicy) Peek() (job.Summary, bool) {
	if len(p.queue) == 0 {
		return job.Summary{}, false
	}
	return p.queue[0], true
}

func (p *FCFSPolicy) Size() int { return len(p.queue) }

func (p *FCFSPolicy) Name() string { return FCFS }

func (p *FCFSPolicy) Drain() []job.Summary {
	out := p.queue
	p.queue = nil
	p.held = make(map[string]bool)
	return out
}
