// Package policy implements the scheduling policy component: the
// in-memory ordering strategy the Scheduler Engine applies before
// handing a job to the Ready Transport. Each implementation sits behind
// a small interface and a name-keyed factory (internal/policy.New), the
// same shape as a pluggable backend-driver switch.
package policy

import "jobengine/internal/job"

const (
	FCFS       = "fcfs"
	SJF        = "sjf"
	Priority   = "priority"
	RoundRobin = "round_robin"
)

// Policy orders queued job summaries. The Scheduler Engine only ever
// calls these methods — it never knows which concrete policy it's
// holding.
type Policy interface {
	Offer(job.Summary)
	Next() (job.Summary, bool)
	Peek() (job.Summary, bool)
	Size() int
	Name() string

	// Drain removes and returns every queued summary in this policy's
	// own order, used when the Scheduler Engine migrates a live queue
	// to a newly-selected policy after a runtime switch.
	Drain() []job.Summary
}

// New constructs the named policy, or FCFS if name is empty/unknown —
// an unknown policy name should never silently stall scheduling.
func New(name string) Policy {
	switch name {
	case SJF:
		return NewSJF()
	case Priority:
		return NewPriority()
	case RoundRobin:
		return NewRoundRobin()
	default:
		return NewFCFS()
	}
}
