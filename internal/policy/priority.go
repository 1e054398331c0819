package policy

import (
	"container/heap"

	"jobengine/internal/job"
)

// priorityItem pairs a summary with the monotonic counter that breaks
// ties between equal priorities, the same (key, counter, job) shape
// sjfItem uses.
type priorityItem struct {
	summary job.Summary
	seq     int64
}

type priorityHeap []priorityItem

func (h priorityHeap) Len() int { return len(h) }
func (h priorityHeap) Less(i, j int) bool {
	if h[i].summary.Priority != h[j].summary.Priority {
		return h[i].summary.Priority < h[j].summary.Priority
	}
	return h[i].seq < h[j].seq
}
func (h priorityHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *priorityHeap) Push(x any)   { *h = append(*h, x.(priorityItem)) }
func (h *priorityHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// PriorityPolicy dequeues the job with the lowest Priority value first
// (1 = highest priority), tie-broken by arrival order.
type PriorityPolicy struct {
	h       priorityHeap
	nextSeq int64
	held    map[string]bool
}

func NewPriority() *PriorityPolicy {
	p := &PriorityPolicy{held: make(map[string]bool)}
	heap.Init(&p.h)
	return p
}

// Offer is a no-op if j.ID is already in the heap.
func (p *PriorityPolicy) Offer(j job.Summary) {
	if p.held[j.ID] {
		return
	}
	p.held[j.ID] = true
	heap.Push(&p.h, priorityItem{summary: j, seq: p.nextSeq})
	p.nextSeq++
}

func (p *PriorityPolicy) Next() (job.Summary, bool) {
	if p.h.Len() == 0 {
		return job.Summary{}, false
	}
	item := heap.Pop(&p.h).(priorityItem)
	delete(p.held, item.summary.ID)
	return item.summary, true
}

func (p *PriorityPolicy) Peek() (job.Summary, bool) {
	if p.h.Len() == 0 {
		return job.Summary{}, false
	}
	return p.h[0].summary, true
}

func (p *PriorityPolicy) Size() int { return p.h.Len() }

func (p *PriorityPolicy) Name() string { return Priority }

func (p *PriorityPolicy) Drain() []job.Summary {
	out := make([]job.Summary, 0, p.h.Len())
	for p.h.Len() > 0 {
		item := heap.Pop(&p.h).(priorityItem)
		out = append(out, item.summary)
	}
	p.held = make(map[string]bool)
	return out
}
