package policy

import (
	"container/heap"

	"jobengine/internal/job"
)

// sjfItem pairs a summary with the monotonic counter that breaks ties
// between equal durations, the (duration, counter, job) tuple a
// heapq-backed shortest-job-first scheduler pushes.
type sjfItem struct {
	summary job.Summary
	seq     int64
}

type sjfHeap []sjfItem

func (h sjfHeap) Len() int { return len(h) }
func (h sjfHeap) Less(i, j int) bool {
	if h[i].summary.EstimatedDuration != h[j].summary.EstimatedDuration {
		return h[i].summary.EstimatedDuration < h[j].summary.EstimatedDuration
	}
	return h[i].seq < h[j].seq
}
func (h sjfHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *sjfHeap) Push(x any)   { *h = append(*h, x.(sjfItem)) }
func (h *sjfHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// SJFPolicy dequeues the job with the smallest EstimatedDuration first,
// minimizing average waiting time — at the cost of starving long jobs if
// short ones keep arriving.
type SJFPolicy struct {
	h       sjfHeap
	nextSeq int64
	held    map[string]bool
}

func NewSJF() *SJFPolicy {
	p := &SJFPolicy{held: make(map[string]bool)}
	heap.Init(&p.h)
	return p
}

// Offer is a no-op if j.ID is already in the heap.
func (p *SJFPolicy) Offer(j job.Summary) {
	if p.held[j.ID] {
		return
	}
	p.held[j.ID] = true
	heap.Push(&p.h, sjfItem{summary: j, seq: p.nextSeq})
	p.nextSeq++
}

func (p *SJFPolicy) Next() (job.Summary, bool) {
	if p.h.Len() == 0 {
		return job.Summary{}, false
	}
	item := heap.Pop(&p.h).(sjfItem)
	delete(p.held, item.summary.ID)
	return item.summary, true
}

func (p *SJFPolicy) Peek() (job.Summary, bool) {
	if p.h.Len() == 0 {
		return job.Summary{}, false
	}
	return p.h[0].summary, true
}

func (p *SJFPolicy) Size() int { return p.h.Len() }

func (p *SJFPolicy) Name() string { return SJF }

func (p *SJFPolicy) Drain() []job.Summary {
	out := make([]job.Summary, 0, p.h.Len())
	for p.h.Len() > 0 {
		item := heap.Pop(&p.h).(sjfItem)
		out = append(out, item.summary)
	}
	p.held = make(map[string]bool)
	return out
}
