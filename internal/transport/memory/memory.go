// Package memory is an in-process Transport fake used by engine and
// worker tests, mirroring internal/store/memory.
package memory

import (
	"context"
	"sync"
	"time"

	"jobengine/internal/job"
)

type Transport struct {
	mu     sync.Mutex
	queue  []string
	policy string
	dlq    []job.DLQEntry
}

func New() *Transport {
	return &Transport{}
}

func (t *Transport) Push(_ context.Context, jobID string) error {
	t.mu.Lock()
	t.queue = append(t.queue, jobID)
	t.mu.Unlock()
	return nil
}

func (t *Transport) BlockPop(ctx context.Context, timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	const pollInterval = 5 * time.Millisecond

	for {
		t.mu.Lock()
		if len(t.queue) > 0 {
			id := t.queue[0]
			t.queue = t.queue[1:]
			t.mu.Unlock()
			return id, nil
		}
		t.mu.Unlock()

		if time.Now().After(deadline) {
			return "", nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

func (t *Transport) Depth(_ context.Context) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return int64(len(t.queue)), nil
}

func (t *Transport) GetPolicy(_ context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.policy, nil
}

func (t *Transport) SetPolicy(_ context.Context, name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.policy = name
	return nil
}

// AppendDLQ dedupes by job id, mirroring the uniqueness the Redis
// Transport enforces with its companion seen-set.
func (t *Transport) AppendDLQ(_ context.Context, entry job.DLQEntry) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, e := range t.dlq {
		if e.JobID == entry.JobID {
			return nil
		}
	}
	if entry.EnqueuedAt.IsZero() {
		entry.EnqueuedAt = time.Now()
	}
	t.dlq = append(t.dlq, entry)
	return nil
}

func (t *Transport) ListDLQ(_ context.Context, limit, offset int) ([]job.DLQEntry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if offset >= len(t.dlq) {
		return nil, nil
	}
	end := len(t.dlq)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]job.DLQEntry, end-offset)
	copy(out, t.dlq[offset:end])
	return out, nil
}

func (t *Transport) Close() error { return nil }
