// Package transport defines the Ready Transport contract: a FIFO-ish
// channel that carries job ids the Scheduler Engine has already
// ordered, plus a small piece of shared state the rest of the system
// needs to read — the active policy name.
package transport

import (
	"context"
	"time"

	"jobengine/internal/job"
)

// Transport moves ready job ids from the Scheduler Engine to the Worker
// Pool. Implementations need not preserve ordering themselves — ordering
// is the Policy's job before a push — but they must be FIFO for a given
// push sequence.
type Transport interface {
	// Push makes a job id available for a worker to claim.
	Push(ctx context.Context, jobID string) error

	// BlockPop waits up to timeout for a job id to become available.
	// Returns ("", nil) on timeout rather than an error.
	BlockPop(ctx context.Context, timeout time.Duration) (string, error)

	// Depth reports how many job ids are currently queued.
	Depth(ctx context.Context) (int64, error)

	// GetPolicy/SetPolicy hold the name of the scheduling policy
	// currently in effect, readable by any process — this is what makes
	// a policy switch take effect at runtime without a restart.
	GetPolicy(ctx context.Context) (string, error)
	SetPolicy(ctx context.Context, name string) error

	// AppendDLQ and ListDLQ manage the dead-letter log: an append-only
	// record of permanently-failed jobs, carried on the same transport
	// that carries ready job ids rather than on the Job Store.
	AppendDLQ(ctx context.Context, entry job.DLQEntry) error
	ListDLQ(ctx context.Context, limit, offset int) ([]job.DLQEntry, error)

	Close() error
}
