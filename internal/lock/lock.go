// Package lock provides a distributed mutual-exclusion primitive used to
// enforce single-engine-instance operation: at most one Scheduler Engine
// may hold the dispatch lock at a time, even when multiple engine
// processes are started against the same store.
package lock

import "hash/fnv"

// Manager acquires and releases a named advisory lock. Acquire blocks
// until the lock is held.
type Manager interface {
	Acquire(name string) error
	Release(name string) error
}

// EngineLockName is the advisory lock the Scheduler Engine contends on.
// MigrationLockName guards schema setup so concurrent process start-up
// doesn't race on CREATE TABLE.
const (
	EngineLockName    = "jobengine:engine-dispatch"
	MigrationLockName = "jobengine:schema-migration"
)

// LockKey hashes a lock name down to the int32 Postgres advisory locks
// key on, so a lock is named by what it protects rather than by a
// hand-picked integer that two unrelated locks could collide on by
// coincidence.
func LockKey(name string) int32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return int32(h.Sum32())
}
