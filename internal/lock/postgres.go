package lock

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresManager implements Manager with Postgres session-level
// advisory locks, keyed by the FNV-32a hash of the caller's lock name
// rather than a literal integer.
type PostgresManager struct {
	db *sql.DB
}

func NewPostgresManager(db *sql.DB) *PostgresManager {
	return &PostgresManager{db: db}
}

func (m *PostgresManager) Acquire(name string) error {
	_, err := m.db.ExecContext(context.Background(), "SELECT pg_advisory_lock($1)", LockKey(name))
	if err != nil {
		return fmt.Errorf("acquire lock %q: %w", name, err)
	}
	return nil
}

func (m *PostgresManager) Release(name string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := m.db.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", LockKey(name))
	if err != nil {
		return fmt.Errorf("release lock %q: %w", name, err)
	}
	return nil
}
