package postgres

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"

	"jobengine/internal/lock"
)

const (
	baseDir = "./migrations"
	Schema  = "jobengine_schema"
)

// Init runs schema migrations under baseDir on db, behind a distributed
// lock so concurrent process start-up never races on CREATE TABLE. It
// operates on the caller's already-open connection pool rather than
// opening a second one, so the caller owns the single Close.
func Init(db *sql.DB, locker lock.Manager) error {
	if err := locker.Acquire(lock.MigrationLockName); err != nil {
		return err
	}
	defer locker.Release(lock.MigrationLockName)

	if err := db.Ping(); err != nil {
		return err
	}

	if _, err := db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", Schema)); err != nil {
		return err
	}

	scripts, err := readSQLScripts()
	if err != nil {
		return err
	}
	for _, script := range scripts {
		if _, err := db.Exec(script); err != nil {
			return err
		}
	}

	return nil
}

func readSQLScripts() ([]string, error) {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("postgres: no migrations directory at %s, skipping", baseDir)
			return nil, nil
		}
		return nil, err
	}

	var scripts []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(baseDir, entry.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, string(content))
	}
	return scripts, nil
}
