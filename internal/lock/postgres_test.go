package lock

import (
	"database/sql"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPostgresManager(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mgr := NewPostgresManager(db)
	require.NotNil(t, mgr)
}

func TestPostgresManager_Acquire(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mgr := NewPostgresManager(db)

	mock.ExpectExec("SELECT pg_advisory_lock").
		WithArgs(LockKey(EngineLockName)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = mgr.Acquire(EngineLockName)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresManager_Acquire_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mgr := NewPostgresManager(db)

	mock.ExpectExec("SELECT pg_advisory_lock").
		WithArgs(LockKey("some-lock")).
		WillReturnError(sql.ErrConnDone)

	err = mgr.Acquire("some-lock")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "acquire lock")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresManager_Release(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mgr := NewPostgresManager(db)

	mock.ExpectExec("SELECT pg_advisory_unlock").
		WithArgs(LockKey(EngineLockName)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = mgr.Release(EngineLockName)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresManager_Release_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mgr := NewPostgresManager(db)

	mock.ExpectExec("SELECT pg_advisory_unlock").
		WithArgs(LockKey("another-lock")).
		WillReturnError(sql.ErrConnDone)

	err = mgr.Release("another-lock")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "release lock")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockKey_IsDeterministicAndDistinguishesNames(t *testing.T) {
	assert.Equal(t, LockKey(EngineLockName), LockKey(EngineLockName))
	assert.NotEqual(t, LockKey(EngineLockName), LockKey(MigrationLockName))
}
