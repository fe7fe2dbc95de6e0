package db

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebind(t *testing.T) {
	query := `UPDATE progress SET xp = ?, work_sessions = ? WHERE id = ?`
	assert.Equal(t, query, SQLite.Rebind(query))
	assert.Equal(t, `UPDATE progress SET xp = $1, work_sessions = $2 WHERE id = $3`, Postgres.Rebind(query))
	assert.Equal(t, "", SQLite.ForUpdate())
	assert.Equal(t, " FOR UPDATE", Postgres.ForUpdate())
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, _, err := Open("mysql", "whatever")
	require.Error(t, err)
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, dialect, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	require.Equal(t, SQLite, dialect)
	t.Cleanup(func() {
		_ = database.Close()
	})
	return database
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	database := openTestDB(t)

	require.NoError(t, RunMigrations(database, SQLite, Migrations()))
	require.NoError(t, RunMigrations(database, SQLite, Migrations()))

	var applied int
	require.NoError(t, database.QueryRow(`SELECT COUNT(1) FROM schema_migrations`).Scan(&applied))
	assert.Equal(t, 2, applied)

	for _, table := range []string{"settings", "progress", "achievements", "work_sessions"} {
		var name string
		err := database.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, "table %s", table)
	}

	var goalColumns int
	require.NoError(t, database.QueryRow(
		`SELECT COUNT(1) FROM pragma_table_info('settings') WHERE name = 'daily_goal_minutes'`,
	).Scan(&goalColumns))
	assert.Equal(t, 1, goalColumns)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	database := openTestDB(t)
	require.NoError(t, RunMigrations(database, SQLite, Migrations()))

	boom := errors.New("boom")
	err := WithTx(context.Background(), database, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO achievements (code, name, description) VALUES ('x', 'X', 'x')`); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, database.QueryRow(`SELECT COUNT(1) FROM achievements`).Scan(&count))
	assert.Zero(t, count)

	err = WithTx(context.Background(), database, func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO achievements (code, name, description) VALUES ('y', 'Y', 'y')`)
		return err
	})
	require.NoError(t, err)
	require.NoError(t, database.QueryRow(`SELECT COUNT(1) FROM achievements`).Scan(&count))
	assert.Equal(t, 1, count)
}
