package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

const (
	postgresMaxOpenConns    = 10
	postgresMaxIdleConns    = 5
	postgresConnMaxLifetime = 5 * time.Minute
)

func OpenPostgres(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("open postgres: dsn not set")
	}

	database, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	database.SetMaxOpenConns(postgresMaxOpenConns)
	database.SetMaxIdleConns(postgresMaxIdleConns)
	database.SetConnMaxLifetime(postgresConnMaxLifetime)

	if err := database.Ping(); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return database, nil
}

// Open opens the ledger database for the given driver name and returns the
// dialect its queries must be written in.
func Open(driver, dsn string) (*sql.DB, Dialect, error) {
	switch driver {
	case "", DriverSQLite:
		database, err := OpenSQLite(dsn)
		return database, SQLite, err
	case DriverPostgres:
		database, err := OpenPostgres(dsn)
		return database, Postgres, err
	default:
		return nil, Dialect{}, fmt.Errorf("unsupported db driver %q", driver)
	}
}
