// Package ledgertest wires a complete ledger over a temporary SQLite file for
// tests in other packages.
package ledgertest

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"pomodoro/internal/db"
	"pomodoro/internal/handler"
	"pomodoro/internal/repository"
	"pomodoro/internal/router"
	"pomodoro/internal/service"
)

// Options tweak the ledger under test. The zero value uses the wall clock.
type Options struct {
	Now         func() time.Time
	CORSOrigins []string
}

// NewHandler returns the ledger's HTTP handler backed by a fresh database.
func NewHandler(t *testing.T, opts Options) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	if err := db.RunMigrations(database, db.SQLite, db.Migrations()); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ledgerService := service.NewLedgerService(database, service.LedgerRepositories{
		Settings:     repository.NewSettingsRepository(database, db.SQLite),
		Progress:     repository.NewProgressRepository(database, db.SQLite),
		Achievements: repository.NewAchievementRepository(database, db.SQLite),
		Sessions:     repository.NewSessionRepository(database, db.SQLite),
	}, service.LedgerOptions{Now: opts.Now, Logger: logger})
	if err := ledgerService.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap ledger: %v", err)
	}

	corsOrigins := opts.CORSOrigins
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"http://localhost:5173"}
	}
	return router.New(handler.NewLedgerHandler(ledgerService), corsOrigins, logger)
}

// NewServer starts an httptest server around NewHandler.
func NewServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(NewHandler(t, opts))
	t.Cleanup(server.Close)
	return server
}
