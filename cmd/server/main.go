package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"pomodoro/internal/config"
	"pomodoro/internal/db"
	"pomodoro/internal/handler"
	"pomodoro/internal/logging"
	"pomodoro/internal/repository"
	"pomodoro/internal/router"
	"pomodoro/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	database, dialect, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Error("open database", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.RunMigrations(database, dialect, db.MigrationsFrom(cfg.MigrationsDir)); err != nil {
		logger.Error("run migrations", "error", err)
		os.Exit(1)
	}

	location, err := cfg.Location()
	if err != nil {
		logger.Error("resolve timezone", "error", err)
		os.Exit(1)
	}

	ledgerService := service.NewLedgerService(database, service.LedgerRepositories{
		Settings:     repository.NewSettingsRepository(database, dialect),
		Progress:     repository.NewProgressRepository(database, dialect),
		Achievements: repository.NewAchievementRepository(database, dialect),
		Sessions:     repository.NewSessionRepository(database, dialect),
	}, service.LedgerOptions{
		Location:     location,
		XPPerSession: cfg.XPPerSession,
		Logger:       logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ledgerService.Bootstrap(ctx); err != nil {
		logger.Error("seed ledger", "error", err)
		os.Exit(1)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := router.New(handler.NewLedgerHandler(ledgerService), cfg.CORSOrigins, logger)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("ledger listening", "port", cfg.Port, "driver", dialect.Name, "timezone", location.String())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("run server", "error", err)
		os.Exit(1)
	}
}
