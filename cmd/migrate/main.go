package main

import (
	"log/slog"
	"os"

	"pomodoro/internal/config"
	"pomodoro/internal/db"
	"pomodoro/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

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

	logger.Info("migrations applied successfully", "driver", dialect.Name)
}
