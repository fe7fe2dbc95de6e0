package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// ClientConfig configures the focus timer client.
type ClientConfig struct {
	LedgerURL string
	CachePath string
	AutoStart bool
	// SyncSchedule is a cron spec for the background health check.
	SyncSchedule   string
	RequestTimeout time.Duration
	// IdleAfter pauses a running work phase after this much input
	// inactivity. Zero disables idle detection.
	IdleAfter time.Duration
	LogLevel  string
}

func LoadClient() ClientConfig {
	_ = godotenv.Load()

	return ClientConfig{
		LedgerURL:      getEnv("FOCUS_LEDGER_URL", "http://localhost:4000"),
		CachePath:      getEnv("FOCUS_CACHE_PATH", defaultCachePath()),
		AutoStart:      getEnvBool("FOCUS_AUTO_START", false),
		SyncSchedule:   getEnv("FOCUS_SYNC_SCHEDULE", "@every 30s"),
		RequestTimeout: getEnvDuration("FOCUS_REQUEST_TIMEOUT", 5*time.Second),
		IdleAfter:      getEnvDuration("FOCUS_IDLE_AFTER", 0),
		LogLevel:       getEnv("FOCUS_LOG_LEVEL", "warn"),
	}
}

func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(".", "focus-cache.yaml")
	}
	return filepath.Join(dir, "focus", "cache.yaml")
}
