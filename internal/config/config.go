package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config is the ledger server configuration. Values come from an optional
// TOML file named by CONFIG_FILE; environment variables override the file.
type Config struct {
	Port          string   `toml:"port"`
	DBDriver      string   `toml:"db_driver"`
	DBDSN         string   `toml:"db_dsn"`
	MigrationsDir string   `toml:"migrations_dir"`
	CORSOrigins   []string `toml:"cors_origins"`
	Timezone      string   `toml:"timezone"`
	XPPerSession  int      `toml:"xp_per_session"`
	LogLevel      string   `toml:"log_level"`
	LogFormat     string   `toml:"log_format"`
}

func Default() Config {
	return Config{
		Port:         "4000",
		DBDriver:     "sqlite3",
		DBDSN:        "./data/pomodoro.db",
		CORSOrigins:  []string{"http://localhost:5173", "http://127.0.0.1:5173"},
		Timezone:     "UTC",
		XPPerSession: 10,
		LogLevel:     "info",
		LogFormat:    "text",
	}
}

func Load() (Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DBDriver = getEnv("DB_DRIVER", cfg.DBDriver)
	cfg.DBDSN = getEnv("DB_PATH", cfg.DBDSN)
	cfg.DBDSN = getEnv("DB_DSN", cfg.DBDSN)
	cfg.MigrationsDir = getEnv("MIGRATIONS_DIR", cfg.MigrationsDir)
	cfg.CORSOrigins = getEnvList("CORS_ORIGINS", cfg.CORSOrigins)
	cfg.Timezone = getEnv("TIMEZONE", cfg.Timezone)
	cfg.XPPerSession = getEnvInt("XP_PER_SESSION", cfg.XPPerSession)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)

	if _, err := cfg.Location(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Location resolves Timezone, the zone in which calendar days are counted.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if ext := filepath.Ext(path); ext != ".toml" && ext != "" {
		return fmt.Errorf("unsupported config format %q", ext)
	}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return fmt.Errorf("decode TOML: %w", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
