package client

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"pomodoro/internal/model"
)

// CacheData is the last known ledger state. It only ever holds values
// returned by the ledger.
type CacheData struct {
	Settings  *model.Settings     `yaml:"settings,omitempty"`
	Progress  *model.ProgressView `yaml:"progress,omitempty"`
	FetchedAt time.Time           `yaml:"fetched_at,omitempty"`
}

// Cache persists CacheData to a YAML file.
type Cache struct {
	path string
	mu   sync.Mutex
}

func NewCache(path string) *Cache {
	return &Cache{path: path}
}

func (c *Cache) Path() string {
	return c.path
}

// Load reads the cache. A missing file yields empty data.
func (c *Cache) Load() (CacheData, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load()
}

func (c *Cache) StoreSettings(settings model.Settings, fetchedAt time.Time) error {
	return c.update(func(data *CacheData) {
		data.Settings = &settings
		data.FetchedAt = fetchedAt
	})
}

func (c *Cache) StoreProgress(view model.ProgressView, fetchedAt time.Time) error {
	return c.update(func(data *CacheData) {
		data.Progress = &view
		data.FetchedAt = fetchedAt
	})
}

func (c *Cache) update(apply func(*CacheData)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := c.load()
	if err != nil {
		// A corrupt cache is overwritten.
		data = CacheData{}
	}
	apply(&data)
	return c.save(data)
}

func (c *Cache) load() (CacheData, error) {
	var data CacheData
	raw, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return data, nil
		}
		return data, fmt.Errorf("read cache file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return CacheData{}, fmt.Errorf("parse cache yaml: %w", err)
	}
	return data, nil
}

func (c *Cache) save(data CacheData) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	serialized, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal cache yaml: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), ".cache-*.yaml")
	if err != nil {
		return fmt.Errorf("create cache temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(serialized); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("replace cache file: %w", err)
	}
	return nil
}
