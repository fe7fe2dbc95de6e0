package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"pomodoro/internal/model"
	"pomodoro/internal/timer"
)

// Update is published whenever the syncer learns something new from the
// ledger or loses it.
type Update struct {
	Online   bool
	Settings *model.Settings
	Progress *model.ProgressView
}

type SyncerOptions struct {
	// Schedule is a cron spec for the periodic health check and refresh.
	Schedule string
	Timeout  time.Duration
	Logger   *slog.Logger
	Now      func() time.Time
	NewID    func() string
}

// Syncer reports completed sessions to the ledger without blocking the
// engine and keeps the cache fresh in the background.
type Syncer struct {
	ledger   *LedgerClient
	cache    *Cache
	logger   *slog.Logger
	timeout  time.Duration
	schedule string
	now      func() time.Time
	newID    func() string

	online  atomic.Bool
	updates chan Update
	wg      sync.WaitGroup
	cron    *cron.Cron
}

func NewSyncer(ledger *LedgerClient, cache *Cache, opts SyncerOptions) *Syncer {
	if opts.Schedule == "" {
		opts.Schedule = "@every 30s"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	return &Syncer{
		ledger:   ledger,
		cache:    cache,
		logger:   opts.Logger,
		timeout:  opts.Timeout,
		schedule: opts.Schedule,
		now:      opts.Now,
		newID:    opts.NewID,
		updates:  make(chan Update, 8),
	}
}

// Updates delivers ledger state changes. Updates are dropped when the
// consumer lags.
func (s *Syncer) Updates() <-chan Update {
	return s.updates
}

func (s *Syncer) Online() bool {
	return s.online.Load()
}

// SessionCompleted posts the session on its own goroutine. Failures are
// logged and the session is dropped.
func (s *Syncer) SessionCompleted(session timer.CompletedSession) {
	completion := SessionCompletion{
		SessionID:       s.newID(),
		StartedAt:       session.StartedAt.UTC(),
		EndedAt:         session.EndedAt.UTC(),
		DurationSeconds: session.DurationSeconds,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.post(completion)
	}()
}

func (s *Syncer) post(completion SessionCompletion) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	view, err := s.ledger.CompleteSession(ctx, completion)
	if err != nil {
		s.logger.Warn("report session", "session_id", completion.SessionID, "error", err)
		if errors.Is(err, ErrLedgerUnavailable) {
			s.setOffline()
		}
		return
	}

	s.online.Store(true)
	if err := s.cache.StoreProgress(view, s.now()); err != nil {
		s.logger.Warn("cache progress", "error", err)
	}
	s.publish(Update{Online: true, Progress: &view})
}

// Refresh checks ledger health and, when reachable, pulls settings and
// progress into the cache.
func (s *Syncer) Refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.ledger.Health(ctx); err != nil {
		s.setOffline()
		return err
	}

	settings, err := s.ledger.Settings(ctx)
	if err != nil {
		s.setOffline()
		return fmt.Errorf("fetch settings: %w", err)
	}
	view, err := s.ledger.Progress(ctx)
	if err != nil {
		s.setOffline()
		return fmt.Errorf("fetch progress: %w", err)
	}

	fetchedAt := s.now()
	if err := s.cache.StoreSettings(settings, fetchedAt); err != nil {
		s.logger.Warn("cache settings", "error", err)
	}
	if err := s.cache.StoreProgress(view, fetchedAt); err != nil {
		s.logger.Warn("cache progress", "error", err)
	}

	s.online.Store(true)
	s.publish(Update{Online: true, Settings: &settings, Progress: &view})
	return nil
}

// Start schedules periodic refreshes until Stop is called.
func (s *Syncer) Start(ctx context.Context) error {
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DiscardLogger),
		cron.Recover(cron.DefaultLogger),
	))
	_, err := c.AddFunc(s.schedule, func() {
		if err := s.Refresh(ctx); err != nil {
			s.logger.Debug("ledger refresh", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule ledger refresh %q: %w", s.schedule, err)
	}
	s.cron = c
	c.Start()
	return nil
}

// Stop halts the schedule and waits for in-flight reports.
func (s *Syncer) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	s.wg.Wait()
}

func (s *Syncer) setOffline() {
	if s.online.Swap(false) {
		s.logger.Warn("ledger offline")
	}
	s.publish(Update{Online: false})
}

func (s *Syncer) publish(update Update) {
	select {
	case s.updates <- update:
	default:
	}
}
