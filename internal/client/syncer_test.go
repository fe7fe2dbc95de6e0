package client

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomodoro/internal/ledgertest"
	"pomodoro/internal/model"
	"pomodoro/internal/timer"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSyncer(t *testing.T, ledgerURL string) (*Syncer, *Cache) {
	t.Helper()
	cache := NewCache(filepath.Join(t.TempDir(), "cache.yaml"))
	syncer := NewSyncer(NewLedgerClient(ledgerURL, time.Second), cache, SyncerOptions{
		Schedule: "@every 1h",
		Timeout:  time.Second,
		Logger:   quietLogger(),
	})
	return syncer, cache
}

func completedSession() timer.CompletedSession {
	endedAt := time.Now().Round(0)
	return timer.CompletedSession{
		StartedAt:       endedAt.Add(-25 * time.Minute),
		EndedAt:         endedAt,
		DurationSeconds: 1500,
	}
}

func TestSyncerReportsSessionAndCachesProgress(t *testing.T) {
	server := ledgertest.NewServer(t, ledgertest.Options{})
	syncer, cache := newTestSyncer(t, server.URL)

	syncer.SessionCompleted(completedSession())
	syncer.Stop()

	assert.True(t, syncer.Online())

	data, err := cache.Load()
	require.NoError(t, err)
	require.NotNil(t, data.Progress)
	assert.Equal(t, 1, data.Progress.WorkSessions)
	assert.Equal(t, 10, data.Progress.XP)
	assert.Nil(t, data.Settings)

	select {
	case update := <-syncer.Updates():
		assert.True(t, update.Online)
		require.NotNil(t, update.Progress)
		assert.Equal(t, 1, update.Progress.WorkSessions)
	default:
		t.Fatal("expected a progress update")
	}
}

func TestSyncerDropsSessionWhenLedgerUnreachable(t *testing.T) {
	syncer, cache := newTestSyncer(t, unreachableURL(t))

	syncer.SessionCompleted(completedSession())
	syncer.Stop()

	assert.False(t, syncer.Online())

	data, err := cache.Load()
	require.NoError(t, err)
	assert.Nil(t, data.Progress)
	assert.Nil(t, data.Settings)

	update := <-syncer.Updates()
	assert.False(t, update.Online)
}

func TestSyncerUsesFreshSessionIDs(t *testing.T) {
	server := ledgertest.NewServer(t, ledgertest.Options{})
	syncer, cache := newTestSyncer(t, server.URL)

	syncer.SessionCompleted(completedSession())
	syncer.SessionCompleted(completedSession())
	syncer.Stop()

	data, err := cache.Load()
	require.NoError(t, err)
	require.NotNil(t, data.Progress)
	assert.Equal(t, 2, data.Progress.WorkSessions)
}

func TestSyncerRefreshPopulatesCache(t *testing.T) {
	server := ledgertest.NewServer(t, ledgertest.Options{})
	syncer, cache := newTestSyncer(t, server.URL)

	require.NoError(t, syncer.Refresh(context.Background()))

	data, err := cache.Load()
	require.NoError(t, err)
	require.NotNil(t, data.Settings)
	assert.Equal(t, model.DefaultSettings().WorkSeconds, data.Settings.WorkSeconds)
	require.NotNil(t, data.Progress)
	assert.Equal(t, 1, data.Progress.Level)
	assert.False(t, data.FetchedAt.IsZero())
	assert.True(t, syncer.Online())
}

func TestSyncerRefreshUnreachable(t *testing.T) {
	syncer, cache := newTestSyncer(t, unreachableURL(t))

	err := syncer.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrLedgerUnavailable)

	data, loadErr := cache.Load()
	require.NoError(t, loadErr)
	assert.Nil(t, data.Settings)
}

func TestSyncerRejectsBadSchedule(t *testing.T) {
	cache := NewCache(filepath.Join(t.TempDir(), "cache.yaml"))
	syncer := NewSyncer(NewLedgerClient("http://127.0.0.1:1", time.Second), cache, SyncerOptions{
		Schedule: "every now and then",
		Logger:   quietLogger(),
	})

	require.Error(t, syncer.Start(context.Background()))
	syncer.Stop()
}
