package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "pomodoro/internal/errors"
	"pomodoro/internal/ledgertest"
	"pomodoro/internal/model"
)

func unreachableURL(t *testing.T) string {
	t.Helper()
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()
	return url
}

func TestLedgerClientAgainstLedger(t *testing.T) {
	server := ledgertest.NewServer(t, ledgertest.Options{})
	ledger := NewLedgerClient(server.URL, time.Second)
	ctx := context.Background()

	require.NoError(t, ledger.Health(ctx))

	settings, err := ledger.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultWorkSeconds, settings.WorkSeconds)

	settings.WorkSeconds = 1800
	updated, err := ledger.UpdateSettings(ctx, settings)
	require.NoError(t, err)
	assert.Equal(t, 1800, updated.WorkSeconds)
	assert.Equal(t, model.DefaultBreakSeconds, updated.BreakSeconds)

	endedAt := time.Now().UTC()
	completion := SessionCompletion{
		SessionID:       "3b0b6a61-2f2c-4ad4-9d0e-4d8d5f4f7a10",
		StartedAt:       endedAt.Add(-25 * time.Minute),
		EndedAt:         endedAt,
		DurationSeconds: 1500,
	}
	view, err := ledger.CompleteSession(ctx, completion)
	require.NoError(t, err)
	assert.Equal(t, 1, view.WorkSessions)
	assert.Equal(t, 10, view.XP)

	view, err = ledger.CompleteSession(ctx, completion)
	require.NoError(t, err)
	assert.Equal(t, 1, view.WorkSessions, "retry with the same session id counts once")

	progress, err := ledger.Progress(ctx)
	require.NoError(t, err)
	assert.Equal(t, view.Progress, progress.Progress)
	assert.Equal(t, 1, progress.Level)

	achievements, err := ledger.Achievements(ctx)
	require.NoError(t, err)
	require.Len(t, achievements, len(model.BaseAchievements))
	assert.Equal(t, model.AchievementFirstSession, achievements[0].Code)
	assert.True(t, achievements[0].Earned)

	sessions, err := ledger.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, completion.SessionID, sessions[0].ID)

	summary, err := ledger.Summary(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalSessions)
	assert.Equal(t, 1500, summary.TotalSeconds)
}

func TestLedgerClientValidationError(t *testing.T) {
	server := ledgertest.NewServer(t, ledgertest.Options{})
	ledger := NewLedgerClient(server.URL, time.Second)

	_, err := ledger.UpdateSettings(context.Background(), model.Settings{WorkSeconds: 0, BreakSeconds: 300})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrLedgerUnavailable))

	var apiErr *apperrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Invalid values", apiErr.Message)
}

func TestLedgerClientUnreachable(t *testing.T) {
	ledger := NewLedgerClient(unreachableURL(t), time.Second)

	_, err := ledger.Progress(context.Background())
	assert.ErrorIs(t, err, ErrLedgerUnavailable)
	assert.ErrorIs(t, ledger.Health(context.Background()), ErrLedgerUnavailable)
}

func TestLedgerClientRejectsNonEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	t.Cleanup(server.Close)

	_, err := NewLedgerClient(server.URL, time.Second).Settings(context.Background())
	assert.ErrorIs(t, err, ErrLedgerUnavailable)
}
