package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomodoro/internal/db"
	"pomodoro/internal/model"
	"pomodoro/internal/repository"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advanceDays(days int) { c.now = c.now.AddDate(0, 0, days) }

func newTestLedger(t *testing.T, clock *fakeClock) *LedgerService {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = database.Close()
	})
	require.NoError(t, db.RunMigrations(database, db.SQLite, db.Migrations()))

	repos := LedgerRepositories{
		Settings:     repository.NewSettingsRepository(database, db.SQLite),
		Progress:     repository.NewProgressRepository(database, db.SQLite),
		Achievements: repository.NewAchievementRepository(database, db.SQLite),
		Sessions:     repository.NewSessionRepository(database, db.SQLite),
	}
	svc := NewLedgerService(database, repos, LedgerOptions{
		Now:    clock.Now,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, svc.Bootstrap(context.Background()))
	return svc
}

func record(t *testing.T, svc *LedgerService) *model.ProgressView {
	t.Helper()
	view, apiErr := svc.RecordWorkSession(context.Background(), RecordSessionInput{})
	require.Nil(t, apiErr)
	return view
}

func achievementByCode(t *testing.T, achievements []model.Achievement, code string) model.Achievement {
	t.Helper()
	for _, a := range achievements {
		if a.Code == code {
			return a
		}
	}
	t.Fatalf("achievement %s not found", code)
	return model.Achievement{}
}

func TestCalculateLevel(t *testing.T) {
	cases := map[int]int{0: 1, 99: 1, 100: 2, 250: 3, -5: 1}
	for xp, want := range cases {
		assert.Equal(t, want, CalculateLevel(xp), "xp=%d", xp)
	}
}

func TestBootstrapIsIdempotent(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	svc := newTestLedger(t, clock)
	record(t, svc)

	require.NoError(t, svc.Bootstrap(context.Background()))

	progress, apiErr := svc.GetProgress(context.Background())
	require.Nil(t, apiErr)
	assert.Equal(t, 1, progress.WorkSessions)
	assert.True(t, achievementByCode(t, progress.Achievements, model.AchievementFirstSession).Earned)
	assert.Len(t, progress.Achievements, len(model.BaseAchievements))
}

func TestStreakConsecutiveDays(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	svc := newTestLedger(t, clock)

	first := record(t, svc)
	assert.Equal(t, 1, first.CurrentStreak)
	require.NotNil(t, first.LastSessionDate)
	assert.Equal(t, "2025-03-10", *first.LastSessionDate)

	clock.advanceDays(1)
	second := record(t, svc)
	assert.Equal(t, 2, second.CurrentStreak)
}

func TestStreakResetsAfterGap(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	svc := newTestLedger(t, clock)

	record(t, svc)
	clock.advanceDays(1)
	assert.Equal(t, 2, record(t, svc).CurrentStreak)

	clock.advanceDays(2)
	assert.Equal(t, 1, record(t, svc).CurrentStreak)
}

func TestStreakUnchangedSameDay(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	svc := newTestLedger(t, clock)

	assert.Equal(t, 1, record(t, svc).CurrentStreak)
	clock.now = clock.now.Add(3 * time.Hour)
	assert.Equal(t, 1, record(t, svc).CurrentStreak)
	clock.now = clock.now.Add(3 * time.Hour)
	view := record(t, svc)
	assert.Equal(t, 1, view.CurrentStreak)
	assert.Equal(t, 3, view.WorkSessions)
	assert.Equal(t, 3*model.DefaultXPPerSession, view.XP)
}

func TestStreakUsesConfiguredTimeZone(t *testing.T) {
	zone := time.FixedZone("UTC+10", 10*60*60)
	clock := &fakeClock{now: time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC)}
	svc := newTestLedger(t, clock)
	svc.location = zone

	view := record(t, svc)
	require.NotNil(t, view.LastSessionDate)
	assert.Equal(t, "2025-03-11", *view.LastSessionDate)
}

func TestFirstSessionAchievementIsMonotonic(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	svc := newTestLedger(t, clock)

	before, apiErr := svc.GetAchievements(context.Background())
	require.Nil(t, apiErr)
	assert.False(t, achievementByCode(t, before, model.AchievementFirstSession).Earned)

	first := record(t, svc)
	earned := achievementByCode(t, first.Achievements, model.AchievementFirstSession)
	require.True(t, earned.Earned)
	require.NotNil(t, earned.EarnedAt)
	assert.True(t, earned.EarnedAt.Equal(clock.now))

	clock.now = clock.now.Add(time.Hour)
	second := record(t, svc)
	again := achievementByCode(t, second.Achievements, model.AchievementFirstSession)
	assert.True(t, again.Earned)
	require.NotNil(t, again.EarnedAt)
	assert.True(t, again.EarnedAt.Equal(*earned.EarnedAt), "earned_at must not move")
}

func TestFiveSessionsAndStreakAchievements(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	svc := newTestLedger(t, clock)

	var view *model.ProgressView
	for i := 0; i < 4; i++ {
		view = record(t, svc)
	}
	assert.False(t, achievementByCode(t, view.Achievements, model.AchievementFiveSessions).Earned)

	view = record(t, svc)
	assert.True(t, achievementByCode(t, view.Achievements, model.AchievementFiveSessions).Earned)
	assert.False(t, achievementByCode(t, view.Achievements, model.AchievementStreak3).Earned)

	clock.advanceDays(1)
	record(t, svc)
	clock.advanceDays(1)
	view = record(t, svc)
	assert.Equal(t, 3, view.CurrentStreak)
	assert.True(t, achievementByCode(t, view.Achievements, model.AchievementStreak3).Earned)

	clock.advanceDays(5)
	view = record(t, svc)
	assert.Equal(t, 1, view.CurrentStreak)
	assert.True(t, achievementByCode(t, view.Achievements, model.AchievementStreak3).Earned)
}

func TestRecordWorkSessionIsIdempotentPerSessionID(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	svc := newTestLedger(t, clock)

	started := clock.now.Add(-25 * time.Minute)
	input := RecordSessionInput{SessionID: "retry-me", StartedAt: &started, EndedAt: &clock.now}

	first, apiErr := svc.RecordWorkSession(context.Background(), input)
	require.Nil(t, apiErr)
	second, apiErr := svc.RecordWorkSession(context.Background(), input)
	require.Nil(t, apiErr)

	assert.Equal(t, 1, first.WorkSessions)
	assert.Equal(t, first.WorkSessions, second.WorkSessions)
	assert.Equal(t, first.XP, second.XP)

	sessions, apiErr := svc.ListSessions(context.Background(), 10)
	require.Nil(t, apiErr)
	require.Len(t, sessions, 1)
	assert.Equal(t, 25*60, sessions[0].DurationSeconds)
}

func TestRecordWorkSessionRejectsInvertedTimes(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	svc := newTestLedger(t, clock)

	started := clock.now
	ended := clock.now.Add(-time.Minute)
	_, apiErr := svc.RecordWorkSession(context.Background(), RecordSessionInput{StartedAt: &started, EndedAt: &ended})
	require.NotNil(t, apiErr)
	assert.Equal(t, 400, apiErr.Status)

	progress, apiErr := svc.GetProgress(context.Background())
	require.Nil(t, apiErr)
	assert.Zero(t, progress.WorkSessions)
}

func TestUpdateSettings(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	svc := newTestLedger(t, clock)
	ctx := context.Background()

	initial, apiErr := svc.GetSettings(ctx)
	require.Nil(t, apiErr)
	assert.Equal(t, model.DefaultWorkSeconds, initial.WorkSeconds)
	assert.Equal(t, model.DefaultCyclesBeforeLongBreak, initial.CyclesBeforeLongBreak)

	updated, apiErr := svc.UpdateSettings(ctx, UpdateSettingsInput{WorkSeconds: 1500, BreakSeconds: 120})
	require.Nil(t, apiErr)
	assert.Equal(t, 1500, updated.WorkSeconds)
	assert.Equal(t, 120, updated.BreakSeconds)
	assert.Equal(t, model.DefaultLongBreakSeconds, updated.LongBreakSeconds)

	cycles := 3
	longBreak := 600
	updated, apiErr = svc.UpdateSettings(ctx, UpdateSettingsInput{
		WorkSeconds:           1500,
		BreakSeconds:          120,
		LongBreakSeconds:      &longBreak,
		CyclesBeforeLongBreak: &cycles,
	})
	require.Nil(t, apiErr)
	assert.Equal(t, 600, updated.LongBreakSeconds)
	assert.Equal(t, 3, updated.CyclesBeforeLongBreak)

	_, apiErr = svc.UpdateSettings(ctx, UpdateSettingsInput{WorkSeconds: 0, BreakSeconds: 120})
	require.NotNil(t, apiErr)
	assert.Equal(t, 400, apiErr.Status)

	one := 1
	_, apiErr = svc.UpdateSettings(ctx, UpdateSettingsInput{WorkSeconds: 10, BreakSeconds: 5, CyclesBeforeLongBreak: &one})
	require.NotNil(t, apiErr)

	stored, apiErr := svc.GetSettings(ctx)
	require.Nil(t, apiErr)
	assert.Equal(t, 1500, stored.WorkSeconds)
}

func TestSummaryBucketsByDay(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	svc := newTestLedger(t, clock)
	ctx := context.Background()

	duration := 600
	_, apiErr := svc.RecordWorkSession(ctx, RecordSessionInput{DurationSeconds: &duration})
	require.Nil(t, apiErr)
	clock.advanceDays(2)
	_, apiErr = svc.RecordWorkSession(ctx, RecordSessionInput{DurationSeconds: &duration})
	require.Nil(t, apiErr)
	_, apiErr = svc.RecordWorkSession(ctx, RecordSessionInput{DurationSeconds: &duration})
	require.Nil(t, apiErr)

	summary, apiErr := svc.Summary(ctx, 3)
	require.Nil(t, apiErr)
	require.Len(t, summary.Days, 3)
	assert.Equal(t, "2025-03-10", summary.Days[0].Date)
	assert.Equal(t, 600, summary.Days[0].Seconds)
	assert.Equal(t, 0, summary.Days[1].Seconds)
	assert.Equal(t, 2, summary.Days[2].Sessions)
	assert.Equal(t, 1200, summary.TodaySeconds)
	assert.Equal(t, 1800, summary.TotalSeconds)
	assert.Equal(t, 3, summary.TotalSessions)
}

func TestRecordWorkSessionBoundsDuration(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	svc := newTestLedger(t, clock)
	ctx := context.Background()

	huge := 1_000_000_000_000
	_, apiErr := svc.RecordWorkSession(ctx, RecordSessionInput{DurationSeconds: &huge})
	require.NotNil(t, apiErr)
	assert.Equal(t, 400, apiErr.Status)
	assert.Contains(t, apiErr.Message, "must not exceed")

	started := clock.now.Add(-25 * time.Minute)
	_, apiErr = svc.RecordWorkSession(ctx, RecordSessionInput{StartedAt: &started, EndedAt: &clock.now, DurationSeconds: &huge})
	require.NotNil(t, apiErr)

	inflated := 3600
	_, apiErr = svc.RecordWorkSession(ctx, RecordSessionInput{StartedAt: &started, EndedAt: &clock.now, DurationSeconds: &inflated})
	require.NotNil(t, apiErr)
	assert.Contains(t, apiErr.Message, "does not match")

	longAgo := clock.now.Add(-48 * time.Hour)
	_, apiErr = svc.RecordWorkSession(ctx, RecordSessionInput{StartedAt: &longAgo, EndedAt: &clock.now})
	require.NotNil(t, apiErr)

	progress, apiErr := svc.GetProgress(ctx)
	require.Nil(t, apiErr)
	assert.Zero(t, progress.WorkSessions)

	// Rounding of client timestamps is tolerated.
	rounded := 25*60 + 1
	_, apiErr = svc.RecordWorkSession(ctx, RecordSessionInput{StartedAt: &started, EndedAt: &clock.now, DurationSeconds: &rounded})
	require.Nil(t, apiErr)

	summary, apiErr := svc.Summary(ctx, 1)
	require.Nil(t, apiErr)
	assert.Equal(t, 25*60+1, summary.TodaySeconds)

	sessions, apiErr := svc.ListSessions(ctx, 1)
	require.Nil(t, apiErr)
	require.Len(t, sessions, 1)
	assert.True(t, sessions[0].StartedAt.Equal(started))
}

func TestDailyGoalFlowsIntoSummary(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	svc := newTestLedger(t, clock)
	ctx := context.Background()

	initial, apiErr := svc.GetSettings(ctx)
	require.Nil(t, apiErr)
	assert.Zero(t, initial.DailyGoalMinutes)

	goal := 100
	updated, apiErr := svc.UpdateSettings(ctx, UpdateSettingsInput{WorkSeconds: 1500, BreakSeconds: 300, DailyGoalMinutes: &goal})
	require.Nil(t, apiErr)
	assert.Equal(t, 100, updated.DailyGoalMinutes)

	// Omitting the goal keeps the stored one.
	updated, apiErr = svc.UpdateSettings(ctx, UpdateSettingsInput{WorkSeconds: 1200, BreakSeconds: 300})
	require.Nil(t, apiErr)
	assert.Equal(t, 100, updated.DailyGoalMinutes)

	for _, invalid := range []int{-1, model.MaxDailyGoalMinutes + 1} {
		value := invalid
		_, apiErr = svc.UpdateSettings(ctx, UpdateSettingsInput{WorkSeconds: 1500, BreakSeconds: 300, DailyGoalMinutes: &value})
		require.NotNil(t, apiErr, "goal=%d", invalid)
		assert.Equal(t, 400, apiErr.Status)
	}

	duration := 25 * 60
	for i := 0; i < 2; i++ {
		_, apiErr = svc.RecordWorkSession(ctx, RecordSessionInput{DurationSeconds: &duration})
		require.Nil(t, apiErr)
	}

	summary, apiErr := svc.Summary(ctx, 7)
	require.Nil(t, apiErr)
	assert.Equal(t, 100, summary.DailyGoalMinutes)
	assert.Equal(t, 50*60, summary.TodaySeconds)
	assert.Equal(t, 50, summary.GoalPercent())
}

func TestHistoryQueriesClampToMaximum(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	svc := newTestLedger(t, clock)
	ctx := context.Background()

	summary, apiErr := svc.Summary(ctx, 400)
	require.Nil(t, apiErr)
	assert.Len(t, summary.Days, maxSummaryDays)

	summary, apiErr = svc.Summary(ctx, 0)
	require.Nil(t, apiErr)
	assert.Len(t, summary.Days, defaultSummaryDays)

	for i := 0; i < 3; i++ {
		record(t, svc)
	}
	sessions, apiErr := svc.ListSessions(ctx, 1000)
	require.Nil(t, apiErr)
	assert.Len(t, sessions, 3)

	assert.Equal(t, maxHistoryLimit, clampQuery(1000, defaultHistoryLimit, maxHistoryLimit))
	assert.Equal(t, defaultHistoryLimit, clampQuery(-3, defaultHistoryLimit, maxHistoryLimit))
	assert.Equal(t, 20, clampQuery(20, defaultHistoryLimit, maxHistoryLimit))
}
