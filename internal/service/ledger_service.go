package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"pomodoro/internal/db"
	apperrors "pomodoro/internal/errors"
	"pomodoro/internal/model"
	"pomodoro/internal/repository"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
	defaultSummaryDays  = 7
	maxSummaryDays      = 365

	durationToleranceSeconds = 1
)

type LedgerRepositories struct {
	Settings     *repository.SettingsRepository
	Progress     *repository.ProgressRepository
	Achievements *repository.AchievementRepository
	Sessions     *repository.SessionRepository
}

type LedgerOptions struct {
	// Location decides calendar-day boundaries for streaks and summaries.
	Location     *time.Location
	XPPerSession int
	Now          func() time.Time
	Logger       *slog.Logger
}

type LedgerService struct {
	database     *sql.DB
	repos        LedgerRepositories
	location     *time.Location
	xpPerSession int
	now          func() time.Time
	logger       *slog.Logger
}

type UpdateSettingsInput struct {
	WorkSeconds           int
	BreakSeconds          int
	LongBreakSeconds      *int
	CyclesBeforeLongBreak *int
	DailyGoalMinutes      *int
}

type RecordSessionInput struct {
	SessionID       string
	StartedAt       *time.Time
	EndedAt         *time.Time
	DurationSeconds *int
}

func NewLedgerService(database *sql.DB, repos LedgerRepositories, opts LedgerOptions) *LedgerService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.XPPerSession <= 0 {
		opts.XPPerSession = model.DefaultXPPerSession
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &LedgerService{
		database:     database,
		repos:        repos,
		location:     opts.Location,
		xpPerSession: opts.XPPerSession,
		now:          opts.Now,
		logger:       opts.Logger,
	}
}

// Bootstrap seeds the singleton rows and the achievement catalogue. It is
// safe to run on every start.
func (s *LedgerService) Bootstrap(ctx context.Context) error {
	if err := s.repos.Settings.Seed(ctx, model.DefaultSettings()); err != nil {
		return err
	}
	if err := s.repos.Progress.Seed(ctx); err != nil {
		return err
	}
	return s.repos.Achievements.Seed(ctx, model.BaseAchievements)
}

// Ping reports whether the ledger store is reachable.
func (s *LedgerService) Ping(ctx context.Context) bool {
	if err := s.database.PingContext(ctx); err != nil {
		s.logger.Warn("ledger health check failed", "error", err)
		return false
	}
	return true
}

func (s *LedgerService) GetSettings(ctx context.Context) (*model.Settings, *apperrors.APIError) {
	settings, err := s.repos.Settings.Get(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("settings_not_found", "Settings have not been initialised")
	}
	if err != nil {
		s.logger.Error("load settings", "error", err)
		return nil, apperrors.Persistence("Failed to load settings")
	}
	return settings, nil
}

func (s *LedgerService) UpdateSettings(ctx context.Context, input UpdateSettingsInput) (*model.Settings, *apperrors.APIError) {
	if input.WorkSeconds <= 0 || input.BreakSeconds <= 0 {
		return nil, apperrors.Validation("work_seconds and break_seconds must be positive")
	}
	if input.LongBreakSeconds != nil && *input.LongBreakSeconds <= 0 {
		return nil, apperrors.Validation("long_break_seconds must be positive")
	}
	if input.CyclesBeforeLongBreak != nil && *input.CyclesBeforeLongBreak < 2 {
		return nil, apperrors.Validation("cycles_before_long_break must be at least 2")
	}
	if input.DailyGoalMinutes != nil && (*input.DailyGoalMinutes < 0 || *input.DailyGoalMinutes > model.MaxDailyGoalMinutes) {
		return nil, apperrors.Validation(fmt.Sprintf("daily_goal_minutes must be between 0 and %d", model.MaxDailyGoalMinutes))
	}

	current, err := s.repos.Settings.Get(ctx)
	if err != nil {
		s.logger.Error("load settings for update", "error", err)
		return nil, apperrors.Persistence("Failed to update settings")
	}

	current.WorkSeconds = input.WorkSeconds
	current.BreakSeconds = input.BreakSeconds
	if input.LongBreakSeconds != nil {
		current.LongBreakSeconds = *input.LongBreakSeconds
	}
	if input.CyclesBeforeLongBreak != nil {
		current.CyclesBeforeLongBreak = *input.CyclesBeforeLongBreak
	}
	if input.DailyGoalMinutes != nil {
		current.DailyGoalMinutes = *input.DailyGoalMinutes
	}
	current.UpdatedAt = s.now().UTC()

	if err := s.repos.Settings.Update(ctx, current); err != nil {
		s.logger.Error("update settings", "error", err)
		return nil, apperrors.Persistence("Failed to update settings")
	}

	stored, err := s.repos.Settings.Get(ctx)
	if err != nil {
		s.logger.Error("reload settings", "error", err)
		return nil, apperrors.Persistence("Failed to update settings")
	}
	return stored, nil
}

func (s *LedgerService) GetProgress(ctx context.Context) (*model.ProgressView, *apperrors.APIError) {
	progress, err := s.repos.Progress.Get(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("progress_not_found", "Progress has not been initialised")
	}
	if err != nil {
		s.logger.Error("load progress", "error", err)
		return nil, apperrors.Persistence("Failed to load progress")
	}
	achievements, err := s.repos.Achievements.List(ctx)
	if err != nil {
		s.logger.Error("load achievements", "error", err)
		return nil, apperrors.Persistence("Failed to load progress")
	}
	view := toProgressView(*progress, achievements)
	return &view, nil
}

// RecordWorkSession stores one completed work session and applies the
// streak, XP and achievement rules in a single transaction. A session id
// that was already recorded leaves progress unchanged.
func (s *LedgerService) RecordWorkSession(ctx context.Context, input RecordSessionInput) (*model.ProgressView, *apperrors.APIError) {
	now := s.now()
	session, apiErr := s.normalizeSession(input, now)
	if apiErr != nil {
		return nil, apiErr
	}

	var view model.ProgressView
	err := db.WithTx(ctx, s.database, func(tx *sql.Tx) error {
		inserted, err := s.repos.Sessions.InsertTx(ctx, tx, session)
		if err != nil {
			return err
		}

		if inserted {
			progress, err := s.repos.Progress.GetForUpdateTx(ctx, tx)
			if err != nil {
				return err
			}
			applyWorkSession(progress, now.In(s.location), s.xpPerSession)
			if err := s.repos.Progress.UpdateTx(ctx, tx, progress, now); err != nil {
				return err
			}
		}

		fresh, err := s.repos.Progress.GetTx(ctx, tx)
		if err != nil {
			return err
		}
		achievements, err := s.repos.Achievements.ListTx(ctx, tx)
		if err != nil {
			return err
		}

		codes := pendingAchievements(*fresh, achievements)
		if len(codes) > 0 {
			if err := s.repos.Achievements.MarkEarnedTx(ctx, tx, codes, now); err != nil {
				return err
			}
			achievements, err = s.repos.Achievements.ListTx(ctx, tx)
			if err != nil {
				return err
			}
		}

		view = toProgressView(*fresh, achievements)
		return nil
	})
	if err != nil {
		s.logger.Error("record work session", "session_id", session.ID, "error", err)
		return nil, apperrors.Persistence("Failed to record session")
	}

	s.logger.Info("work session recorded",
		"session_id", session.ID,
		"duration_seconds", session.DurationSeconds,
		"xp", view.XP,
		"streak", view.CurrentStreak,
	)
	return &view, nil
}

func (s *LedgerService) GetAchievements(ctx context.Context) ([]model.Achievement, *apperrors.APIError) {
	achievements, err := s.repos.Achievements.List(ctx)
	if err != nil {
		s.logger.Error("load achievements", "error", err)
		return nil, apperrors.Persistence("Failed to load achievements")
	}
	return achievements, nil
}

func (s *LedgerService) ListSessions(ctx context.Context, limit int) ([]model.Session, *apperrors.APIError) {
	limit = clampQuery(limit, defaultHistoryLimit, maxHistoryLimit)
	sessions, err := s.repos.Sessions.List(ctx, limit)
	if err != nil {
		s.logger.Error("load history", "error", err)
		return nil, apperrors.Persistence("Failed to load history")
	}
	return sessions, nil
}

// Summary aggregates focused seconds per calendar day for the last days days,
// today included, alongside the configured daily goal.
func (s *LedgerService) Summary(ctx context.Context, days int) (*model.HistorySummary, *apperrors.APIError) {
	days = clampQuery(days, defaultSummaryDays, maxSummaryDays)

	now := s.now().In(s.location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)
	start := today.AddDate(0, 0, -(days - 1))

	sessions, err := s.repos.Sessions.ListEndedSince(ctx, start)
	if err != nil {
		s.logger.Error("load history summary", "error", err)
		return nil, apperrors.Persistence("Failed to load history")
	}
	totalSessions, totalSeconds, err := s.repos.Sessions.Totals(ctx)
	if err != nil {
		s.logger.Error("load history totals", "error", err)
		return nil, apperrors.Persistence("Failed to load history")
	}
	goalMinutes := 0
	settings, err := s.repos.Settings.Get(ctx)
	switch {
	case err == nil:
		goalMinutes = settings.DailyGoalMinutes
	case !errors.Is(err, repository.ErrNotFound):
		s.logger.Error("load daily goal", "error", err)
		return nil, apperrors.Persistence("Failed to load history")
	}

	buckets := make(map[string]*model.DaySummary, days)
	summary := &model.HistorySummary{
		DailyGoalMinutes: goalMinutes,
		TotalSeconds:     totalSeconds,
		TotalSessions:    totalSessions,
		Days:             make([]model.DaySummary, days),
	}
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i).Format(model.DateLayout)
		summary.Days[i] = model.DaySummary{Date: date}
		buckets[date] = &summary.Days[i]
	}

	for _, session := range sessions {
		bucket, ok := buckets[session.EndedAt.In(s.location).Format(model.DateLayout)]
		if !ok {
			continue
		}
		bucket.Seconds += session.DurationSeconds
		bucket.Sessions++
	}
	summary.TodaySeconds = summary.Days[days-1].Seconds

	return summary, nil
}

func (s *LedgerService) normalizeSession(input RecordSessionInput, now time.Time) (*model.Session, *apperrors.APIError) {
	if input.DurationSeconds != nil {
		if *input.DurationSeconds < 0 {
			return nil, apperrors.Validation("duration_seconds must not be negative")
		}
		if *input.DurationSeconds > model.MaxSessionSeconds {
			return nil, apperrors.Validation(fmt.Sprintf("duration_seconds must not exceed %d", model.MaxSessionSeconds))
		}
	}

	session := &model.Session{
		ID:        input.SessionID,
		EndedAt:   now.UTC(),
		CreatedAt: now.UTC(),
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if input.EndedAt != nil {
		session.EndedAt = input.EndedAt.UTC()
	}

	switch {
	case input.StartedAt != nil:
		session.StartedAt = input.StartedAt.UTC()
	case input.DurationSeconds != nil:
		session.StartedAt = session.EndedAt.Add(-time.Duration(*input.DurationSeconds) * time.Second)
	default:
		session.StartedAt = session.EndedAt
	}

	if session.EndedAt.Before(session.StartedAt) {
		return nil, apperrors.Validation("ended_at must not be before started_at")
	}
	elapsed := session.EndedAt.Sub(session.StartedAt)
	if elapsed > model.MaxSessionSeconds*time.Second {
		return nil, apperrors.Validation(fmt.Sprintf("a session must not span more than %d seconds", model.MaxSessionSeconds))
	}
	session.DurationSeconds = int(math.Round(elapsed.Seconds()))

	// An explicit duration must agree with explicit timestamps.
	if input.DurationSeconds != nil {
		if input.StartedAt != nil && absInt(*input.DurationSeconds-session.DurationSeconds) > durationToleranceSeconds {
			return nil, apperrors.Validation("duration_seconds does not match started_at and ended_at")
		}
		session.DurationSeconds = *input.DurationSeconds
	}

	return session, nil
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// clampQuery maps unset values to fallback and caps the rest at ceiling.
func clampQuery(value, fallback, ceiling int) int {
	if value <= 0 {
		return fallback
	}
	if value > ceiling {
		return ceiling
	}
	return value
}

func toProgressView(progress model.Progress, achievements []model.Achievement) model.ProgressView {
	if achievements == nil {
		achievements = []model.Achievement{}
	}
	return model.ProgressView{
		Progress:     progress,
		Level:        CalculateLevel(progress.XP),
		Achievements: achievements,
	}
}
