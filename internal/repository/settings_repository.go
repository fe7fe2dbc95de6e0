package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pomodoro/internal/db"
	"pomodoro/internal/model"
)

type SettingsRepository struct {
	db      *sql.DB
	dialect db.Dialect
}

func NewSettingsRepository(database *sql.DB, dialect db.Dialect) *SettingsRepository {
	return &SettingsRepository{db: database, dialect: dialect}
}

// Seed inserts the singleton settings row when it does not exist yet.
func (r *SettingsRepository) Seed(ctx context.Context, defaults model.Settings) error {
	_, err := r.db.ExecContext(
		ctx,
		r.dialect.Rebind(`INSERT INTO settings (
			id, work_seconds, break_seconds, long_break_seconds, cycles_before_long_break,
			daily_goal_minutes, updated_at
		) VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`),
		defaults.WorkSeconds,
		defaults.BreakSeconds,
		defaults.LongBreakSeconds,
		defaults.CyclesBeforeLongBreak,
		defaults.DailyGoalMinutes,
		formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	return nil
}

func (r *SettingsRepository) Get(ctx context.Context) (*model.Settings, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT work_seconds, break_seconds, long_break_seconds, cycles_before_long_break,
		        daily_goal_minutes, updated_at
		 FROM settings WHERE id = 1`,
	)

	var settings model.Settings
	var updatedAt string
	err := row.Scan(
		&settings.WorkSeconds,
		&settings.BreakSeconds,
		&settings.LongBreakSeconds,
		&settings.CyclesBeforeLongBreak,
		&settings.DailyGoalMinutes,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get settings: %w", err)
	}

	parsedUpdatedAt, err := parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse settings updated_at: %w", err)
	}
	settings.UpdatedAt = parsedUpdatedAt
	return &settings, nil
}

func (r *SettingsRepository) Update(ctx context.Context, settings *model.Settings) error {
	result, err := r.db.ExecContext(
		ctx,
		r.dialect.Rebind(`UPDATE settings
		 SET work_seconds = ?,
		     break_seconds = ?,
		     long_break_seconds = ?,
		     cycles_before_long_break = ?,
		     daily_goal_minutes = ?,
		     updated_at = ?
		 WHERE id = 1`),
		settings.WorkSeconds,
		settings.BreakSeconds,
		settings.LongBreakSeconds,
		settings.CyclesBeforeLongBreak,
		settings.DailyGoalMinutes,
		formatTime(settings.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update settings rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
