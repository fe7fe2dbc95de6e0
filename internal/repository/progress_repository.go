package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pomodoro/internal/db"
	"pomodoro/internal/model"
)

type ProgressRepository struct {
	db      *sql.DB
	dialect db.Dialect
}

func NewProgressRepository(database *sql.DB, dialect db.Dialect) *ProgressRepository {
	return &ProgressRepository{db: database, dialect: dialect}
}

// Seed inserts the singleton progress row when it does not exist yet.
func (r *ProgressRepository) Seed(ctx context.Context) error {
	now := formatTime(time.Now())
	_, err := r.db.ExecContext(
		ctx,
		r.dialect.Rebind(`INSERT INTO progress (
			id, xp, work_sessions, current_streak, last_session_date, created_at, updated_at
		) VALUES (1, 0, 0, 0, NULL, ?, ?)
		ON CONFLICT (id) DO NOTHING`),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("seed progress: %w", err)
	}
	return nil
}

func (r *ProgressRepository) Get(ctx context.Context) (*model.Progress, error) {
	return r.get(ctx, r.db, "")
}

// GetForUpdateTx reads the progress row and, where the dialect supports it,
// locks it until tx ends.
func (r *ProgressRepository) GetForUpdateTx(ctx context.Context, tx *sql.Tx) (*model.Progress, error) {
	return r.get(ctx, tx, r.dialect.ForUpdate())
}

func (r *ProgressRepository) GetTx(ctx context.Context, tx *sql.Tx) (*model.Progress, error) {
	return r.get(ctx, tx, "")
}

func (r *ProgressRepository) UpdateTx(ctx context.Context, tx *sql.Tx, progress *model.Progress, now time.Time) error {
	var lastSessionDate interface{}
	if progress.LastSessionDate != nil {
		lastSessionDate = *progress.LastSessionDate
	}

	_, err := tx.ExecContext(
		ctx,
		r.dialect.Rebind(`UPDATE progress
		 SET xp = ?,
		     work_sessions = ?,
		     current_streak = ?,
		     last_session_date = ?,
		     updated_at = ?
		 WHERE id = 1`),
		progress.XP,
		progress.WorkSessions,
		progress.CurrentStreak,
		lastSessionDate,
		formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return nil
}

func (r *ProgressRepository) get(ctx context.Context, q db.DBTX, lock string) (*model.Progress, error) {
	row := q.QueryRowContext(
		ctx,
		`SELECT xp, work_sessions, current_streak, last_session_date
		 FROM progress WHERE id = 1`+lock,
	)

	var progress model.Progress
	var lastSessionDate sql.NullString
	if err := row.Scan(&progress.XP, &progress.WorkSessions, &progress.CurrentStreak, &lastSessionDate); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get progress: %w", err)
	}
	if lastSessionDate.Valid {
		value := lastSessionDate.String
		progress.LastSessionDate = &value
	}
	return &progress, nil
}
