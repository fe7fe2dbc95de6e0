package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pomodoro/internal/db"
	"pomodoro/internal/model"
)

type SessionRepository struct {
	db      *sql.DB
	dialect db.Dialect
}

func NewSessionRepository(database *sql.DB, dialect db.Dialect) *SessionRepository {
	return &SessionRepository{db: database, dialect: dialect}
}

// InsertTx appends a completed session. It reports false when a session with
// the same id was already recorded.
func (r *SessionRepository) InsertTx(ctx context.Context, tx *sql.Tx, session *model.Session) (bool, error) {
	result, err := tx.ExecContext(
		ctx,
		r.dialect.Rebind(`INSERT INTO work_sessions (id, started_at, ended_at, duration_seconds, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`),
		session.ID,
		formatTime(session.StartedAt),
		formatTime(session.EndedAt),
		session.DurationSeconds,
		formatTime(session.CreatedAt),
	)
	if err != nil {
		return false, fmt.Errorf("insert session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert session rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *SessionRepository) List(ctx context.Context, limit int) ([]model.Session, error) {
	rows, err := r.db.QueryContext(
		ctx,
		r.dialect.Rebind(`SELECT id, started_at, ended_at, duration_seconds, created_at
		 FROM work_sessions
		 ORDER BY ended_at DESC
		 LIMIT ?`),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return collectSessions(rows, limit)
}

// ListEndedSince returns sessions that ended at or after since, oldest first.
func (r *SessionRepository) ListEndedSince(ctx context.Context, since time.Time) ([]model.Session, error) {
	rows, err := r.db.QueryContext(
		ctx,
		r.dialect.Rebind(`SELECT id, started_at, ended_at, duration_seconds, created_at
		 FROM work_sessions
		 WHERE ended_at >= ?
		 ORDER BY ended_at ASC`),
		formatTime(since),
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions since: %w", err)
	}
	return collectSessions(rows, 0)
}

// Totals returns the number of recorded sessions and their summed duration.
func (r *SessionRepository) Totals(ctx context.Context) (int, int, error) {
	var count int
	var seconds sql.NullInt64
	err := r.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1), SUM(duration_seconds) FROM work_sessions`,
	).Scan(&count, &seconds)
	if err != nil {
		return 0, 0, fmt.Errorf("session totals: %w", err)
	}
	return count, int(seconds.Int64), nil
}

func collectSessions(rows *sql.Rows, capacity int) ([]model.Session, error) {
	defer rows.Close()

	sessions := make([]model.Session, 0, capacity)
	for rows.Next() {
		session, scanErr := scanSession(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		sessions = append(sessions, *session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

func scanSession(s scanner) (*model.Session, error) {
	session := model.Session{}
	var startedAt string
	var endedAt string
	var createdAt string
	if err := s.Scan(
		&session.ID,
		&startedAt,
		&endedAt,
		&session.DurationSeconds,
		&createdAt,
	); err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}

	parsedStartedAt, err := parseTime(startedAt)
	if err != nil {
		return nil, fmt.Errorf("parse session started_at: %w", err)
	}
	session.StartedAt = parsedStartedAt

	parsedEndedAt, err := parseTime(endedAt)
	if err != nil {
		return nil, fmt.Errorf("parse session ended_at: %w", err)
	}
	session.EndedAt = parsedEndedAt

	parsedCreatedAt, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse session created_at: %w", err)
	}
	session.CreatedAt = parsedCreatedAt

	return &session, nil
}
