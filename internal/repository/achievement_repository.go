package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"pomodoro/internal/db"
	"pomodoro/internal/model"
)

type AchievementRepository struct {
	db      *sql.DB
	dialect db.Dialect
}

func NewAchievementRepository(database *sql.DB, dialect db.Dialect) *AchievementRepository {
	return &AchievementRepository{db: database, dialect: dialect}
}

// Seed inserts every definition whose code is not present yet. Existing rows,
// including their earned state, are left untouched.
func (r *AchievementRepository) Seed(ctx context.Context, definitions []model.AchievementDefinition) error {
	for _, def := range definitions {
		_, err := r.db.ExecContext(
			ctx,
			r.dialect.Rebind(`INSERT INTO achievements (code, name, description, earned)
			 VALUES (?, ?, ?, 0)
			 ON CONFLICT (code) DO NOTHING`),
			def.Code,
			def.Name,
			def.Description,
		)
		if err != nil {
			return fmt.Errorf("seed achievement %s: %w", def.Code, err)
		}
	}
	return nil
}

func (r *AchievementRepository) List(ctx context.Context) ([]model.Achievement, error) {
	return r.list(ctx, r.db)
}

func (r *AchievementRepository) ListTx(ctx context.Context, tx *sql.Tx) ([]model.Achievement, error) {
	return r.list(ctx, tx)
}

// MarkEarnedTx flags codes as earned in one statement. Rows that are already
// earned keep their first earned_at.
func (r *AchievementRepository) MarkEarnedTx(ctx context.Context, tx *sql.Tx, codes []string, at time.Time) error {
	if len(codes) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(codes)), ", ")
	args := make([]interface{}, 0, len(codes)+1)
	args = append(args, formatTime(at))
	for _, code := range codes {
		args = append(args, code)
	}

	_, err := tx.ExecContext(
		ctx,
		r.dialect.Rebind(`UPDATE achievements
		 SET earned = 1, earned_at = ?
		 WHERE earned = 0 AND code IN (`+placeholders+`)`),
		args...,
	)
	if err != nil {
		return fmt.Errorf("mark achievements earned: %w", err)
	}
	return nil
}

func (r *AchievementRepository) list(ctx context.Context, q db.DBTX) ([]model.Achievement, error) {
	rows, err := q.QueryContext(
		ctx,
		`SELECT code, name, description, earned, earned_at
		 FROM achievements
		 ORDER BY code`,
	)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	defer rows.Close()

	achievements := make([]model.Achievement, 0, len(model.BaseAchievements))
	for rows.Next() {
		achievement, scanErr := scanAchievement(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		achievements = append(achievements, *achievement)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate achievements: %w", err)
	}
	return achievements, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAchievement(s scanner) (*model.Achievement, error) {
	achievement := model.Achievement{}
	var earned int
	var earnedAt sql.NullString
	if err := s.Scan(
		&achievement.Code,
		&achievement.Name,
		&achievement.Description,
		&earned,
		&earnedAt,
	); err != nil {
		return nil, fmt.Errorf("scan achievement: %w", err)
	}

	achievement.Earned = earned != 0
	if earnedAt.Valid {
		parsedEarnedAt, err := parseTime(earnedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse achievement earned_at: %w", err)
		}
		achievement.EarnedAt = &parsedEarnedAt
	}
	return &achievement, nil
}
