package model

import "time"

const (
	DefaultWorkSeconds           = 25 * 60
	DefaultBreakSeconds          = 5 * 60
	DefaultLongBreakSeconds      = 15 * 60
	DefaultCyclesBeforeLongBreak = 4

	// MaxDailyGoalMinutes is one full day. A zero goal means none is set.
	MaxDailyGoalMinutes = 24 * 60

	// MaxSessionSeconds bounds a single recorded work session.
	MaxSessionSeconds = 24 * 60 * 60

	DefaultXPPerSession = 10
	XPPerLevel          = 100
)

// DateLayout is the calendar-day format stored in last_session_date.
const DateLayout = "2006-01-02"

const (
	AchievementFirstSession = "first_session"
	AchievementFiveSessions = "five_sessions"
	AchievementStreak3      = "streak_3"
)

type Settings struct {
	WorkSeconds           int       `json:"work_seconds" yaml:"work_seconds"`
	BreakSeconds          int       `json:"break_seconds" yaml:"break_seconds"`
	LongBreakSeconds      int       `json:"long_break_seconds" yaml:"long_break_seconds"`
	CyclesBeforeLongBreak int       `json:"cycles_before_long_break" yaml:"cycles_before_long_break"`
	DailyGoalMinutes      int       `json:"daily_goal_minutes" yaml:"daily_goal_minutes"`
	UpdatedAt             time.Time `json:"-" yaml:"-"`
}

func DefaultSettings() Settings {
	return Settings{
		WorkSeconds:           DefaultWorkSeconds,
		BreakSeconds:          DefaultBreakSeconds,
		LongBreakSeconds:      DefaultLongBreakSeconds,
		CyclesBeforeLongBreak: DefaultCyclesBeforeLongBreak,
	}
}

type Progress struct {
	XP              int     `json:"xp" yaml:"xp"`
	WorkSessions    int     `json:"work_sessions" yaml:"work_sessions"`
	CurrentStreak   int     `json:"current_streak" yaml:"current_streak"`
	LastSessionDate *string `json:"last_session_date" yaml:"last_session_date"`
}

type Achievement struct {
	Code        string     `json:"code" yaml:"code"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Earned      bool       `json:"earned" yaml:"earned"`
	EarnedAt    *time.Time `json:"earned_at" yaml:"earned_at"`
}

// ProgressView is the progress row as served to clients.
type ProgressView struct {
	Progress     `yaml:",inline"`
	Level        int           `json:"level" yaml:"level"`
	Achievements []Achievement `json:"achievements" yaml:"achievements"`
}

type Session struct {
	ID              string    `json:"id"`
	StartedAt       time.Time `json:"started_at"`
	EndedAt         time.Time `json:"ended_at"`
	DurationSeconds int       `json:"duration_seconds"`
	CreatedAt       time.Time `json:"created_at"`
}

type DaySummary struct {
	Date     string `json:"date"`
	Seconds  int    `json:"seconds"`
	Sessions int    `json:"sessions"`
}

type HistorySummary struct {
	TodaySeconds     int          `json:"today_seconds"`
	DailyGoalMinutes int          `json:"daily_goal_minutes"`
	TotalSeconds     int          `json:"total_seconds"`
	TotalSessions    int          `json:"total_sessions"`
	Days             []DaySummary `json:"days"`
}

// GoalPercent is today's focus time as a share of the daily goal, or zero
// when no goal is set.
func (s HistorySummary) GoalPercent() int {
	if s.DailyGoalMinutes <= 0 {
		return 0
	}
	return s.TodaySeconds * 100 / (s.DailyGoalMinutes * 60)
}

// AchievementDefinition is a seeded achievement row.
type AchievementDefinition struct {
	Code        string
	Name        string
	Description string
}

var BaseAchievements = []AchievementDefinition{
	{Code: AchievementFirstSession, Name: "First Focus", Description: "Complete your first work session"},
	{Code: AchievementFiveSessions, Name: "Getting Warm", Description: "Complete 5 work sessions"},
	{Code: AchievementStreak3, Name: "On a Roll", Description: "Maintain a 3-day streak"},
}
