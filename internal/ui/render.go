// Package ui renders the focus timer for the terminal.
package ui

import (
	"fmt"
	"strings"

	"pomodoro/internal/client"
	"pomodoro/internal/model"
	"pomodoro/internal/timer"
)

// FormatClock renders seconds as MM:SS, or H:MM:SS past an hour.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h, m, s := seconds/3600, seconds/60%60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

func PhaseIcon(phase timer.Phase) string {
	switch phase {
	case timer.PhaseBreak:
		return IconCoffee
	case timer.PhaseLongBreak:
		return IconSofa
	default:
		return IconTomato
	}
}

// Bar draws a fixed-width progress bar for done out of total.
func Bar(done, total, width int) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if total > 0 {
		filled = done * width / total
	}
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return Good.Render(strings.Repeat("█", filled)) + Muted.Render(strings.Repeat("░", width-filled))
}

// StatusLine is the single line redrawn while the timer runs.
func StatusLine(status client.Status) string {
	state := status.State
	total := status.Config.Duration(state.Phase)

	parts := []string{
		fmt.Sprintf("%s %s", PhaseIcon(state.Phase), H2.Render(state.Phase.String())),
		Title.Render(FormatClock(state.SecondsRemaining)),
		Bar(total-state.SecondsRemaining, total, 20),
		Muted.Render(fmt.Sprintf("cycle %d/%d", state.CycleCount, status.Config.CyclesBeforeLongBreak)),
	}
	if !state.Running {
		parts = append(parts, Warn.Render("paused"))
	}
	if status.AutoStart {
		parts = append(parts, Muted.Render("auto"))
	}
	if status.Progress != nil {
		parts = append(parts, Gold.Render(fmt.Sprintf("Lv %d", status.Progress.Level)),
			Muted.Render(fmt.Sprintf("%d XP", status.Progress.XP)))
	}
	if !status.Online {
		parts = append(parts, Bad.Render("offline"))
	}
	if status.Notice != "" {
		parts = append(parts, Warn.Render(status.Notice))
	}
	return strings.Join(parts, "  ")
}

// ProgressPanel renders level, XP, streak and achievements.
func ProgressPanel(view model.ProgressView) string {
	intoLevel := view.XP % model.XPPerLevel
	lines := []string{
		LabelValue("Level", Gold.Render(fmt.Sprint(view.Level))),
		LabelValue("XP", fmt.Sprintf("%d  %s %s", view.XP, Bar(intoLevel, model.XPPerLevel, 20),
			Muted.Render(fmt.Sprintf("%d to next", model.XPPerLevel-intoLevel)))),
		LabelValue("Sessions", view.WorkSessions),
		LabelValue("Streak", fmt.Sprintf("%s %d day(s)", IconFlame, view.CurrentStreak)),
	}
	if view.LastSessionDate != nil {
		lines = append(lines, LabelValue("Last session", *view.LastSessionDate))
	}
	if len(view.Achievements) > 0 {
		lines = append(lines, "", H2.Render(IconTrophy+" Achievements"))
		for _, achievement := range view.Achievements {
			lines = append(lines, AchievementLine(achievement))
		}
	}
	return Panel.Render(strings.Join(lines, "\n"))
}

func AchievementLine(achievement model.Achievement) string {
	if achievement.Earned {
		line := fmt.Sprintf("%s %s %s", Good.Render("✔"), Gold.Render(achievement.Name), Muted.Render(achievement.Description))
		if achievement.EarnedAt != nil {
			line += Muted.Render(" (" + achievement.EarnedAt.Local().Format("2006-01-02") + ")")
		}
		return line
	}
	return fmt.Sprintf("%s %s %s", Muted.Render("·"), Muted.Render(achievement.Name), Muted.Render(achievement.Description))
}

func SettingsPanel(settings model.Settings) string {
	goal := Muted.Render("off")
	if settings.DailyGoalMinutes > 0 {
		goal = FormatClock(settings.DailyGoalMinutes * 60)
	}
	return Panel.Render(strings.Join([]string{
		LabelValue("Work", FormatClock(settings.WorkSeconds)),
		LabelValue("Break", FormatClock(settings.BreakSeconds)),
		LabelValue("Long break", FormatClock(settings.LongBreakSeconds)),
		LabelValue("Cycles before long break", settings.CyclesBeforeLongBreak),
		LabelValue("Daily goal", goal),
	}, "\n"))
}

// GoalLine renders today's focus time against the daily goal.
func GoalLine(summary model.HistorySummary) string {
	today := FormatClock(summary.TodaySeconds)
	if summary.DailyGoalMinutes <= 0 {
		return LabelValue("Today", today+Muted.Render("  no daily goal"))
	}
	goalSeconds := summary.DailyGoalMinutes * 60
	percent := summary.GoalPercent()
	style := Warn
	if percent >= 100 {
		style = Good
	}
	return LabelValue("Today", fmt.Sprintf("%s of %s  %s %s", today, FormatClock(goalSeconds),
		Bar(summary.TodaySeconds, goalSeconds, 20), style.Render(fmt.Sprintf("%d%%", percent))))
}
