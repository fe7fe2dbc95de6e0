package service

import (
	"time"

	"pomodoro/internal/model"
)

// CalculateLevel maps total XP onto a linear level curve starting at 1.
func CalculateLevel(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/model.XPPerLevel + 1
}

// applyWorkSession advances progress by one completed work session on the
// calendar day of today.
func applyWorkSession(progress *model.Progress, today time.Time, xpGain int) {
	day := today.Format(model.DateLayout)
	progress.CurrentStreak = nextStreak(progress.LastSessionDate, progress.CurrentStreak, today)
	progress.XP += xpGain
	progress.WorkSessions++
	progress.LastSessionDate = &day
}

func nextStreak(lastSessionDate *string, current int, today time.Time) int {
	if lastSessionDate == nil {
		return 1
	}
	if *lastSessionDate == today.Format(model.DateLayout) {
		return current
	}
	if *lastSessionDate == today.AddDate(0, 0, -1).Format(model.DateLayout) {
		return current + 1
	}
	return 1
}

type achievementRule struct {
	code string
	met  func(model.Progress) bool
}

var achievementRules = []achievementRule{
	{code: model.AchievementFirstSession, met: func(p model.Progress) bool { return p.WorkSessions >= 1 }},
	{code: model.AchievementFiveSessions, met: func(p model.Progress) bool { return p.WorkSessions >= 5 }},
	{code: model.AchievementStreak3, met: func(p model.Progress) bool { return p.CurrentStreak >= 3 }},
}

// pendingAchievements lists codes that are not yet earned but whose
// threshold holds for progress.
func pendingAchievements(progress model.Progress, current []model.Achievement) []string {
	earned := make(map[string]bool, len(current))
	for _, achievement := range current {
		earned[achievement.Code] = achievement.Earned
	}

	var codes []string
	for _, rule := range achievementRules {
		alreadyEarned, known := earned[rule.code]
		if !known || alreadyEarned {
			continue
		}
		if rule.met(progress) {
			codes = append(codes, rule.code)
		}
	}
	return codes
}
