package services

import (
	"fmt"
	"time"

	"civicstick-be/models"
)

const (
	InitialPostPoints = 3
	MaxPostPoints     = 10
)

// streakWindow is the continuation rule: a post on a new calendar day keeps
// the streak alive only when it lands within 24 elapsed hours of the last
// stick date's UTC midnight. This is wall-clock arithmetic, not calendar
// adjacency, and it is the recorded product behavior.
const streakWindow = 24 * time.Hour

// DateString renders t as a UTC calendar date. All streak day boundaries
// are UTC.
func DateString(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// LevelForPoints maps total points to a level: floor(points/100)+1. This is
// the single canonical leveling formula, for ledger writes and display alike.
func LevelForPoints(points int) int {
	return points/100 + 1
}

// BadgeForLevel maps a level to its badge tier. Levels below 1 are not
// guarded; they render literally, but the engine itself never produces them.
func BadgeForLevel(level int) string {
	switch {
	case level >= 13:
		return "diamond"
	case level >= 10:
		return fmt.Sprintf("platinum-%d", level-9)
	case level >= 7:
		return fmt.Sprintf("gold-%d", level-6)
	case level >= 4:
		return fmt.Sprintf("silver-%d", level-3)
	default:
		return fmt.Sprintf("bronze-%d", level)
	}
}

// ApplyPost computes the updated stick record for a user who just completed
// an accepted post at now. Pure: current is read but never modified (nil
// means first post ever), and the caller persists the result.
//
// Rules: the first post of a day advances the streak and the per-post
// reward; repeat posts on the same day re-award currentPostPoints and touch
// nothing else; a broken streak resets to the initial reward but keeps
// longestStreak.
func ApplyPost(uid string, now time.Time, current *models.UserStickRecord) models.UserStickRecord {
	todayStr := DateString(now)

	if current == nil {
		return models.UserStickRecord{
			UID:               uid,
			Points:            InitialPostPoints,
			Level:             1,
			CurrentStreak:     1,
			LongestStreak:     1,
			LastStickDate:     todayStr,
			StreakDays:        []string{todayStr},
			Badge:             "bronze-1",
			CurrentPostPoints: InitialPostPoints,
		}
	}

	updated := *current
	updated.StreakDays = append([]string(nil), current.StreakDays...)

	if current.LastStickDate == todayStr {
		// Repeat post on the same calendar day: same reward again, streak
		// state and level untouched.
		updated.Points += current.CurrentPostPoints
		return updated
	}

	continues := false
	if current.LastStickDate != "" {
		if last, err := time.Parse("2006-01-02", current.LastStickDate); err == nil {
			elapsed := now.Sub(last)
			if elapsed < 0 {
				elapsed = -elapsed
			}
			continues = elapsed <= streakWindow
		}
	}

	if continues {
		updated.CurrentStreak = current.CurrentStreak + 1
		updated.CurrentPostPoints = current.CurrentPostPoints + 1
		if updated.CurrentPostPoints > MaxPostPoints {
			updated.CurrentPostPoints = MaxPostPoints
		}
	} else {
		updated.CurrentStreak = 1
		updated.CurrentPostPoints = InitialPostPoints
	}

	updated.Points = current.Points + updated.CurrentPostPoints
	updated.Level = LevelForPoints(updated.Points)
	if updated.CurrentStreak > current.LongestStreak {
		updated.LongestStreak = updated.CurrentStreak
	}
	updated.LastStickDate = todayStr
	updated.StreakDays = append(updated.StreakDays, todayStr)

	if updated.Level != current.Level {
		updated.Badge = BadgeForLevel(updated.Level)
	}

	return updated
}
