package services

import (
	"testing"
	"time"

	"civicstick-be/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgeForLevel(t *testing.T) {
	cases := []struct {
		level int
		badge string
	}{
		{1, "bronze-1"},
		{3, "bronze-3"},
		{4, "silver-1"},
		{6, "silver-3"},
		{7, "gold-1"},
		{9, "gold-3"},
		{10, "platinum-1"},
		{12, "platinum-3"},
		{13, "diamond"},
		{20, "diamond"},
		{0, "bronze-0"}, // below 1 is unguarded, renders literally
	}
	for _, tc := range cases {
		assert.Equal(t, tc.badge, BadgeForLevel(tc.level), "level %d", tc.level)
	}
}

func TestLevelForPoints(t *testing.T) {
	assert.Equal(t, 1, LevelForPoints(0))
	assert.Equal(t, 1, LevelForPoints(99))
	assert.Equal(t, 2, LevelForPoints(100))
	assert.Equal(t, 2, LevelForPoints(199))
	assert.Equal(t, 13, LevelForPoints(1250))
}

func TestDateString(t *testing.T) {
	// Date boundaries are UTC regardless of the input's zone
	ist := time.FixedZone("IST", 5*3600+1800)
	late := time.Date(2026, 3, 1, 2, 30, 0, 0, ist) // 2026-02-28 21:00 UTC
	assert.Equal(t, "2026-02-28", DateString(late))
}

func TestApplyPost_FirstEver(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	got := ApplyPost("user-1", now, nil)

	assert.Equal(t, models.UserStickRecord{
		UID:               "user-1",
		Points:            3,
		Level:             1,
		CurrentStreak:     1,
		LongestStreak:     1,
		LastStickDate:     "2026-03-10",
		StreakDays:        []string{"2026-03-10"},
		Badge:             "bronze-1",
		CurrentPostPoints: 3,
	}, got)
}

func TestApplyPost_SameDayRepeat(t *testing.T) {
	now := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	current := &models.UserStickRecord{
		UID:               "user-1",
		Points:            40,
		Level:             1,
		CurrentStreak:     4,
		LongestStreak:     6,
		LastStickDate:     "2026-03-10",
		StreakDays:        []string{"2026-03-07", "2026-03-08", "2026-03-09", "2026-03-10"},
		Badge:             "bronze-1",
		CurrentPostPoints: 5,
	}

	got := ApplyPost("user-1", now, current)

	// Same reward again; streak state, reward size and day list untouched
	assert.Equal(t, 45, got.Points)
	assert.Equal(t, 4, got.CurrentStreak)
	assert.Equal(t, 6, got.LongestStreak)
	assert.Equal(t, 5, got.CurrentPostPoints)
	assert.Equal(t, "2026-03-10", got.LastStickDate)
	assert.Len(t, got.StreakDays, 4)

	// A second same-day post adds the same amount once more
	again := ApplyPost("user-1", now.Add(time.Hour), &got)
	assert.Equal(t, 50, again.Points)
	assert.Equal(t, 4, again.CurrentStreak)
	assert.Equal(t, 5, again.CurrentPostPoints)
}

func TestApplyPost_StreakContinues(t *testing.T) {
	// The continuation window is anchored at the previous stick date's UTC
	// midnight: a new-day post continues the streak only within 24 elapsed
	// hours of that midnight.
	now := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	current := &models.UserStickRecord{
		UID:               "user-1",
		Points:            50,
		Level:             1,
		CurrentStreak:     3,
		LongestStreak:     3,
		LastStickDate:     "2026-03-10",
		StreakDays:        []string{"2026-03-08", "2026-03-09", "2026-03-10"},
		Badge:             "bronze-1",
		CurrentPostPoints: 5,
	}

	got := ApplyPost("user-1", now, current)

	assert.Equal(t, 4, got.CurrentStreak)
	assert.Equal(t, 4, got.LongestStreak)
	assert.Equal(t, 6, got.CurrentPostPoints)
	assert.Equal(t, 56, got.Points)
	assert.Equal(t, "2026-03-11", got.LastStickDate)
	require.Len(t, got.StreakDays, 4)
	assert.Equal(t, "2026-03-11", got.StreakDays[3])
}

func TestApplyPost_RewardCapsAtTen(t *testing.T) {
	current := &models.UserStickRecord{
		UID:               "user-1",
		Points:            200,
		Level:             3,
		CurrentStreak:     9,
		LongestStreak:     9,
		LastStickDate:     "2026-03-10",
		StreakDays:        []string{"2026-03-10"},
		Badge:             "bronze-3",
		CurrentPostPoints: 10,
	}

	got := ApplyPost("user-1", time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), current)

	assert.Equal(t, 10, got.CurrentPostPoints)
	assert.Equal(t, 10, got.CurrentStreak)
	assert.Equal(t, 210, got.Points)
}

func TestApplyPost_StreakBreakResets(t *testing.T) {
	// 25+ hours past the last stick date's midnight: streak broken even
	// though the calendar dates are adjacent.
	now := time.Date(2026, 3, 11, 1, 1, 0, 0, time.UTC)
	current := &models.UserStickRecord{
		UID:               "user-1",
		Points:            80,
		Level:             1,
		CurrentStreak:     7,
		LongestStreak:     9,
		LastStickDate:     "2026-03-10",
		StreakDays:        []string{"2026-03-10"},
		Badge:             "bronze-1",
		CurrentPostPoints: 9,
	}

	got := ApplyPost("user-1", now, current)

	assert.Equal(t, 1, got.CurrentStreak)
	assert.Equal(t, 3, got.CurrentPostPoints)
	assert.Equal(t, 83, got.Points)
	assert.Equal(t, 9, got.LongestStreak, "longest streak survives the reset")
}

func TestApplyPost_LongGapResets(t *testing.T) {
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	current := &models.UserStickRecord{
		UID:               "user-1",
		Points:            30,
		Level:             1,
		CurrentStreak:     5,
		LongestStreak:     5,
		LastStickDate:     "2026-03-01",
		StreakDays:        []string{"2026-03-01"},
		Badge:             "bronze-1",
		CurrentPostPoints: 7,
	}

	got := ApplyPost("user-1", now, current)

	assert.Equal(t, 1, got.CurrentStreak)
	assert.Equal(t, 3, got.CurrentPostPoints)
	assert.Equal(t, 5, got.LongestStreak)
}

func TestApplyPost_BadgeRecomputedOnLevelChange(t *testing.T) {
	t.Run("CrossingLevelBoundary", func(t *testing.T) {
		// 99 -> 102 points crosses the /100 boundary to level 2
		current := &models.UserStickRecord{
			UID:               "user-1",
			Points:            99,
			Level:             1,
			CurrentStreak:     1,
			LongestStreak:     1,
			LastStickDate:     "2026-03-01",
			StreakDays:        []string{"2026-03-01"},
			Badge:             "bronze-1",
			CurrentPostPoints: 5,
		}

		got := ApplyPost("user-1", time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC), current)

		assert.Equal(t, 102, got.Points)
		assert.Equal(t, 2, got.Level)
		assert.Equal(t, "bronze-2", got.Badge)
	})

	t.Run("NoLevelChangeLeavesBadgeAlone", func(t *testing.T) {
		current := &models.UserStickRecord{
			UID:               "user-1",
			Points:            103,
			Level:             2,
			CurrentStreak:     1,
			LongestStreak:     1,
			LastStickDate:     "2026-03-01",
			StreakDays:        []string{"2026-03-01"},
			Badge:             "bronze-2",
			CurrentPostPoints: 5,
		}

		got := ApplyPost("user-1", time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC), current)

		assert.Equal(t, 106, got.Points)
		assert.Equal(t, 2, got.Level)
		assert.Equal(t, "bronze-2", got.Badge)
	})
}

func TestApplyPost_DoesNotMutateInput(t *testing.T) {
	current := &models.UserStickRecord{
		UID:               "user-1",
		Points:            50,
		Level:             1,
		CurrentStreak:     2,
		LongestStreak:     2,
		LastStickDate:     "2026-03-10",
		StreakDays:        []string{"2026-03-09", "2026-03-10"},
		Badge:             "bronze-1",
		CurrentPostPoints: 4,
	}

	_ = ApplyPost("user-1", time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), current)

	assert.Equal(t, 50, current.Points)
	assert.Equal(t, 2, current.CurrentStreak)
	assert.Len(t, current.StreakDays, 2)
}
