package models

// UserStickRecord is a user's gamification ledger: one document per user,
// created on the first accepted post and updated once per accepted post
// thereafter. Points only ever grow; streakDays is append-only.
type UserStickRecord struct {
	UID               string   `bson:"uid" json:"uid"`
	Points            int      `bson:"points" json:"points"`
	Level             int      `bson:"level" json:"level"`
	CurrentStreak     int      `bson:"currentStreak" json:"currentStreak"`
	LongestStreak     int      `bson:"longestStreak" json:"longestStreak"`
	LastStickDate     string   `bson:"lastStickDate" json:"lastStickDate"`
	StreakDays        []string `bson:"streakDays" json:"streakDays"`
	Badge             string   `bson:"badge" json:"badge"`
	CurrentPostPoints int      `bson:"currentPostPoints" json:"currentPostPoints"`
}
