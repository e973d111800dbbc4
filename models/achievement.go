package models

import "time"

// 成就类别
const (
	AchievementCategorySavings     = "savings"
	AchievementCategoryGoals       = "goals"
	AchievementCategoryConsistency = "consistency"
	AchievementCategoryMilestones  = "milestones"
)

// UserAchievement 用户已获得的成就，每个用户每个成就最多一条
type UserAchievement struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	UserID        uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_user_achievement"`
	AchievementID int       `json:"achievement_id" gorm:"not null;uniqueIndex:idx_user_achievement"`
	Name          string    `json:"name" gorm:"size:100;not null"`
	Description   string    `json:"description" gorm:"size:255"`
	Category      string    `json:"category" gorm:"size:20;not null"`
	Icon          string    `json:"icon" gorm:"size:20"`
	Points        int       `json:"points" gorm:"not null"`
	EarnedAt      time.Time `json:"earned_at" gorm:"not null"`
	CreatedAt     time.Time `json:"created_at"`
}

func (UserAchievement) TableName() string {
	return "user_achievements"
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank              int    `json:"rank" gorm:"-"`
	UserID            uint   `json:"user_id"`
	Username          string `json:"username"`
	TotalPoints       int    `json:"total_points"`
	TotalAchievements int    `json:"total_achievements"`
}
