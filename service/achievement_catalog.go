package service

import (
	"time"

	"fintrack/models"
)

// AchievementDefinition 成就定义
type AchievementDefinition struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Icon        string `json:"icon"`
	Points      int    `json:"points"`
	Criteria    string `json:"criteria"`
}

// achievementCatalog 按 ID 升序，achievementCatalog[i].ID == i+1，运行期只读
var achievementCatalog = [...]AchievementDefinition{
	{
		ID:          1,
		Name:        "First Goal Achiever",
		Description: "Complete your first savings goal on time",
		Category:    models.AchievementCategoryGoals,
		Icon:        "🎯",
		Points:      100,
		Criteria:    "A completed goal reached its target on or before its target date",
	},
	{
		ID:          2,
		Name:        "Savings Improver",
		Description: "Save more this month than your recent average",
		Category:    models.AchievementCategorySavings,
		Icon:        "📈",
		Points:      150,
		Criteria:    "This month's net savings exceed the positive average of the previous two months",
	},
	{
		ID:          3,
		Name:        "Consistent Tracker",
		Description: "Record income or expenses every day for a week",
		Category:    models.AchievementCategoryConsistency,
		Icon:        "📅",
		Points:      100,
		Criteria:    "At least one income or expense entry on each of the last 7 days",
	},
	{
		ID:          4,
		Name:        "Budget Master",
		Description: "Keep spending under 80% of income this month",
		Category:    models.AchievementCategorySavings,
		Icon:        "💰",
		Points:      200,
		Criteria:    "This month's expenses are below 80% of this month's income",
	},
	{
		ID:          5,
		Name:        "Goal Setter",
		Description: "Actively fund three goals at once",
		Category:    models.AchievementCategoryGoals,
		Icon:        "🏁",
		Points:      150,
		Criteria:    "At least 3 active goals with at least one contribution each",
	},
	{
		ID:          6,
		Name:        "Emergency Fund Builder",
		Description: "Build a balance covering three months of expenses",
		Category:    models.AchievementCategorySavings,
		Icon:        "🛡️",
		Points:      300,
		Criteria:    "Current balance is at least 3x the average monthly expenses of the last 3 months",
	},
	{
		ID:          7,
		Name:        "Savings Champion",
		Description: "Maintain a 20%+ savings rate for 3 consecutive months",
		Category:    models.AchievementCategorySavings,
		Icon:        "🏆",
		Points:      400,
		Criteria:    "Stored savings rate is at least 20%",
	},
	{
		ID:          8,
		Name:        "Goal Completionist",
		Description: "Complete five savings goals",
		Category:    models.AchievementCategoryGoals,
		Icon:        "✅",
		Points:      600,
		Criteria:    "At least 5 completed goals",
	},
	{
		ID:          9,
		Name:        "Financial Discipline Master",
		Description: "Track expenses every day for 30 days",
		Category:    models.AchievementCategoryConsistency,
		Icon:        "🧘",
		Points:      500,
		Criteria:    "At least one expense entry on each of the last 30 days",
	},
	{
		ID:          10,
		Name:        "Wealth Builder Legend",
		Description: "Grow your net worth by 50% from your starting point",
		Category:    models.AchievementCategoryMilestones,
		Icon:        "👑",
		Points:      1000,
		Criteria:    "Current balance is at least 1.5x the starting net worth and above 1000",
	},
}

// AchievementCatalog 返回全部成就定义的副本
func AchievementCatalog() []AchievementDefinition {
	out := make([]AchievementDefinition, len(achievementCatalog))
	copy(out, achievementCatalog[:])
	return out
}

// LookupAchievement 按 ID 查找成就定义
func LookupAchievement(id int) (AchievementDefinition, bool) {
	if id < 1 || id > len(achievementCatalog) {
		return AchievementDefinition{}, false
	}
	return achievementCatalog[id-1], true
}

func (d AchievementDefinition) record(userID uint, earnedAt time.Time) models.UserAchievement {
	return models.UserAchievement{
		UserID:        userID,
		AchievementID: d.ID,
		Name:          d.Name,
		Description:   d.Description,
		Category:      d.Category,
		Icon:          d.Icon,
		Points:        d.Points,
		EarnedAt:      earnedAt,
	}
}
