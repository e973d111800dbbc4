package models

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 金额统一以数字形式输出，与收支接口保持一致
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// 目标状态
const (
	GoalStatusActive    = "active"
	GoalStatusCompleted = "completed"
	GoalStatusPaused    = "paused"
	GoalStatusCancelled = "cancelled"
)

// 目标类别
const (
	GoalCategoryEmergency  = "emergency"
	GoalCategoryVacation   = "vacation"
	GoalCategoryInvestment = "investment"
	GoalCategoryPurchase   = "purchase"
	GoalCategoryOther      = "other"
)

// 目标优先级
const (
	GoalPriorityLow    = "low"
	GoalPriorityMedium = "medium"
	GoalPriorityHigh   = "high"
)

// 存入来源
const (
	ContributionSourceManual    = "manual"
	ContributionSourceAutomatic = "automatic"
	ContributionSourceBonus     = "bonus"
)

// Goal 储蓄目标
type Goal struct {
	ID            uint               `json:"id" gorm:"primaryKey"`
	UserID        uint               `json:"user_id" gorm:"index;not null"`
	Title         string             `json:"title" gorm:"size:100;not null"`
	Description   string             `json:"description" gorm:"size:500"`
	TargetAmount  decimal.Decimal    `json:"target_amount" gorm:"type:decimal(15,2);not null"`
	CurrentAmount decimal.Decimal    `json:"current_amount" gorm:"type:decimal(15,2);not null;default:0"`
	Category      string             `json:"category" gorm:"size:20;not null;default:other"`
	TargetDate    time.Time          `json:"target_date" gorm:"not null"`
	Status        string             `json:"status" gorm:"size:20;not null;default:active;index"`
	Priority      string             `json:"priority" gorm:"size:10;not null;default:medium"`
	CompletedAt   *time.Time         `json:"completed_at"`
	Milestones    []GoalMilestone    `json:"milestones" gorm:"foreignKey:GoalID"`
	Contributions []GoalContribution `json:"contributions" gorm:"foreignKey:GoalID"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	DeletedAt     gorm.DeletedAt     `json:"-" gorm:"index"`

	ProgressPercentage float64         `json:"progress_percentage" gorm:"-"`
	RemainingAmount    decimal.Decimal `json:"remaining_amount" gorm:"-"`
	DaysRemaining      int             `json:"days_remaining" gorm:"-"`
}

func (Goal) TableName() string {
	return "goals"
}

// GoalMilestone 目标里程碑
type GoalMilestone struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	GoalID      uint            `json:"goal_id" gorm:"index;not null"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(15,2);not null"`
	Description string          `json:"description" gorm:"size:255"`
	IsAchieved  bool            `json:"is_achieved" gorm:"default:false"`
	AchievedAt  *time.Time      `json:"achieved_at"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (GoalMilestone) TableName() string {
	return "goal_milestones"
}

// GoalContribution 目标存入记录，只追加不修改
type GoalContribution struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	GoalID    uint            `json:"goal_id" gorm:"index;not null"`
	UserID    uint            `json:"user_id" gorm:"index;not null"`
	Amount    decimal.Decimal `json:"amount" gorm:"type:decimal(15,2);not null"`
	Source    string          `json:"source" gorm:"size:20;not null;default:manual"`
	Note      string          `json:"note" gorm:"size:255"`
	Date      time.Time       `json:"date" gorm:"not null"`
	CreatedAt time.Time       `json:"created_at"`
}

func (GoalContribution) TableName() string {
	return "goal_contributions"
}

var hundred = decimal.NewFromInt(100)

// ComputeDerived 计算进度、剩余金额与剩余天数
func (g *Goal) ComputeDerived(now time.Time) {
	if g.TargetAmount.IsPositive() {
		pct := g.CurrentAmount.Mul(hundred).Div(g.TargetAmount)
		if pct.GreaterThan(hundred) {
			pct = hundred
		}
		g.ProgressPercentage = pct.Round(2).InexactFloat64()
	} else {
		g.ProgressPercentage = 0
	}

	remaining := g.TargetAmount.Sub(g.CurrentAmount)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	g.RemainingAmount = remaining

	g.DaysRemaining = int(math.Ceil(g.TargetDate.Sub(now).Hours() / 24))
}

// IsOnTimeCompletion 目标是否在截止日期前完成且已达成金额
func (g *Goal) IsOnTimeCompletion() bool {
	if g.Status != GoalStatusCompleted || g.CompletedAt == nil {
		return false
	}
	return !g.CompletedAt.After(g.TargetDate) && g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}

// IsValidGoalStatus 校验目标状态
func IsValidGoalStatus(s string) bool {
	switch s {
	case GoalStatusActive, GoalStatusCompleted, GoalStatusPaused, GoalStatusCancelled:
		return true
	}
	return false
}

// IsValidGoalCategory 校验目标类别
func IsValidGoalCategory(s string) bool {
	switch s {
	case GoalCategoryEmergency, GoalCategoryVacation, GoalCategoryInvestment, GoalCategoryPurchase, GoalCategoryOther:
		return true
	}
	return false
}

// IsValidGoalPriority 校验优先级
func IsValidGoalPriority(s string) bool {
	switch s {
	case GoalPriorityLow, GoalPriorityMedium, GoalPriorityHigh:
		return true
	}
	return false
}

// IsValidContributionSource 校验存入来源
func IsValidContributionSource(s string) bool {
	switch s {
	case ContributionSourceManual, ContributionSourceAutomatic, ContributionSourceBonus:
		return true
	}
	return false
}
