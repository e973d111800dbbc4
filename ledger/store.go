// Package ledger 持久化层：目标、存入记录、收支流水、成就与用户聚合
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/models"
)

// ErrNotFound 记录不存在或不属于当前用户
var ErrNotFound = errors.New("ledger: record not found")

// EntryKind 收支流水类型
type EntryKind string

const (
	KindIncome  EntryKind = "income"
	KindExpense EntryKind = "expense"
)

// DateRange 左闭右开时间区间 [Start, End)
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains 判断时间点是否落在区间内
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Entry 收支流水的最小视图
type Entry struct {
	Kind       EntryKind
	Amount     decimal.Decimal
	OccurredAt time.Time
}

// ContributionFunc 在目标行锁内执行的读改写逻辑
// 可直接修改 goal 的金额、状态及里程碑，返回需要追加的存入记录
type ContributionFunc func(goal *models.Goal) (*models.GoalContribution, error)

// Store 账本存储接口
type Store interface {
	FindGoal(ctx context.Context, goalID, userID uint) (*models.Goal, error)
	ListGoals(ctx context.Context, userID uint, status string) ([]models.Goal, error)
	CreateGoal(ctx context.Context, goal *models.Goal) error
	// UpdateGoalDetails 只写可编辑字段，状态与完成时间不受影响
	UpdateGoalDetails(ctx context.Context, goal *models.Goal) error
	SetGoalStatus(ctx context.Context, goalID, userID uint, status string, completedAt *time.Time) error
	DeleteGoal(ctx context.Context, goalID, userID uint) error
	AddMilestone(ctx context.Context, milestone *models.GoalMilestone) error

	// ApplyContribution 对单个目标串行执行 fn 并持久化结果
	ApplyContribution(ctx context.Context, goalID, userID uint, fn ContributionFunc) (*models.Goal, error)

	SumAmounts(ctx context.Context, kind EntryKind, userID uint, r *DateRange) (decimal.Decimal, error)
	ListEntriesInRange(ctx context.Context, kind EntryKind, userID uint, start, end time.Time) ([]Entry, error)

	CountGoalsByStatus(ctx context.Context, userID uint, status string) (int64, error)
	// CountContributedGoals 统计指定状态下至少有一笔存入的目标数
	CountContributedGoals(ctx context.Context, userID uint, status string) (int64, error)
	ListCompletedGoals(ctx context.Context, userID uint) ([]models.Goal, error)

	ListAchievements(ctx context.Context, userID uint) ([]models.UserAchievement, error)
	// AppendAchievements 追加成就，已存在的 (user, achievement) 被忽略，返回实际写入的记录
	AppendAchievements(ctx context.Context, userID uint, records []models.UserAchievement) ([]models.UserAchievement, error)

	GetUserAggregate(ctx context.Context, userID uint) (*models.UserAggregate, error)
	RefreshUserAggregate(ctx context.Context, userID uint, now time.Time) (*models.UserAggregate, error)

	Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}

// MonthRange 返回 t 所在自然月偏移 offset 个月后的区间
func MonthRange(t time.Time, offset int) DateRange {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, offset, 0)
	return DateRange{Start: start, End: start.AddDate(0, 1, 0)}
}

// DayStart 返回 t 当天零点
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

type sumFunc func(ctx context.Context, kind EntryKind, userID uint, r *DateRange) (decimal.Decimal, error)

// computeAggregate 余额 = 总收入 - 总支出；储蓄率 = 本月 (收入-支出)/收入 × 100
func computeAggregate(ctx context.Context, sum sumFunc, userID uint, now time.Time) (*models.UserAggregate, error) {
	income, err := sum(ctx, KindIncome, userID, nil)
	if err != nil {
		return nil, err
	}
	expense, err := sum(ctx, KindExpense, userID, nil)
	if err != nil {
		return nil, err
	}

	month := MonthRange(now, 0)
	monthIncome, err := sum(ctx, KindIncome, userID, &month)
	if err != nil {
		return nil, err
	}
	monthExpense, err := sum(ctx, KindExpense, userID, &month)
	if err != nil {
		return nil, err
	}

	agg := &models.UserAggregate{CurrentBalance: income.Sub(expense)}
	if monthIncome.IsPositive() {
		agg.SavingsRate = monthIncome.Sub(monthExpense).
			Div(monthIncome).
			Mul(decimal.NewFromInt(100)).
			Round(2).
			InexactFloat64()
	}
	return agg, nil
}
