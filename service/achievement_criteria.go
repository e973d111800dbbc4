package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/ledger"
	"fintrack/models"
)

// CriterionInput 成就判定所需的上下文
type CriterionInput struct {
	Store  ledger.Store
	UserID uint
	Now    time.Time
}

// Criterion 成就判定函数，只读不写
type Criterion func(ctx context.Context, in CriterionInput) (bool, error)

// DefaultCriteria 返回成就 ID 到判定函数的映射
func DefaultCriteria() map[int]Criterion {
	return map[int]Criterion{
		1:  firstGoalAchiever,
		2:  savingsImprover,
		3:  consistentTracker,
		4:  budgetMaster,
		5:  goalSetter,
		6:  emergencyFundBuilder,
		7:  savingsChampion,
		8:  goalCompletionist,
		9:  financialDisciplineMaster,
		10: wealthBuilderLegend,
	}
}

var (
	budgetRatio          = decimal.RequireFromString("0.8")
	emergencyMonths      = decimal.NewFromInt(3)
	wealthGrowthFactor   = decimal.RequireFromString("1.5")
	wealthFloor          = decimal.NewFromInt(1000)
	savingsChampionRate  = 20.0
	goalSetterMinGoals   = int64(3)
	completionistMinimum = int64(5)
)

// startingNetWorth 起始净资产，未记录历史快照时视为 0
var startingNetWorth = decimal.Zero

func monthNet(ctx context.Context, in CriterionInput, offset int) (decimal.Decimal, error) {
	r := ledger.MonthRange(in.Now, offset)
	income, err := in.Store.SumAmounts(ctx, ledger.KindIncome, in.UserID, &r)
	if err != nil {
		return decimal.Zero, err
	}
	expense, err := in.Store.SumAmounts(ctx, ledger.KindExpense, in.UserID, &r)
	if err != nil {
		return decimal.Zero, err
	}
	return income.Sub(expense), nil
}

// dailyStreak 从今天起向前连续 days 天每天都有记录
func dailyStreak(ctx context.Context, in CriterionInput, days int, kinds ...ledger.EntryKind) (bool, error) {
	today := ledger.DayStart(in.Now)
	start := today.AddDate(0, 0, -(days - 1))
	end := today.AddDate(0, 0, 1)

	const layout = "2006-01-02"
	seen := make(map[string]bool, days)
	for _, kind := range kinds {
		entries, err := in.Store.ListEntriesInRange(ctx, kind, in.UserID, start, end)
		if err != nil {
			return false, err
		}
		for _, e := range entries {
			seen[e.OccurredAt.In(in.Now.Location()).Format(layout)] = true
		}
	}

	for day := today; !day.Before(start); day = day.AddDate(0, 0, -1) {
		if !seen[day.Format(layout)] {
			return false, nil
		}
	}
	return true, nil
}

func firstGoalAchiever(ctx context.Context, in CriterionInput) (bool, error) {
	goals, err := in.Store.ListCompletedGoals(ctx, in.UserID)
	if err != nil {
		return false, err
	}
	for i := range goals {
		if goals[i].IsOnTimeCompletion() {
			return true, nil
		}
	}
	return false, nil
}

func savingsImprover(ctx context.Context, in CriterionInput) (bool, error) {
	current, err := monthNet(ctx, in, 0)
	if err != nil {
		return false, err
	}
	prev1, err := monthNet(ctx, in, -1)
	if err != nil {
		return false, err
	}
	prev2, err := monthNet(ctx, in, -2)
	if err != nil {
		return false, err
	}
	avg := prev1.Add(prev2).Div(decimal.NewFromInt(2))
	return avg.IsPositive() && current.GreaterThan(avg), nil
}

func consistentTracker(ctx context.Context, in CriterionInput) (bool, error) {
	return dailyStreak(ctx, in, 7, ledger.KindIncome, ledger.KindExpense)
}

func budgetMaster(ctx context.Context, in CriterionInput) (bool, error) {
	month := ledger.MonthRange(in.Now, 0)
	income, err := in.Store.SumAmounts(ctx, ledger.KindIncome, in.UserID, &month)
	if err != nil {
		return false, err
	}
	if !income.IsPositive() {
		return false, nil
	}
	expense, err := in.Store.SumAmounts(ctx, ledger.KindExpense, in.UserID, &month)
	if err != nil {
		return false, err
	}
	return expense.Div(income).LessThan(budgetRatio), nil
}

func goalSetter(ctx context.Context, in CriterionInput) (bool, error) {
	n, err := in.Store.CountContributedGoals(ctx, in.UserID, models.GoalStatusActive)
	if err != nil {
		return false, err
	}
	return n >= goalSetterMinGoals, nil
}

func emergencyFundBuilder(ctx context.Context, in CriterionInput) (bool, error) {
	agg, err := in.Store.GetUserAggregate(ctx, in.UserID)
	if err != nil {
		return false, err
	}
	window := ledger.DateRange{Start: in.Now.AddDate(0, -3, 0), End: in.Now}
	expenses, err := in.Store.SumAmounts(ctx, ledger.KindExpense, in.UserID, &window)
	if err != nil {
		return false, err
	}
	// 余额 >= 3 × (三个月支出 / 3)，即余额不低于三个月支出总额
	avg := expenses.Div(emergencyMonths)
	return avg.IsPositive() && agg.CurrentBalance.GreaterThanOrEqual(expenses), nil
}

// savingsChampion 仅检查当前储蓄率，不回溯三个月
func savingsChampion(ctx context.Context, in CriterionInput) (bool, error) {
	agg, err := in.Store.GetUserAggregate(ctx, in.UserID)
	if err != nil {
		return false, err
	}
	return agg.SavingsRate >= savingsChampionRate, nil
}

func goalCompletionist(ctx context.Context, in CriterionInput) (bool, error) {
	n, err := in.Store.CountGoalsByStatus(ctx, in.UserID, models.GoalStatusCompleted)
	if err != nil {
		return false, err
	}
	return n >= completionistMinimum, nil
}

func financialDisciplineMaster(ctx context.Context, in CriterionInput) (bool, error) {
	return dailyStreak(ctx, in, 30, ledger.KindExpense)
}

// wealthBuilderLegend 起始净资产为 0 时增长条件恒成立，实际门槛是余额超过 1000
func wealthBuilderLegend(ctx context.Context, in CriterionInput) (bool, error) {
	agg, err := in.Store.GetUserAggregate(ctx, in.UserID)
	if err != nil {
		return false, err
	}
	balance := agg.CurrentBalance
	return balance.GreaterThanOrEqual(startingNetWorth.Mul(wealthGrowthFactor)) && balance.GreaterThan(wealthFloor), nil
}
