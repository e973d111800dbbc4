package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/ledger"
	"fintrack/models"
)

// GoalService 储蓄目标：创建、存入、自动完成与里程碑
type GoalService struct {
	store    ledger.Store
	notifier Notifier
	now      func() time.Time
}

// NewGoalService 创建目标服务，notifier 可为 nil
func NewGoalService(store ledger.Store, notifier Notifier) *GoalService {
	return &GoalService{
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
}

// MilestoneInput 里程碑参数
type MilestoneInput struct {
	Amount      decimal.Decimal
	Description string
}

// CreateGoalInput 创建目标参数
type CreateGoalInput struct {
	Title         string
	Description   string
	TargetAmount  decimal.Decimal
	CurrentAmount *decimal.Decimal
	Category      string
	Priority      string
	TargetDate    time.Time
	Milestones    []MilestoneInput
}

// UpdateGoalInput 修改目标参数，nil 字段保持不变
type UpdateGoalInput struct {
	Title        *string
	Description  *string
	TargetAmount *decimal.Decimal
	Category     *string
	Priority     *string
	TargetDate   *time.Time
}

func (s *GoalService) notify(userID uint) {
	if s.notifier != nil {
		s.notifier.Fire(userID)
	}
}

// markMilestones 扫描全部里程碑，金额已覆盖的标记为达成，已达成的不回退
func markMilestones(goal *models.Goal, now time.Time) {
	for i := range goal.Milestones {
		m := &goal.Milestones[i]
		if m.IsAchieved || m.Amount.GreaterThan(goal.CurrentAmount) {
			continue
		}
		achievedAt := now
		m.IsAchieved = true
		m.AchievedAt = &achievedAt
	}
}

// checkCents 金额最多两位小数，超出精度直接拒绝
func checkCents(d decimal.Decimal, name string) error {
	if !d.Equal(d.Round(2)) {
		return invalidArgument("%s最多两位小数", name)
	}
	return nil
}

// Create 创建目标，初始状态为 active
// 初始金额已达到目标金额时仍保持 active，自动完成只在存入时触发
func (s *GoalService) Create(ctx context.Context, userID uint, in CreateGoalInput) (*models.Goal, error) {
	now := s.now()

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, invalidArgument("目标名称不能为空")
	}
	target := in.TargetAmount
	if err := checkCents(target, "目标金额"); err != nil {
		return nil, err
	}
	if !target.IsPositive() {
		return nil, invalidArgument("目标金额必须大于 0")
	}
	if !in.TargetDate.After(now) {
		return nil, invalidArgument("目标日期必须晚于当前时间")
	}

	category := in.Category
	if category == "" {
		category = models.GoalCategoryOther
	}
	if !models.IsValidGoalCategory(category) {
		return nil, invalidArgument("无效的目标类别: %s", category)
	}
	priority := in.Priority
	if priority == "" {
		priority = models.GoalPriorityMedium
	}
	if !models.IsValidGoalPriority(priority) {
		return nil, invalidArgument("无效的优先级: %s", priority)
	}

	current := decimal.Zero
	if in.CurrentAmount != nil {
		current = *in.CurrentAmount
		if err := checkCents(current, "初始金额"); err != nil {
			return nil, err
		}
		if current.IsNegative() {
			return nil, invalidArgument("初始金额不能为负数")
		}
	}

	goal := &models.Goal{
		UserID:        userID,
		Title:         title,
		Description:   in.Description,
		TargetAmount:  target,
		CurrentAmount: current,
		Category:      category,
		Priority:      priority,
		TargetDate:    in.TargetDate,
		Status:        models.GoalStatusActive,
	}
	for _, m := range in.Milestones {
		amount := m.Amount
		if err := checkCents(amount, "里程碑金额"); err != nil {
			return nil, err
		}
		if !amount.IsPositive() {
			return nil, invalidArgument("里程碑金额必须大于 0")
		}
		goal.Milestones = append(goal.Milestones, models.GoalMilestone{Amount: amount, Description: m.Description})
	}
	markMilestones(goal, now)

	if err := s.store.CreateGoal(ctx, goal); err != nil {
		return nil, goalStoreError("create goal", err)
	}

	slog.Info("目标已创建", "user_id", userID, "goal_id", goal.ID, "target", target.String())
	goal.ComputeDerived(now)
	s.notify(userID)
	return goal, nil
}

// Get 获取目标详情（含里程碑与存入记录）
func (s *GoalService) Get(ctx context.Context, goalID, userID uint) (*models.Goal, error) {
	goal, err := s.store.FindGoal(ctx, goalID, userID)
	if err != nil {
		return nil, goalStoreError("find goal", err)
	}
	goal.ComputeDerived(s.now())
	return goal, nil
}

// List 列出用户目标，status 为空时返回全部
func (s *GoalService) List(ctx context.Context, userID uint, status string) ([]models.Goal, error) {
	if status != "" && !models.IsValidGoalStatus(status) {
		return nil, invalidArgument("无效的目标状态: %s", status)
	}
	goals, err := s.store.ListGoals(ctx, userID, status)
	if err != nil {
		return nil, goalStoreError("list goals", err)
	}
	now := s.now()
	for i := range goals {
		goals[i].ComputeDerived(now)
	}
	return goals, nil
}

// Update 修改目标基本信息，不改变金额与状态
// 只写可编辑字段，并发的存入或状态变更不会被旧快照覆盖
func (s *GoalService) Update(ctx context.Context, goalID, userID uint, in UpdateGoalInput) (*models.Goal, error) {
	goal, err := s.store.FindGoal(ctx, goalID, userID)
	if err != nil {
		return nil, goalStoreError("find goal", err)
	}
	now := s.now()

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, invalidArgument("目标名称不能为空")
		}
		goal.Title = title
	}
	if in.Description != nil {
		goal.Description = *in.Description
	}
	if in.TargetAmount != nil {
		target := *in.TargetAmount
		if err := checkCents(target, "目标金额"); err != nil {
			return nil, err
		}
		if !target.IsPositive() {
			return nil, invalidArgument("目标金额必须大于 0")
		}
		goal.TargetAmount = target
	}
	if in.TargetDate != nil {
		if !in.TargetDate.After(now) {
			return nil, invalidArgument("目标日期必须晚于当前时间")
		}
		goal.TargetDate = *in.TargetDate
	}
	if in.Category != nil {
		if !models.IsValidGoalCategory(*in.Category) {
			return nil, invalidArgument("无效的目标类别: %s", *in.Category)
		}
		goal.Category = *in.Category
	}
	if in.Priority != nil {
		if !models.IsValidGoalPriority(*in.Priority) {
			return nil, invalidArgument("无效的优先级: %s", *in.Priority)
		}
		goal.Priority = *in.Priority
	}

	if err := s.store.UpdateGoalDetails(ctx, goal); err != nil {
		return nil, goalStoreError("update goal", err)
	}
	return s.Get(ctx, goalID, userID)
}

// Delete 删除目标
func (s *GoalService) Delete(ctx context.Context, goalID, userID uint) error {
	if err := s.store.DeleteGoal(ctx, goalID, userID); err != nil {
		return goalStoreError("delete goal", err)
	}
	slog.Info("目标已删除", "user_id", userID, "goal_id", goalID)
	return nil
}

// AddMilestone 为目标追加里程碑，当前金额已覆盖时直接标记达成
func (s *GoalService) AddMilestone(ctx context.Context, goalID, userID uint, in MilestoneInput) (*models.Goal, error) {
	amount := in.Amount
	if err := checkCents(amount, "里程碑金额"); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, invalidArgument("里程碑金额必须大于 0")
	}

	goal, err := s.store.FindGoal(ctx, goalID, userID)
	if err != nil {
		return nil, goalStoreError("find goal", err)
	}

	now := s.now()
	milestone := &models.GoalMilestone{GoalID: goal.ID, Amount: amount, Description: in.Description}
	if goal.CurrentAmount.GreaterThanOrEqual(amount) {
		milestone.IsAchieved = true
		milestone.AchievedAt = &now
	}
	if err := s.store.AddMilestone(ctx, milestone); err != nil {
		return nil, goalStoreError("add milestone", err)
	}

	return s.Get(ctx, goalID, userID)
}

// AddContribution 向目标存入一笔金额
// 同一目标的并发存入由存储层串行化；达到目标金额时 active 自动转为 completed
func (s *GoalService) AddContribution(ctx context.Context, goalID, userID uint, amount decimal.Decimal, source, note string) (*models.Goal, error) {
	if source == "" {
		source = models.ContributionSourceManual
	}
	if err := checkCents(amount, "存入金额"); err != nil {
		return nil, err
	}
	now := s.now()

	goal, err := s.store.ApplyContribution(ctx, goalID, userID, func(goal *models.Goal) (*models.GoalContribution, error) {
		if !amount.IsPositive() {
			return nil, invalidArgument("存入金额必须大于 0")
		}
		if !models.IsValidContributionSource(source) {
			return nil, invalidArgument("无效的存入来源: %s", source)
		}
		if goal.Status != models.GoalStatusActive {
			return nil, invalidState("目标未处于进行中状态，无法存入")
		}

		goal.CurrentAmount = goal.CurrentAmount.Add(amount)
		if goal.CurrentAmount.GreaterThanOrEqual(goal.TargetAmount) {
			completedAt := now
			goal.Status = models.GoalStatusCompleted
			goal.CompletedAt = &completedAt
		}
		markMilestones(goal, now)

		return &models.GoalContribution{
			Amount: amount,
			Source: source,
			Note:   note,
			Date:   now,
		}, nil
	})
	if err != nil {
		return nil, goalStoreError("apply contribution", err)
	}

	slog.Info("目标存入成功",
		"user_id", userID,
		"goal_id", goalID,
		"amount", amount.String(),
		"current", goal.CurrentAmount.String(),
		"status", goal.Status,
	)
	goal.ComputeDerived(now)
	s.notify(userID)
	return goal, nil
}

// UpdateStatus 手动修改目标状态，状态之间可任意切换
// 进入 completed 时补记完成时间，离开 completed 时清除
func (s *GoalService) UpdateStatus(ctx context.Context, goalID, userID uint, status string) (*models.Goal, error) {
	if !models.IsValidGoalStatus(status) {
		return nil, invalidArgument("无效的目标状态: %s", status)
	}

	goal, err := s.store.FindGoal(ctx, goalID, userID)
	if err != nil {
		return nil, goalStoreError("find goal", err)
	}

	now := s.now()
	switch {
	case status == models.GoalStatusCompleted && goal.CompletedAt == nil:
		completedAt := now
		goal.CompletedAt = &completedAt
	case status != models.GoalStatusCompleted:
		goal.CompletedAt = nil
	}
	goal.Status = status

	if err := s.store.SetGoalStatus(ctx, goal.ID, userID, status, goal.CompletedAt); err != nil {
		return nil, goalStoreError("set goal status", err)
	}

	slog.Info("目标状态已更新", "user_id", userID, "goal_id", goalID, "status", status)
	goal.ComputeDerived(now)
	s.notify(userID)
	return goal, nil
}
