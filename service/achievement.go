package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fintrack/ledger"
	"fintrack/models"
)

// 排行榜条数
const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
)

// EvaluationResult 一次成就评估的结果
type EvaluationResult struct {
	NewlyUnlocked     []models.UserAchievement `json:"new_achievements"`
	TotalAchievements int                      `json:"total_achievements"`
	TotalPoints       int                      `json:"total_points"`
}

// AchievementStatus 成就定义及当前用户的解锁情况
type AchievementStatus struct {
	AchievementDefinition
	Unlocked bool       `json:"unlocked"`
	EarnedAt *time.Time `json:"earned_at"`
}

// AchievementService 成就评估：对尚未获得的成就逐一判定，新达成的一次性写入
type AchievementService struct {
	store    ledger.Store
	criteria map[int]Criterion
	now      func() time.Time
}

// NewAchievementService 使用默认判定规则创建成就服务
func NewAchievementService(store ledger.Store) *AchievementService {
	return NewAchievementServiceWithCriteria(store, DefaultCriteria())
}

// NewAchievementServiceWithCriteria 使用自定义判定规则创建成就服务
func NewAchievementServiceWithCriteria(store ledger.Store, criteria map[int]Criterion) *AchievementService {
	return &AchievementService{
		store:    store,
		criteria: criteria,
		now:      time.Now,
	}
}

// runCriterion 单条规则出错或 panic 时只影响自身
func runCriterion(ctx context.Context, c Criterion, in CriterionInput) (met bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("criterion panic: %v", r)
		}
	}()
	return c(ctx, in)
}

// Evaluate 评估用户成就
// 已获得的成就不再判定；某条规则失败时记录日志并按未达成处理，其余规则照常执行
func (s *AchievementService) Evaluate(ctx context.Context, userID uint) (*EvaluationResult, error) {
	runID := uuid.NewString()
	now := s.now()

	held, err := s.store.ListAchievements(ctx, userID)
	if err != nil {
		return nil, storeError("list achievements", err)
	}
	heldIDs := make(map[int]bool, len(held))
	for _, rec := range held {
		heldIDs[rec.AchievementID] = true
	}

	in := CriterionInput{Store: s.store, UserID: userID, Now: now}
	var staged []models.UserAchievement
	for _, def := range achievementCatalog {
		if heldIDs[def.ID] {
			continue
		}
		criterion, ok := s.criteria[def.ID]
		if !ok {
			continue
		}
		met, err := runCriterion(ctx, criterion, in)
		if err != nil {
			slog.Warn("成就判定失败",
				"run_id", runID,
				"user_id", userID,
				"achievement_id", def.ID,
				"error", err,
			)
			continue
		}
		if met {
			staged = append(staged, def.record(userID, now))
		}
	}

	inserted, err := s.store.AppendAchievements(ctx, userID, staged)
	if err != nil {
		return nil, storeError("append achievements", err)
	}

	result := &EvaluationResult{NewlyUnlocked: []models.UserAchievement{}}
	for _, rec := range held {
		result.TotalAchievements++
		result.TotalPoints += rec.Points
	}
	for _, rec := range inserted {
		result.NewlyUnlocked = append(result.NewlyUnlocked, rec)
		result.TotalAchievements++
		result.TotalPoints += rec.Points
	}

	if len(inserted) > 0 {
		ids := make([]int, 0, len(inserted))
		for _, rec := range inserted {
			ids = append(ids, rec.AchievementID)
		}
		slog.Info("解锁新成就",
			"run_id", runID,
			"user_id", userID,
			"achievement_ids", ids,
			"total_points", result.TotalPoints,
		)
	}
	return result, nil
}

// Catalog 返回全部成就及当前用户的解锁状态
func (s *AchievementService) Catalog(ctx context.Context, userID uint) ([]AchievementStatus, error) {
	held, err := s.store.ListAchievements(ctx, userID)
	if err != nil {
		return nil, storeError("list achievements", err)
	}
	earned := make(map[int]time.Time, len(held))
	for _, rec := range held {
		earned[rec.AchievementID] = rec.EarnedAt
	}

	out := make([]AchievementStatus, 0, len(achievementCatalog))
	for _, def := range achievementCatalog {
		status := AchievementStatus{AchievementDefinition: def}
		if at, ok := earned[def.ID]; ok {
			at := at
			status.Unlocked = true
			status.EarnedAt = &at
		}
		out = append(out, status)
	}
	return out, nil
}

// Leaderboard 按总积分排名，limit 超出范围时取默认值或上限
func (s *AchievementService) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}
	entries, err := s.store.Leaderboard(ctx, limit)
	if err != nil {
		return nil, storeError("leaderboard", err)
	}
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}
	return entries, nil
}
