package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fintrack/models"
)

// GormStore 基于 GORM 的账本存储，支持 MySQL / PostgreSQL
type GormStore struct {
	db *gorm.DB
}

// NewGormStore 创建 GORM 存储
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

var _ Store = (*GormStore)(nil)

func orderMilestones(db *gorm.DB) *gorm.DB {
	return db.Order("amount ASC, id ASC")
}

func orderContributions(db *gorm.DB) *gorm.DB {
	return db.Order("date ASC, id ASC")
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *GormStore) FindGoal(ctx context.Context, goalID, userID uint) (*models.Goal, error) {
	var goal models.Goal
	err := s.db.WithContext(ctx).
		Preload("Milestones", orderMilestones).
		Preload("Contributions", orderContributions).
		Where("id = ? AND user_id = ?", goalID, userID).
		First(&goal).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &goal, nil
}

func (s *GormStore) ListGoals(ctx context.Context, userID uint, status string) ([]models.Goal, error) {
	query := s.db.WithContext(ctx).
		Preload("Milestones", orderMilestones).
		Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var goals []models.Goal
	if err := query.Order("created_at DESC, id DESC").Find(&goals).Error; err != nil {
		return nil, err
	}
	return goals, nil
}

// CreateGoal 创建目标，里程碑随关联一并写入
func (s *GormStore) CreateGoal(ctx context.Context, goal *models.Goal) error {
	return s.db.WithContext(ctx).Create(goal).Error
}

// UpdateGoalDetails 更新目标可编辑字段；current_amount 只由 ApplyContribution 修改
// 调用方需先通过 FindGoal 确认归属
func (s *GormStore) UpdateGoalDetails(ctx context.Context, goal *models.Goal) error {
	return s.db.WithContext(ctx).
		Model(&models.Goal{}).
		Where("id = ? AND user_id = ?", goal.ID, goal.UserID).
		Updates(map[string]interface{}{
			"title":         goal.Title,
			"description":   goal.Description,
			"target_amount": goal.TargetAmount,
			"category":      goal.Category,
			"target_date":   goal.TargetDate,
			"priority":      goal.Priority,
		}).Error
}

// SetGoalStatus 写入状态与完成时间，调用方需先确认归属
func (s *GormStore) SetGoalStatus(ctx context.Context, goalID, userID uint, status string, completedAt *time.Time) error {
	return s.db.WithContext(ctx).
		Model(&models.Goal{}).
		Where("id = ? AND user_id = ?", goalID, userID).
		Updates(map[string]interface{}{
			"status":       status,
			"completed_at": completedAt,
		}).Error
}

func (s *GormStore) DeleteGoal(ctx context.Context, goalID, userID uint) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", goalID, userID).
		Delete(&models.Goal{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) AddMilestone(ctx context.Context, milestone *models.GoalMilestone) error {
	return s.db.WithContext(ctx).Create(milestone).Error
}

// ApplyContribution 在事务内以 SELECT ... FOR UPDATE 锁定目标行，
// 同一目标的并发存入在数据库层串行化
func (s *GormStore) ApplyContribution(ctx context.Context, goalID, userID uint, fn ContributionFunc) (*models.Goal, error) {
	var goal models.Goal
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND user_id = ?", goalID, userID).
			First(&goal).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Scopes(orderMilestones).Where("goal_id = ?", goal.ID).Find(&goal.Milestones).Error; err != nil {
			return err
		}

		achieved := make(map[uint]bool, len(goal.Milestones))
		for _, m := range goal.Milestones {
			achieved[m.ID] = m.IsAchieved
		}

		contribution, err := fn(&goal)
		if err != nil {
			return err
		}

		contribution.GoalID = goal.ID
		contribution.UserID = goal.UserID
		if err := tx.Create(contribution).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Goal{}).
			Where("id = ?", goal.ID).
			Updates(map[string]interface{}{
				"current_amount": goal.CurrentAmount,
				"status":         goal.Status,
				"completed_at":   goal.CompletedAt,
			}).Error; err != nil {
			return err
		}

		for _, m := range goal.Milestones {
			if !m.IsAchieved || achieved[m.ID] {
				continue
			}
			if err := tx.Model(&models.GoalMilestone{}).
				Where("id = ?", m.ID).
				Updates(map[string]interface{}{
					"is_achieved": true,
					"achieved_at": m.AchievedAt,
				}).Error; err != nil {
				return err
			}
		}

		return tx.Scopes(orderContributions).Where("goal_id = ?", goal.ID).Find(&goal.Contributions).Error
	})
	if err != nil {
		return nil, err
	}
	return &goal, nil
}

func entryTable(kind EntryKind) (model interface{}, timeColumn string) {
	if kind == KindIncome {
		return &models.Income{}, "income_time"
	}
	return &models.Expense{}, "expense_time"
}

func (s *GormStore) SumAmounts(ctx context.Context, kind EntryKind, userID uint, r *DateRange) (decimal.Decimal, error) {
	model, col := entryTable(kind)
	query := s.db.WithContext(ctx).Model(model).Where("user_id = ?", userID)
	if r != nil {
		query = query.Where(col+" >= ? AND "+col+" < ?", r.Start, r.End)
	}

	var total decimal.Decimal
	if err := query.Select("COALESCE(SUM(amount), 0)").Row().Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (s *GormStore) ListEntriesInRange(ctx context.Context, kind EntryKind, userID uint, start, end time.Time) ([]Entry, error) {
	model, col := entryTable(kind)

	var rows []struct {
		Amount     decimal.Decimal
		OccurredAt time.Time
	}
	err := s.db.WithContext(ctx).
		Model(model).
		Select("amount, "+col+" AS occurred_at").
		Where("user_id = ? AND "+col+" >= ? AND "+col+" < ?", userID, start, end).
		Order(col + " ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, Entry{Kind: kind, Amount: row.Amount, OccurredAt: row.OccurredAt})
	}
	return entries, nil
}

func (s *GormStore) CountGoalsByStatus(ctx context.Context, userID uint, status string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&models.Goal{}).
		Where("user_id = ? AND status = ?", userID, status).
		Count(&n).Error
	return n, err
}

func (s *GormStore) CountContributedGoals(ctx context.Context, userID uint, status string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&models.Goal{}).
		Where("user_id = ? AND status = ?", userID, status).
		Where("EXISTS (SELECT 1 FROM goal_contributions WHERE goal_contributions.goal_id = goals.id)").
		Count(&n).Error
	return n, err
}

func (s *GormStore) ListCompletedGoals(ctx context.Context, userID uint) ([]models.Goal, error) {
	var goals []models.Goal
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.GoalStatusCompleted).
		Order("completed_at ASC").
		Find(&goals).Error
	return goals, err
}

func (s *GormStore) ListAchievements(ctx context.Context, userID uint) ([]models.UserAchievement, error) {
	var records []models.UserAchievement
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("achievement_id ASC").
		Find(&records).Error
	return records, err
}

// AppendAchievements 单事务逐条 INSERT，冲突时忽略（MySQL ON DUPLICATE KEY / PG ON CONFLICT DO NOTHING）
// 依赖 (user_id, achievement_id) 唯一索引，并发评估也不会产生重复记录
func (s *GormStore) AppendAchievements(ctx context.Context, userID uint, records []models.UserAchievement) ([]models.UserAchievement, error) {
	if len(records) == 0 {
		return nil, nil
	}

	var inserted []models.UserAchievement
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inserted = inserted[:0]
		for i := range records {
			rec := records[i]
			rec.UserID = userID
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 1 {
				inserted = append(inserted, rec)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inserted, nil
}

func (s *GormStore) GetUserAggregate(ctx context.Context, userID uint) (*models.UserAggregate, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Select("id", "current_balance", "savings_rate").
		First(&user, userID).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &models.UserAggregate{CurrentBalance: user.CurrentBalance, SavingsRate: user.SavingsRate}, nil
}

func (s *GormStore) RefreshUserAggregate(ctx context.Context, userID uint, now time.Time) (*models.UserAggregate, error) {
	agg, err := computeAggregate(ctx, s.SumAmounts, userID, now)
	if err != nil {
		return nil, err
	}

	res := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"current_balance": agg.CurrentBalance,
			"savings_rate":    agg.SavingsRate,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	return agg, nil
}

// Leaderboard 按总积分、成就数降序排列
func (s *GormStore) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	var entries []models.LeaderboardEntry
	err := s.db.WithContext(ctx).
		Table("user_achievements AS ua").
		Select("ua.user_id AS user_id, u.username AS username, SUM(ua.points) AS total_points, COUNT(*) AS total_achievements").
		Joins("JOIN users u ON u.id = ua.user_id AND u.deleted_at IS NULL").
		Group("ua.user_id, u.username").
		Order("total_points DESC, total_achievements DESC, ua.user_id ASC").
		Limit(limit).
		Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}
