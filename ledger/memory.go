package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/models"
)

// MemoryStore 进程内账本存储，所有写操作串行执行
type MemoryStore struct {
	mu sync.RWMutex

	nextID        uint
	users         map[uint]*models.User
	goals         map[uint]*models.Goal
	milestones    map[uint][]models.GoalMilestone
	contributions map[uint][]models.GoalContribution
	incomes       []models.Income
	expenses      []models.Expense
	achievements  map[uint]map[int]models.UserAchievement
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[uint]*models.User),
		goals:         make(map[uint]*models.Goal),
		milestones:    make(map[uint][]models.GoalMilestone),
		contributions: make(map[uint][]models.GoalContribution),
		achievements:  make(map[uint]map[int]models.UserAchievement),
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) id() uint {
	s.nextID++
	return s.nextID
}

// PutUser 写入或覆盖用户
func (s *MemoryStore) PutUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.id()
	}
	s.users[u.ID] = &u
}

// AddIncome 写入一条收入流水
func (s *MemoryStore) AddIncome(userID uint, amount decimal.Decimal, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.incomes = append(s.incomes, models.Income{ID: s.id(), UserID: userID, Amount: amount, IncomeTime: at})
}

// AddExpense 写入一条消费流水
func (s *MemoryStore) AddExpense(userID uint, amount decimal.Decimal, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = append(s.expenses, models.Expense{ID: s.id(), UserID: userID, Amount: amount, ExpenseTime: at})
}

// goalCopy 返回带关联数据的副本，调用方修改不会影响存储
func (s *MemoryStore) goalCopy(g *models.Goal, withContributions bool) models.Goal {
	out := *g
	out.Milestones = append([]models.GoalMilestone(nil), s.milestones[g.ID]...)
	if withContributions {
		out.Contributions = append([]models.GoalContribution(nil), s.contributions[g.ID]...)
	} else {
		out.Contributions = nil
	}
	return out
}

func (s *MemoryStore) ownedGoal(goalID, userID uint) (*models.Goal, bool) {
	g, ok := s.goals[goalID]
	if !ok || g.UserID != userID {
		return nil, false
	}
	return g, true
}

func sortMilestones(ms []models.GoalMilestone) {
	sort.SliceStable(ms, func(i, j int) bool {
		if !ms[i].Amount.Equal(ms[j].Amount) {
			return ms[i].Amount.LessThan(ms[j].Amount)
		}
		return ms[i].ID < ms[j].ID
	})
}

func (s *MemoryStore) FindGoal(_ context.Context, goalID, userID uint) (*models.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.ownedGoal(goalID, userID)
	if !ok {
		return nil, ErrNotFound
	}
	out := s.goalCopy(g, true)
	return &out, nil
}

func (s *MemoryStore) ListGoals(_ context.Context, userID uint, status string) ([]models.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var goals []models.Goal
	for _, g := range s.goals {
		if g.UserID != userID || (status != "" && g.Status != status) {
			continue
		}
		goals = append(goals, s.goalCopy(g, false))
	}
	sort.Slice(goals, func(i, j int) bool { return goals[i].ID > goals[j].ID })
	return goals, nil
}

func (s *MemoryStore) CreateGoal(_ context.Context, goal *models.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	goal.ID = s.id()
	goal.CreatedAt = now
	goal.UpdatedAt = now
	for i := range goal.Milestones {
		goal.Milestones[i].ID = s.id()
		goal.Milestones[i].GoalID = goal.ID
		goal.Milestones[i].CreatedAt = now
	}
	sortMilestones(goal.Milestones)

	stored := *goal
	stored.Milestones = nil
	stored.Contributions = nil
	s.goals[goal.ID] = &stored
	s.milestones[goal.ID] = append([]models.GoalMilestone(nil), goal.Milestones...)
	return nil
}

func (s *MemoryStore) UpdateGoalDetails(_ context.Context, goal *models.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.ownedGoal(goal.ID, goal.UserID)
	if !ok {
		return ErrNotFound
	}
	g.Title = goal.Title
	g.Description = goal.Description
	g.TargetAmount = goal.TargetAmount
	g.Category = goal.Category
	g.TargetDate = goal.TargetDate
	g.Priority = goal.Priority
	g.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) SetGoalStatus(_ context.Context, goalID, userID uint, status string, completedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.ownedGoal(goalID, userID)
	if !ok {
		return ErrNotFound
	}
	g.Status = status
	g.CompletedAt = completedAt
	g.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) DeleteGoal(_ context.Context, goalID, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ownedGoal(goalID, userID); !ok {
		return ErrNotFound
	}
	delete(s.goals, goalID)
	delete(s.milestones, goalID)
	delete(s.contributions, goalID)
	return nil
}

func (s *MemoryStore) AddMilestone(_ context.Context, milestone *models.GoalMilestone) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.goals[milestone.GoalID]; !ok {
		return ErrNotFound
	}
	milestone.ID = s.id()
	milestone.CreatedAt = time.Now()
	ms := append(s.milestones[milestone.GoalID], *milestone)
	sortMilestones(ms)
	s.milestones[milestone.GoalID] = ms
	return nil
}

// ApplyContribution 持有写锁期间完成读改写
func (s *MemoryStore) ApplyContribution(_ context.Context, goalID, userID uint, fn ContributionFunc) (*models.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.ownedGoal(goalID, userID)
	if !ok {
		return nil, ErrNotFound
	}

	working := s.goalCopy(g, false)
	contribution, err := fn(&working)
	if err != nil {
		return nil, err
	}

	contribution.ID = s.id()
	contribution.GoalID = g.ID
	contribution.UserID = g.UserID
	contribution.CreatedAt = time.Now()
	s.contributions[g.ID] = append(s.contributions[g.ID], *contribution)

	g.CurrentAmount = working.CurrentAmount
	g.Status = working.Status
	g.CompletedAt = working.CompletedAt
	g.UpdatedAt = time.Now()
	s.milestones[g.ID] = append([]models.GoalMilestone(nil), working.Milestones...)

	out := s.goalCopy(g, true)
	return &out, nil
}

func (s *MemoryStore) entries(kind EntryKind, userID uint) []Entry {
	var out []Entry
	if kind == KindIncome {
		for _, in := range s.incomes {
			if in.UserID == userID {
				out = append(out, Entry{Kind: kind, Amount: in.Amount, OccurredAt: in.IncomeTime})
			}
		}
		return out
	}
	for _, ex := range s.expenses {
		if ex.UserID == userID {
			out = append(out, Entry{Kind: kind, Amount: ex.Amount, OccurredAt: ex.ExpenseTime})
		}
	}
	return out
}

func (s *MemoryStore) SumAmounts(_ context.Context, kind EntryKind, userID uint, r *DateRange) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, e := range s.entries(kind, userID) {
		if r == nil || r.Contains(e.OccurredAt) {
			total = total.Add(e.Amount)
		}
	}
	return total, nil
}

func (s *MemoryStore) ListEntriesInRange(_ context.Context, kind EntryKind, userID uint, start, end time.Time) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r := DateRange{Start: start, End: end}
	var out []Entry
	for _, e := range s.entries(kind, userID) {
		if r.Contains(e.OccurredAt) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out, nil
}

func (s *MemoryStore) CountGoalsByStatus(_ context.Context, userID uint, status string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, g := range s.goals {
		if g.UserID == userID && g.Status == status {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) CountContributedGoals(_ context.Context, userID uint, status string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, g := range s.goals {
		if g.UserID == userID && g.Status == status && len(s.contributions[g.ID]) > 0 {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) ListCompletedGoals(_ context.Context, userID uint) ([]models.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var goals []models.Goal
	for _, g := range s.goals {
		if g.UserID == userID && g.Status == models.GoalStatusCompleted {
			goals = append(goals, s.goalCopy(g, false))
		}
	}
	sort.Slice(goals, func(i, j int) bool { return goals[i].ID < goals[j].ID })
	return goals, nil
}

func (s *MemoryStore) ListAchievements(_ context.Context, userID uint) ([]models.UserAchievement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []models.UserAchievement
	for _, rec := range s.achievements[userID] {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].AchievementID < records[j].AchievementID })
	return records, nil
}

func (s *MemoryStore) AppendAchievements(_ context.Context, userID uint, records []models.UserAchievement) ([]models.UserAchievement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	held := s.achievements[userID]
	if held == nil {
		held = make(map[int]models.UserAchievement)
		s.achievements[userID] = held
	}

	var inserted []models.UserAchievement
	for _, rec := range records {
		if _, ok := held[rec.AchievementID]; ok {
			continue
		}
		rec.ID = s.id()
		rec.UserID = userID
		rec.CreatedAt = time.Now()
		held[rec.AchievementID] = rec
		inserted = append(inserted, rec)
	}
	return inserted, nil
}

func (s *MemoryStore) GetUserAggregate(_ context.Context, userID uint) (*models.UserAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &models.UserAggregate{CurrentBalance: u.CurrentBalance, SavingsRate: u.SavingsRate}, nil
}

func (s *MemoryStore) RefreshUserAggregate(ctx context.Context, userID uint, now time.Time) (*models.UserAggregate, error) {
	agg, err := computeAggregate(ctx, s.SumAmounts, userID, now)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	u.CurrentBalance = agg.CurrentBalance
	u.SavingsRate = agg.SavingsRate
	return agg, nil
}

func (s *MemoryStore) Leaderboard(_ context.Context, limit int) ([]models.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []models.LeaderboardEntry
	for userID, held := range s.achievements {
		u, ok := s.users[userID]
		if !ok || len(held) == 0 {
			continue
		}
		e := models.LeaderboardEntry{UserID: userID, Username: u.Username, TotalAchievements: len(held)}
		for _, rec := range held {
			e.TotalPoints += rec.Points
		}
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.TotalPoints != b.TotalPoints {
			return a.TotalPoints > b.TotalPoints
		}
		if a.TotalAchievements != b.TotalAchievements {
			return a.TotalAchievements > b.TotalAchievements
		}
		return a.UserID < b.UserID
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}
