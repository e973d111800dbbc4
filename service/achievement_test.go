package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/ledger"
	"fintrack/models"
)

var evalNow = time.Date(2026, 5, 15, 12, 0, 0, 0, time.Local)

func newAchievementFixture(t *testing.T) (*AchievementService, *ledger.MemoryStore) {
	t.Helper()
	store := ledger.NewMemoryStore()
	store.PutUser(models.User{ID: 1, Username: "alice"})
	svc := NewAchievementService(store)
	svc.now = func() time.Time { return evalNow }
	return svc, store
}

func seedCompletedGoals(t *testing.T, store *ledger.MemoryStore, userID uint, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, store.CreateGoal(context.Background(), &models.Goal{
			UserID:       userID,
			Title:        "goal",
			TargetAmount: d("1000"),
			TargetDate:   evalNow.AddDate(0, -1, 0),
			Status:       models.GoalStatusCompleted,
		}))
	}
}

func TestAchievementCatalog_Shape(t *testing.T) {
	catalog := AchievementCatalog()
	require.Len(t, catalog, 10)
	for i, def := range catalog {
		assert.Equal(t, i+1, def.ID)
		assert.Positive(t, def.Points)
		assert.NotEmpty(t, def.Name)
	}
	def, ok := LookupAchievement(8)
	require.True(t, ok)
	assert.Equal(t, 600, def.Points)
	_, ok = LookupAchievement(11)
	assert.False(t, ok)
}

func TestEvaluate_NewUserUnlocksNothing(t *testing.T) {
	svc, _ := newAchievementFixture(t)

	result, err := svc.Evaluate(context.Background(), 1)
	require.NoError(t, err)
	assert.NotNil(t, result.NewlyUnlocked)
	assert.Empty(t, result.NewlyUnlocked)
	assert.Zero(t, result.TotalAchievements)
	assert.Zero(t, result.TotalPoints)
}

func TestEvaluate_GoalCompletionistExactlyOnce(t *testing.T) {
	svc, store := newAchievementFixture(t)
	seedCompletedGoals(t, store, 1, 5)
	ctx := context.Background()

	result, err := svc.Evaluate(ctx, 1)
	require.NoError(t, err)
	require.Len(t, result.NewlyUnlocked, 1)
	assert.Equal(t, 8, result.NewlyUnlocked[0].AchievementID)
	assert.Equal(t, 600, result.NewlyUnlocked[0].Points)
	assert.Equal(t, evalNow, result.NewlyUnlocked[0].EarnedAt)
	assert.Equal(t, 1, result.TotalAchievements)
	assert.Equal(t, 600, result.TotalPoints)

	again, err := svc.Evaluate(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, again.NewlyUnlocked)
	assert.Equal(t, 1, again.TotalAchievements)
	assert.Equal(t, 600, again.TotalPoints)

	held, err := store.ListAchievements(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, held, 1)
}

func TestEvaluate_ConcurrentRunsAwardOnce(t *testing.T) {
	svc, store := newAchievementFixture(t)
	seedCompletedGoals(t, store, 1, 5)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		unlocked int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := svc.Evaluate(context.Background(), 1)
			assert.NoError(t, err)
			mu.Lock()
			unlocked += len(result.NewlyUnlocked)
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, unlocked)
}

func TestEvaluate_FailingCriterionIsSkipped(t *testing.T) {
	store := ledger.NewMemoryStore()
	store.PutUser(models.User{ID: 1, Username: "alice"})
	svc := NewAchievementServiceWithCriteria(store, map[int]Criterion{
		1: func(context.Context, CriterionInput) (bool, error) { return false, errors.New("boom") },
		2: func(context.Context, CriterionInput) (bool, error) { panic("unexpected") },
		3: func(context.Context, CriterionInput) (bool, error) { return true, nil },
	})

	result, err := svc.Evaluate(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, result.NewlyUnlocked, 1)
	assert.Equal(t, 3, result.NewlyUnlocked[0].AchievementID)
	assert.Equal(t, 100, result.TotalPoints)
}

type failingAppendStore struct {
	*ledger.MemoryStore
}

func (failingAppendStore) AppendAchievements(context.Context, uint, []models.UserAchievement) ([]models.UserAchievement, error) {
	return nil, errors.New("connection refused")
}

func TestEvaluate_AppendFailure(t *testing.T) {
	store := ledger.NewMemoryStore()
	svc := NewAchievementServiceWithCriteria(failingAppendStore{store}, map[int]Criterion{
		3: func(context.Context, CriterionInput) (bool, error) { return true, nil },
	})

	_, err := svc.Evaluate(context.Background(), 1)
	assert.ErrorIs(t, err, ErrDependencyFailure)
}

func TestCatalog_MarksUnlocked(t *testing.T) {
	svc, store := newAchievementFixture(t)
	seedCompletedGoals(t, store, 1, 5)
	ctx := context.Background()
	_, err := svc.Evaluate(ctx, 1)
	require.NoError(t, err)

	statuses, err := svc.Catalog(ctx, 1)
	require.NoError(t, err)
	require.Len(t, statuses, 10)
	for _, s := range statuses {
		if s.ID == 8 {
			assert.True(t, s.Unlocked)
			require.NotNil(t, s.EarnedAt)
			continue
		}
		assert.False(t, s.Unlocked, s.Name)
		assert.Nil(t, s.EarnedAt)
	}
}

type limitRecordingStore struct {
	*ledger.MemoryStore
	limit int
}

func (s *limitRecordingStore) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	s.limit = limit
	return s.MemoryStore.Leaderboard(ctx, limit)
}

func TestLeaderboard_ClampsLimit(t *testing.T) {
	store := &limitRecordingStore{MemoryStore: ledger.NewMemoryStore()}
	svc := NewAchievementService(store)
	ctx := context.Background()

	entries, err := svc.Leaderboard(ctx, 0)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Equal(t, DefaultLeaderboardLimit, store.limit)

	_, err = svc.Leaderboard(ctx, 5000)
	require.NoError(t, err)
	assert.Equal(t, MaxLeaderboardLimit, store.limit)

	_, err = svc.Leaderboard(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, store.limit)
}

func criterionInput(store ledger.Store) CriterionInput {
	return CriterionInput{Store: store, UserID: 1, Now: evalNow}
}

func TestCriterion_FirstGoalAchiever(t *testing.T) {
	store := ledger.NewMemoryStore()
	ctx := context.Background()
	late := evalNow
	require.NoError(t, store.CreateGoal(ctx, &models.Goal{
		UserID: 1, Title: "late", TargetAmount: d("100"), CurrentAmount: d("100"),
		TargetDate: evalNow.AddDate(0, 0, -1), Status: models.GoalStatusCompleted, CompletedAt: &late,
	}))

	met, err := firstGoalAchiever(ctx, criterionInput(store))
	require.NoError(t, err)
	assert.False(t, met)

	onTime := evalNow.AddDate(0, 0, -10)
	require.NoError(t, store.CreateGoal(ctx, &models.Goal{
		UserID: 1, Title: "on time", TargetAmount: d("100"), CurrentAmount: d("120"),
		TargetDate: evalNow.AddDate(0, 0, -1), Status: models.GoalStatusCompleted, CompletedAt: &onTime,
	}))

	met, err = firstGoalAchiever(ctx, criterionInput(store))
	require.NoError(t, err)
	assert.True(t, met)
}

func TestCriterion_SavingsImprover(t *testing.T) {
	cases := []struct {
		name      string
		thisMonth string
		history   bool
		want      bool
	}{
		{"above average", "1500", true, true},
		{"below average", "900", true, false},
		{"no history", "100", false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := ledger.NewMemoryStore()
			if tc.history {
				store.AddIncome(1, d("1200"), evalNow.AddDate(0, -2, -5))
				store.AddExpense(1, d("200"), evalNow.AddDate(0, -2, -4))
				store.AddIncome(1, d("1000"), evalNow.AddDate(0, -1, 0))
			}
			store.AddIncome(1, d(tc.thisMonth), evalNow.AddDate(0, 0, -3))

			met, err := savingsImprover(context.Background(), criterionInput(store))
			require.NoError(t, err)
			assert.Equal(t, tc.want, met)
		})
	}
}

func TestCriterion_ConsistentTracker(t *testing.T) {
	today := ledger.DayStart(evalNow).Add(9 * time.Hour)

	store := ledger.NewMemoryStore()
	for i := 0; i < 7; i++ {
		if i%2 == 0 {
			store.AddIncome(1, d("10"), today.AddDate(0, 0, -i))
		} else {
			store.AddExpense(1, d("10"), today.AddDate(0, 0, -i))
		}
	}
	met, err := consistentTracker(context.Background(), criterionInput(store))
	require.NoError(t, err)
	assert.True(t, met)

	gap := ledger.NewMemoryStore()
	for i := 0; i < 8; i++ {
		if i == 3 {
			continue
		}
		gap.AddExpense(1, d("10"), today.AddDate(0, 0, -i))
	}
	met, err = consistentTracker(context.Background(), criterionInput(gap))
	require.NoError(t, err)
	assert.False(t, met)
}

func TestCriterion_BudgetMaster(t *testing.T) {
	cases := []struct {
		expense string
		want    bool
	}{
		{"799.99", true},
		{"800", false},
	}
	for _, tc := range cases {
		store := ledger.NewMemoryStore()
		store.AddIncome(1, d("1000"), evalNow.AddDate(0, 0, -2))
		store.AddExpense(1, d(tc.expense), evalNow.AddDate(0, 0, -1))
		// 上月支出不计入
		store.AddExpense(1, d("5000"), evalNow.AddDate(0, -1, 0))

		met, err := budgetMaster(context.Background(), criterionInput(store))
		require.NoError(t, err)
		assert.Equal(t, tc.want, met, tc.expense)
	}

	met, err := budgetMaster(context.Background(), criterionInput(ledger.NewMemoryStore()))
	require.NoError(t, err)
	assert.False(t, met)
}

func TestCriterion_GoalSetter(t *testing.T) {
	store := ledger.NewMemoryStore()
	store.PutUser(models.User{ID: 1, Username: "alice"})
	goals := NewGoalService(store, nil)
	ctx := context.Background()

	var ids []uint
	for i := 0; i < 3; i++ {
		ids = append(ids, createGoal(t, goals, 1, "10000").ID)
	}
	for _, id := range ids[:2] {
		_, err := goals.AddContribution(ctx, id, 1, d("10"), "", "")
		require.NoError(t, err)
	}

	met, err := goalSetter(ctx, criterionInput(store))
	require.NoError(t, err)
	assert.False(t, met)

	_, err = goals.AddContribution(ctx, ids[2], 1, d("10"), "", "")
	require.NoError(t, err)
	met, err = goalSetter(ctx, criterionInput(store))
	require.NoError(t, err)
	assert.True(t, met)
}

func TestCriterion_EmergencyFundBuilder(t *testing.T) {
	cases := []struct {
		balance string
		want    bool
	}{
		{"3000", true},
		{"2999.99", false},
	}
	for _, tc := range cases {
		store := ledger.NewMemoryStore()
		store.PutUser(models.User{ID: 1, Username: "alice", CurrentBalance: d(tc.balance)})
		store.AddExpense(1, d("1000"), evalNow.AddDate(0, -1, 0))
		store.AddExpense(1, d("2000"), evalNow.AddDate(0, -2, 0))
		// 窗口之外
		store.AddExpense(1, d("9000"), evalNow.AddDate(0, -4, 0))

		met, err := emergencyFundBuilder(context.Background(), criterionInput(store))
		require.NoError(t, err)
		assert.Equal(t, tc.want, met, tc.balance)
	}

	// 没有支出时不成立
	store := ledger.NewMemoryStore()
	store.PutUser(models.User{ID: 1, Username: "alice", CurrentBalance: d("100000")})
	met, err := emergencyFundBuilder(context.Background(), criterionInput(store))
	require.NoError(t, err)
	assert.False(t, met)
}

func TestCriterion_SavingsChampion(t *testing.T) {
	for rate, want := range map[float64]bool{20: true, 19.99: false, 75: true} {
		store := ledger.NewMemoryStore()
		store.PutUser(models.User{ID: 1, Username: "alice", SavingsRate: rate})
		met, err := savingsChampion(context.Background(), criterionInput(store))
		require.NoError(t, err)
		assert.Equal(t, want, met, rate)
	}

	_, err := savingsChampion(context.Background(), criterionInput(ledger.NewMemoryStore()))
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestCriterion_FinancialDisciplineMaster(t *testing.T) {
	today := ledger.DayStart(evalNow).Add(8 * time.Hour)

	store := ledger.NewMemoryStore()
	for i := 0; i < 30; i++ {
		store.AddExpense(1, d("5"), today.AddDate(0, 0, -i))
	}
	met, err := financialDisciplineMaster(context.Background(), criterionInput(store))
	require.NoError(t, err)
	assert.True(t, met)

	short := ledger.NewMemoryStore()
	for i := 0; i < 29; i++ {
		short.AddExpense(1, d("5"), today.AddDate(0, 0, -i))
	}
	// 收入不算在连续记账天数内
	short.AddIncome(1, d("5"), today.AddDate(0, 0, -29))
	met, err = financialDisciplineMaster(context.Background(), criterionInput(short))
	require.NoError(t, err)
	assert.False(t, met)
}

func TestCriterion_WealthBuilderLegend(t *testing.T) {
	for balance, want := range map[string]bool{"1000": false, "1000.01": true, "-50": false} {
		store := ledger.NewMemoryStore()
		store.PutUser(models.User{ID: 1, Username: "alice", CurrentBalance: decimal.RequireFromString(balance)})
		met, err := wealthBuilderLegend(context.Background(), criterionInput(store))
		require.NoError(t, err)
		assert.Equal(t, want, met, balance)
	}
}
