package api

import (
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/ledger"
	"fintrack/models"
	"fintrack/service"
)

func itoa(id uint) string { return strconv.FormatUint(uint64(id), 10) }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func setupAchievementRouter(t *testing.T, userID uint) (*gin.Engine, *ledger.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := ledger.NewMemoryStore()
	store.PutUser(models.User{ID: 1, Username: "alice"})
	store.PutUser(models.User{ID: 2, Username: "bob"})
	h := NewAchievementHandler(service.NewAchievementService(store))

	router := gin.New()
	router.Use(setUserIDMiddleware(userID))
	router.POST("/achievements/check", h.Check)
	router.GET("/achievements", h.List)
	router.GET("/achievements/leaderboard", h.Leaderboard)
	return router, store
}

type checkEnvelope struct {
	Success bool                     `json:"success"`
	Message string                   `json:"message"`
	Data    service.EvaluationResult `json:"data"`
}

func seedCompleted(t *testing.T, store *ledger.MemoryStore, userID uint, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, store.CreateGoal(t.Context(), &models.Goal{
			UserID: userID, Title: "done", TargetAmount: dec("100"),
			TargetDate: time.Now().AddDate(0, -1, 0), Status: models.GoalStatusCompleted,
		}))
	}
}

func TestAchievementHandler_Check_NewUser(t *testing.T) {
	router, _ := setupAchievementRouter(t, 1)

	w := doJSON(router, "POST", "/achievements/check", "")
	require.Equal(t, 200, w.Code)
	assert.JSONEq(t, `[]`, string(mustField(t, w.Body.Bytes(), "data", "new_achievements")))

	var env checkEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.True(t, env.Success)
	assert.Zero(t, env.Data.TotalAchievements)
	assert.Zero(t, env.Data.TotalPoints)
}

func TestAchievementHandler_Check_GoalCompletionist(t *testing.T) {
	router, store := setupAchievementRouter(t, 1)
	seedCompleted(t, store, 1, 5)

	w := doJSON(router, "POST", "/achievements/check", "")
	require.Equal(t, 200, w.Code)
	var env checkEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.Len(t, env.Data.NewlyUnlocked, 1)
	assert.Equal(t, 8, env.Data.NewlyUnlocked[0].AchievementID)
	assert.Equal(t, 600, env.Data.TotalPoints)
	assert.Equal(t, "解锁 1 个新成就", env.Message)

	w = doJSON(router, "POST", "/achievements/check", "")
	require.Equal(t, 200, w.Code)
	env = checkEnvelope{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Empty(t, env.Data.NewlyUnlocked)
	assert.Equal(t, 1, env.Data.TotalAchievements)
	assert.Equal(t, 600, env.Data.TotalPoints)
}

func TestAchievementHandler_ListAndLeaderboard(t *testing.T) {
	router, store := setupAchievementRouter(t, 1)
	seedCompleted(t, store, 1, 5)
	require.Equal(t, 200, doJSON(router, "POST", "/achievements/check", "").Code)

	w := doJSON(router, "GET", "/achievements", "")
	require.Equal(t, 200, w.Code)
	var list struct {
		Data []service.AchievementStatus `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 10)
	assert.True(t, list.Data[7].Unlocked)
	assert.False(t, list.Data[0].Unlocked)

	w = doJSON(router, "GET", "/achievements/leaderboard?limit=abc", "")
	require.Equal(t, 200, w.Code)
	var board struct {
		Data []models.LeaderboardEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &board))
	require.Len(t, board.Data, 1)
	assert.Equal(t, "alice", board.Data[0].Username)
	assert.Equal(t, 600, board.Data[0].TotalPoints)
}

func TestAchievementHandler_Leaderboard_Limit(t *testing.T) {
	router, store := setupAchievementRouter(t, 1)
	for id := uint(3); id <= 14; id++ {
		store.PutUser(models.User{ID: id, Username: "user" + itoa(id)})
		_, err := store.AppendAchievements(t.Context(), id, []models.UserAchievement{
			{UserID: id, AchievementID: 1, Name: "First Steps", Points: int(id), EarnedAt: time.Now()},
		})
		require.NoError(t, err)
	}

	cases := []struct {
		query string
		want  int
	}{
		{"", 10},
		{"?limit=abc", 10},
		{"?limit=-1", 10},
		{"?limit=3", 3},
		{"?limit=500", 12},
	}
	for _, tc := range cases {
		w := doJSON(router, "GET", "/achievements/leaderboard"+tc.query, "")
		require.Equal(t, 200, w.Code, tc.query)
		var board struct {
			Data []models.LeaderboardEntry `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &board))
		assert.Len(t, board.Data, tc.want, tc.query)
	}
}

// mustField 取出嵌套字段的原始 JSON
func mustField(t *testing.T, body []byte, path ...string) json.RawMessage {
	t.Helper()
	raw := json.RawMessage(body)
	for _, key := range path {
		var obj map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(raw, &obj))
		var ok bool
		raw, ok = obj[key]
		require.True(t, ok, "missing field %s", key)
	}
	return raw
}
