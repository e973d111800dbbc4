package api

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/ledger"
	"fintrack/models"
)

func setupSummaryRouter(t *testing.T, userID uint) (*gin.Engine, *ledger.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := ledger.NewMemoryStore()
	store.PutUser(models.User{ID: 1, Username: "alice"})

	router := gin.New()
	router.Use(setUserIDMiddleware(userID))
	router.GET("/statistics/summary", NewSummaryHandler(store).GetIncomeExpenseSummary)
	return router, store
}

func TestSummaryHandler_GetIncomeExpenseSummary(t *testing.T) {
	router, store := setupSummaryRouter(t, 1)

	jan := time.Date(2024, 1, 15, 12, 0, 0, 0, time.Local)
	feb := time.Date(2024, 2, 10, 9, 0, 0, 0, time.Local)
	store.AddIncome(1, dec("5000"), jan)
	store.AddExpense(1, dec("1200.50"), jan)
	store.AddIncome(1, dec("300"), feb)
	store.AddExpense(1, dec("80"), feb)
	_, err := store.RefreshUserAggregate(t.Context(), 1, feb)
	require.NoError(t, err)

	var resp struct {
		Success bool                         `json:"success"`
		Data    IncomeExpenseSummaryResponse `json:"data"`
	}

	w := doJSON(router, "GET", "/statistics/summary", "")
	require.Equal(t, 200, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.True(t, dec("5300").Equal(resp.Data.TotalIncome))
	assert.True(t, dec("1280.50").Equal(resp.Data.TotalExpense))
	assert.True(t, dec("4019.50").Equal(resp.Data.CurrentBalance))
	// 二月：(300-80)/300
	assert.Equal(t, 73.33, resp.Data.SavingsRate)

	// 结束日期包含当天
	w = doJSON(router, "GET", "/statistics/summary?start_time=2024-01-01&end_time=2024-01-15", "")
	require.Equal(t, 200, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, dec("5000").Equal(resp.Data.TotalIncome))
	assert.True(t, dec("1200.50").Equal(resp.Data.TotalExpense))

	w = doJSON(router, "GET", "/statistics/summary?start_time=2024-02-01", "")
	require.Equal(t, 200, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, dec("300").Equal(resp.Data.TotalIncome))
}

func TestSummaryHandler_BadDate(t *testing.T) {
	router, _ := setupSummaryRouter(t, 1)
	w := doJSON(router, "GET", "/statistics/summary?end_time=2024.01.31", "")
	assert.Equal(t, 400, w.Code)
}

func TestSummaryHandler_UnknownUser(t *testing.T) {
	router, _ := setupSummaryRouter(t, 42)
	w := doJSON(router, "GET", "/statistics/summary", "")
	assert.Equal(t, 404, w.Code)
}
