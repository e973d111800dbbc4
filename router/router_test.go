package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/api"
	"fintrack/config"
	"fintrack/ledger"
	"fintrack/middleware"
	"fintrack/models"
	"fintrack/service"
)

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{Mode: gin.TestMode},
		JWT:    config.JWTConfig{Secret: "router-secret", ExpireTime: time.Hour},
	}
	middleware.InitJWT(cfg)

	store := ledger.NewMemoryStore()
	store.PutUser(models.User{ID: 1, Username: "alice"})
	achievements := service.NewAchievementService(store)
	goals := service.NewGoalService(store, nil)

	return SetupRouter(cfg, Handlers{
		Auth:        api.NewAuthHandler(cfg),
		Goal:        api.NewGoalHandler(goals),
		Achievement: api.NewAchievementHandler(achievements),
		Expense:     api.NewExpenseHandler(nil),
		Income:      api.NewIncomeHandler(nil),
		Summary:     api.NewSummaryHandler(store),
		Export:      api.NewExportHandler(goals),
	})
}

func TestSetupRouter_Health(t *testing.T) {
	r := setupTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestSetupRouter_CORSPreflight(t *testing.T) {
	r := setupTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/v1/goals", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSetupRouter_ProtectedRoutesRequireToken(t *testing.T) {
	r := setupTestRouter(t)

	for _, path := range []string{"/api/v1/goals", "/api/v1/achievements", "/api/v1/statistics/summary"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestSetupRouter_GoalFlowWithToken(t *testing.T) {
	r := setupTestRouter(t)
	token, err := middleware.GenerateToken(1, "alice", time.Hour)
	require.NoError(t, err)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := do(http.MethodPost, "/api/v1/goals", `{"title":"Trip","target_amount":300,"category":"vacation","target_date":"2099-06-30"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(http.MethodGet, "/api/v1/achievements", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(http.MethodPost, "/api/v1/achievements/check", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"new_achievements"`)
}

func TestSetupRouter_Swagger(t *testing.T) {
	r := setupTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/v1/goals/{id}/contribute")
}
