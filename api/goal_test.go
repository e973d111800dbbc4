package api

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/ledger"
	"fintrack/models"
	"fintrack/service"
)

type goalEnvelope struct {
	Success bool        `json:"success"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    models.Goal `json:"data"`
}

func setupGoalRouter(t *testing.T, userID uint) (*gin.Engine, *ledger.MemoryStore, *recordingNotifier) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := ledger.NewMemoryStore()
	store.PutUser(models.User{ID: 1, Username: "alice"})
	store.PutUser(models.User{ID: 2, Username: "bob"})
	notifier := &recordingNotifier{}
	h := NewGoalHandler(service.NewGoalService(store, notifier))

	router := gin.New()
	router.Use(setUserIDMiddleware(userID))
	router.POST("/goals", h.Create)
	router.GET("/goals", h.List)
	router.GET("/goals/:id", h.Get)
	router.PUT("/goals/:id", h.Update)
	router.DELETE("/goals/:id", h.Delete)
	router.POST("/goals/:id/contribute", h.Contribute)
	router.PUT("/goals/:id/status", h.UpdateStatus)
	router.POST("/goals/:id/milestones", h.AddMilestone)
	return router, store, notifier
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeGoal(t *testing.T, w *httptest.ResponseRecorder) goalEnvelope {
	t.Helper()
	var env goalEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func createGoalViaAPI(t *testing.T, router *gin.Engine, target string) uint {
	t.Helper()
	date := time.Now().AddDate(0, 3, 0).Format("2006-01-02")
	w := doJSON(router, "POST", "/goals",
		`{"title":"New laptop","target_amount":`+target+`,"category":"purchase","target_date":"`+date+`","milestones":[{"amount":500}]}`)
	require.Equal(t, 200, w.Code, w.Body.String())
	env := decodeGoal(t, w)
	require.True(t, env.Success)
	return env.Data.ID
}

func TestGoalHandler_ContributeUntilCompleted(t *testing.T) {
	router, _, notifier := setupGoalRouter(t, 1)
	id := createGoalViaAPI(t, router, "1000")
	path := "/goals/" + itoa(id) + "/contribute"

	w := doJSON(router, "POST", path, `{"amount":800}`)
	require.Equal(t, 200, w.Code, w.Body.String())
	env := decodeGoal(t, w)
	assert.Equal(t, models.GoalStatusActive, env.Data.Status)
	assert.Equal(t, 80.0, env.Data.ProgressPercentage)
	require.Len(t, env.Data.Milestones, 1)
	assert.True(t, env.Data.Milestones[0].IsAchieved)

	w = doJSON(router, "POST", path, `{"amount":"200.00","source":"bonus","note":"year-end"}`)
	require.Equal(t, 200, w.Code, w.Body.String())
	env = decodeGoal(t, w)
	assert.Equal(t, models.GoalStatusCompleted, env.Data.Status)
	assert.Equal(t, 100.0, env.Data.ProgressPercentage)
	assert.NotNil(t, env.Data.CompletedAt)
	assert.Len(t, env.Data.Contributions, 2)

	// 创建与两次存入各通知一次
	assert.Equal(t, []uint{1, 1, 1}, notifier.fired())

	// 已完成的目标不能继续存入
	w = doJSON(router, "POST", path, `{"amount":1}`)
	assert.Equal(t, 400, w.Code)
}

func TestGoalHandler_Contribute_Errors(t *testing.T) {
	router, store, _ := setupGoalRouter(t, 1)
	id := createGoalViaAPI(t, router, "1000")
	path := "/goals/" + itoa(id) + "/contribute"

	w := doJSON(router, "POST", path, `{"amount":-5}`)
	assert.Equal(t, 400, w.Code)
	w = doJSON(router, "POST", path, `{"amount":10,"source":"lottery"}`)
	assert.Equal(t, 400, w.Code)
	w = doJSON(router, "POST", "/goals/9999/contribute", `{"amount":10}`)
	assert.Equal(t, 404, w.Code)
	w = doJSON(router, "POST", "/goals/x/contribute", `{"amount":10}`)
	assert.Equal(t, 400, w.Code)

	// 超过两位小数不做四舍五入
	for _, amount := range []string{"0.005", "0.004"} {
		w = doJSON(router, "POST", path, `{"amount":`+amount+`}`)
		assert.Equal(t, 400, w.Code, amount)
		assert.Equal(t, "存入金额最多两位小数", decodeGoal(t, w).Message, amount)
	}

	goal, err := store.FindGoal(t.Context(), id, 1)
	require.NoError(t, err)
	assert.True(t, goal.CurrentAmount.IsZero())
}

func TestGoalHandler_ForeignGoalIsNotFound(t *testing.T) {
	router, store, _ := setupGoalRouter(t, 2)
	owned := &models.Goal{UserID: 1, Title: "alice's", TargetAmount: dec("100"),
		TargetDate: time.Now().AddDate(0, 1, 0), Status: models.GoalStatusActive}
	require.NoError(t, store.CreateGoal(t.Context(), owned))
	id := itoa(owned.ID)

	assert.Equal(t, 404, doJSON(router, "GET", "/goals/"+id, "").Code)
	assert.Equal(t, 404, doJSON(router, "POST", "/goals/"+id+"/contribute", `{"amount":10}`).Code)
	assert.Equal(t, 404, doJSON(router, "PUT", "/goals/"+id+"/status", `{"status":"paused"}`).Code)
	assert.Equal(t, 404, doJSON(router, "DELETE", "/goals/"+id, "").Code)
}

func TestGoalHandler_StatusTransitions(t *testing.T) {
	router, _, _ := setupGoalRouter(t, 1)
	id := createGoalViaAPI(t, router, "1000")
	base := "/goals/" + itoa(id)

	w := doJSON(router, "PUT", base+"/status", `{"status":"archived"}`)
	assert.Equal(t, 400, w.Code)

	w = doJSON(router, "PUT", base+"/status", `{"status":"paused"}`)
	require.Equal(t, 200, w.Code)
	assert.Equal(t, models.GoalStatusPaused, decodeGoal(t, w).Data.Status)

	w = doJSON(router, "POST", base+"/contribute", `{"amount":50}`)
	assert.Equal(t, 400, w.Code)

	w = doJSON(router, "PUT", base+"/status", `{"status":"active"}`)
	require.Equal(t, 200, w.Code)
	w = doJSON(router, "POST", base+"/contribute", `{"amount":50}`)
	require.Equal(t, 200, w.Code)
	assert.Equal(t, 5.0, decodeGoal(t, w).Data.ProgressPercentage)
}

func TestGoalHandler_CreateValidation(t *testing.T) {
	router, _, notifier := setupGoalRouter(t, 1)

	cases := []string{
		`{"title":"x","target_amount":100}`,
		`{"title":"x","target_amount":100,"target_date":"2001-01-01"}`,
		`{"title":"x","target_amount":0,"target_date":"2099-01-01"}`,
		`{"title":"x","target_amount":100,"target_date":"01/01/2099"}`,
		`{"title":"x","target_amount":100,"target_date":"2099-01-01","category":"yacht"}`,
	}
	for _, body := range cases {
		w := doJSON(router, "POST", "/goals", body)
		assert.Equal(t, 400, w.Code, body)
	}
	assert.Empty(t, notifier.fired())
}

func TestGoalHandler_CRUD(t *testing.T) {
	router, _, _ := setupGoalRouter(t, 1)
	id := createGoalViaAPI(t, router, "1000")
	createGoalViaAPI(t, router, "2000")
	base := "/goals/" + itoa(id)

	w := doJSON(router, "PUT", base, `{"title":"Gaming laptop","target_amount":1500,"priority":"high"}`)
	require.Equal(t, 200, w.Code, w.Body.String())
	env := decodeGoal(t, w)
	assert.Equal(t, "Gaming laptop", env.Data.Title)
	assert.Equal(t, models.GoalPriorityHigh, env.Data.Priority)

	w = doJSON(router, "POST", base+"/milestones", `{"amount":750,"description":"half way"}`)
	require.Equal(t, 200, w.Code)
	assert.Len(t, decodeGoal(t, w).Data.Milestones, 2)

	w = doJSON(router, "GET", "/goals?status=active", "")
	require.Equal(t, 200, w.Code)
	var list struct {
		Data []models.Goal `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Data, 2)

	assert.Equal(t, 400, doJSON(router, "GET", "/goals?status=done", "").Code)
	assert.Equal(t, 200, doJSON(router, "DELETE", base, "").Code)
	assert.Equal(t, 404, doJSON(router, "GET", base, "").Code)
}
