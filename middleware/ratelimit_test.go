package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestLoginRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// 短窗口 200ms，最多 2 次
	router := gin.New()
	router.Use(LoginRateLimit(2, 200*time.Millisecond))
	router.POST("/login", func(c *gin.Context) {
		c.String(200, "ok")
	})

	// 同一 IP 连续 3 次，第 3 次应返回 429
	doReq := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/login", nil)
		req.Header.Set("X-Real-IP", ip)
		req.RemoteAddr = ip + ":12345"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w1 := doReq("192.168.1.1")
	w2 := doReq("192.168.1.1")
	w3 := doReq("192.168.1.1")

	assert.Equal(t, 200, w1.Code)
	assert.Equal(t, 200, w2.Code)
	assert.Equal(t, http.StatusTooManyRequests, w3.Code)
	assert.Contains(t, w3.Body.String(), "频繁")

	// 不同 IP 互不影响
	w4 := doReq("192.168.1.2")
	w5 := doReq("192.168.1.2")
	assert.Equal(t, 200, w4.Code)
	assert.Equal(t, 200, w5.Code)
}

func TestUserRateLimit_PerUser(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if uid := c.GetHeader("X-Test-User"); uid == "1" {
			c.Set(ContextUserIDKey, uint(1))
		} else {
			c.Set(ContextUserIDKey, uint(2))
		}
		c.Next()
	})
	router.Use(UserRateLimit(1, time.Minute))
	router.POST("/goals/1/contributions", func(c *gin.Context) {
		c.String(200, "ok")
	})

	doReq := func(user string) int {
		req := httptest.NewRequest("POST", "/goals/1/contributions", nil)
		req.Header.Set("X-Test-User", user)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, 200, doReq("1"))
	assert.Equal(t, http.StatusTooManyRequests, doReq("1"))
	// 同一 IP 的其他用户不受影响
	assert.Equal(t, 200, doReq("2"))
}

func TestRateLimiter_WindowExpires(t *testing.T) {
	rl := &RateLimiter{requests: make(map[string][]time.Time), limit: 1, window: 50 * time.Millisecond}

	assert.True(t, rl.Allow("k"))
	assert.False(t, rl.Allow("k"))

	time.Sleep(80 * time.Millisecond)
	assert.True(t, rl.Allow("k"))

	time.Sleep(80 * time.Millisecond)
	rl.cleanup()
	assert.Empty(t, rl.requests)
}
