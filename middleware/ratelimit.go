package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter 滑动窗口计数，key 可以是 IP 或用户
type RateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
}

// NewRateLimiter 创建限流器并启动过期数据清理
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
	go rl.cleanupLoop()
	return rl
}

// prune 丢弃窗口外的时间戳，复用底层数组
func prune(ts []time.Time, cutoff time.Time) []time.Time {
	kept := ts[:0]
	for _, t := range ts {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

// Allow 判断 key 在当前窗口内是否还有额度，有则记一次
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	ts := prune(rl.requests[key], now.Add(-rl.window))
	if len(ts) >= rl.limit {
		rl.requests[key] = ts
		return false
	}
	rl.requests[key] = append(ts, now)
	return true
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		rl.cleanup()
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.window)
	for key, ts := range rl.requests {
		if ts = prune(ts, cutoff); len(ts) == 0 {
			delete(rl.requests, key)
		} else {
			rl.requests[key] = ts
		}
	}
}

func rateLimit(rl *RateLimiter, keyFn func(c *gin.Context) string, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)
		if !rl.Allow(key) {
			slog.Warn("请求被限流", "key", key, "path", c.FullPath())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"code":    http.StatusTooManyRequests,
				"message": message,
			})
			return
		}
		c.Next()
	}
}

// LoginRateLimit 登录接口限流，每个 IP 在 window 内最多 maxAttempts 次
func LoginRateLimit(maxAttempts int, window time.Duration) gin.HandlerFunc {
	return rateLimit(NewRateLimiter(maxAttempts, window), func(c *gin.Context) string {
		return c.ClientIP()
	}, "登录尝试过于频繁，请稍后再试")
}

// UserRateLimit 按登录用户限流，需放在 JWTAuth 之后；未登录时按 IP 计
func UserRateLimit(limit int, window time.Duration) gin.HandlerFunc {
	return rateLimit(NewRateLimiter(limit, window), func(c *gin.Context) string {
		if id := GetCurrentUserID(c); id != 0 {
			return "user:" + strconv.FormatUint(uint64(id), 10)
		}
		return "ip:" + c.ClientIP()
	}, "操作过于频繁，请稍后再试")
}
