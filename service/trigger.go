package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"fintrack/models"
)

// Evaluator 成就评估
type Evaluator interface {
	Evaluate(ctx context.Context, userID uint) (*EvaluationResult, error)
}

// AggregateRefresher 刷新用户余额与储蓄率
type AggregateRefresher interface {
	RefreshUserAggregate(ctx context.Context, userID uint, now time.Time) (*models.UserAggregate, error)
}

// AchievementTrigger 收支、目标变动后异步刷新用户聚合并评估成就
// 失败与 panic 只记录日志，不影响触发方，也不在请求内重试
type AchievementTrigger struct {
	evaluator Evaluator
	refresher AggregateRefresher
	timeout   time.Duration

	wg     sync.WaitGroup
	closed atomic.Bool
}

// NewAchievementTrigger 创建触发器，refresher 可为 nil
func NewAchievementTrigger(evaluator Evaluator, refresher AggregateRefresher, timeout time.Duration) *AchievementTrigger {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AchievementTrigger{
		evaluator: evaluator,
		refresher: refresher,
		timeout:   timeout,
	}
}

var _ Notifier = (*AchievementTrigger)(nil)

// Fire 立即返回，评估在独立 goroutine 中以独立超时执行
func (t *AchievementTrigger) Fire(userID uint) {
	if t.closed.Load() {
		slog.Warn("服务关闭中，跳过成就评估", "user_id", userID)
		return
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("成就评估 panic", "user_id", userID, "panic", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()
		t.run(ctx, userID)
	}()
}

func (t *AchievementTrigger) run(ctx context.Context, userID uint) {
	if t.refresher != nil {
		if _, err := t.refresher.RefreshUserAggregate(ctx, userID, time.Now()); err != nil {
			slog.Warn("刷新用户聚合失败", "user_id", userID, "error", err)
		}
	}

	start := time.Now()
	result, err := t.evaluator.Evaluate(ctx, userID)
	if err != nil {
		slog.Error("成就评估失败", "user_id", userID, "error", err)
		return
	}
	slog.Debug("成就评估完成",
		"user_id", userID,
		"new", len(result.NewlyUnlocked),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// Wait 等待所有进行中的评估结束
func (t *AchievementTrigger) Wait() {
	t.wg.Wait()
}

// Shutdown 停止接收新的评估并等待进行中的评估，ctx 到期则提前返回
func (t *AchievementTrigger) Shutdown(ctx context.Context) error {
	t.closed.Store(true)

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
