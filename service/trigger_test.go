package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/models"
)

type fakeEvaluator struct {
	mu       sync.Mutex
	users    []uint
	deadline bool
	err      error
	panicked bool
	block    chan struct{}
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, userID uint) (*EvaluationResult, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, f.deadline = ctx.Deadline()
	f.users = append(f.users, userID)
	if f.panicked {
		panic("evaluator exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	return &EvaluationResult{NewlyUnlocked: []models.UserAchievement{}}, nil
}

func (f *fakeEvaluator) calls() []uint {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint(nil), f.users...)
}

type fakeRefresher struct {
	mu    sync.Mutex
	count int
	err   error
}

func (f *fakeRefresher) RefreshUserAggregate(context.Context, uint, time.Time) (*models.UserAggregate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count++
	return &models.UserAggregate{}, f.err
}

func TestAchievementTrigger_FireRefreshesThenEvaluates(t *testing.T) {
	evaluator := &fakeEvaluator{}
	refresher := &fakeRefresher{}
	trigger := NewAchievementTrigger(evaluator, refresher, time.Second)

	trigger.Fire(7)
	trigger.Fire(8)
	trigger.Wait()

	assert.ElementsMatch(t, []uint{7, 8}, evaluator.calls())
	assert.Equal(t, 2, refresher.count)
	assert.True(t, evaluator.deadline)
}

func TestAchievementTrigger_ErrorsAreSwallowed(t *testing.T) {
	evaluator := &fakeEvaluator{err: errors.New("db down")}
	refresher := &fakeRefresher{err: errors.New("db down")}
	trigger := NewAchievementTrigger(evaluator, refresher, 0)

	assert.NotPanics(t, func() {
		trigger.Fire(1)
		trigger.Wait()
	})
	// 刷新失败仍继续评估
	assert.Equal(t, []uint{1}, evaluator.calls())
}

func TestAchievementTrigger_RecoversPanic(t *testing.T) {
	evaluator := &fakeEvaluator{panicked: true}
	trigger := NewAchievementTrigger(evaluator, nil, time.Second)

	trigger.Fire(1)
	trigger.Wait()
	assert.Equal(t, []uint{1}, evaluator.calls())
}

func TestAchievementTrigger_FireDoesNotBlock(t *testing.T) {
	evaluator := &fakeEvaluator{block: make(chan struct{})}
	trigger := NewAchievementTrigger(evaluator, nil, time.Second)

	done := make(chan struct{})
	go func() {
		trigger.Fire(1)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Fire blocked on evaluation")
	}
	close(evaluator.block)
	trigger.Wait()
}

func TestAchievementTrigger_Shutdown(t *testing.T) {
	evaluator := &fakeEvaluator{block: make(chan struct{})}
	trigger := NewAchievementTrigger(evaluator, nil, time.Second)
	trigger.Fire(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, trigger.Shutdown(ctx), context.DeadlineExceeded)

	close(evaluator.block)
	require.NoError(t, trigger.Shutdown(context.Background()))

	// 关闭后不再接收新的评估
	trigger.Fire(2)
	trigger.Wait()
	assert.Equal(t, []uint{1}, evaluator.calls())
}
