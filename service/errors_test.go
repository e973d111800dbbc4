package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"fintrack/ledger"
)

func TestStoreError(t *testing.T) {
	missing := fmt.Errorf("get user aggregate: %w", ledger.ErrNotFound)

	err := storeError("get user aggregate", missing)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "记录不存在")

	err = goalStoreError("find goal", missing)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "目标不存在")

	// 业务错误原样返回
	invalid := invalidState("目标未处于进行中状态，无法存入")
	assert.Same(t, invalid, goalStoreError("apply contribution", invalid))

	err = storeError("leaderboard", errors.New("connection refused"))
	assert.ErrorIs(t, err, ErrDependencyFailure)
	assert.Contains(t, err.Error(), "leaderboard")
}
