package service

import (
	"errors"
	"fmt"

	"fintrack/ledger"
)

// 错误类别，api 层据此映射 HTTP 状态码
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInvalidState      = errors.New("invalid state")
	ErrDependencyFailure = errors.New("dependency failure")
)

// Error 携带面向用户的提示信息，errors.Is 可匹配其类别
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

func newError(kind error, format string, args ...interface{}) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func invalidArgument(format string, args ...interface{}) error {
	return newError(ErrInvalidArgument, format, args...)
}

func invalidState(format string, args ...interface{}) error {
	return newError(ErrInvalidState, format, args...)
}

// storeError 将存储层错误归类：不存在映射为 ErrNotFound，其余视为依赖失败
func storeError(op string, err error) error {
	return classifyStoreError(op, err, "记录不存在")
}

// goalStoreError 目标相关操作，不存在时提示目标不存在
func goalStoreError(op string, err error) error {
	return classifyStoreError(op, err, "目标不存在")
}

func classifyStoreError(op string, err error, notFoundMsg string) error {
	var svcErr *Error
	switch {
	case errors.As(err, &svcErr):
		return err
	case errors.Is(err, ledger.ErrNotFound):
		return newError(ErrNotFound, "%s", notFoundMsg)
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrDependencyFailure, err)
	}
}
