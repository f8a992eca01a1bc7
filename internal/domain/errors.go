package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound 记录不存在（或已被逻辑删除后对外不可见）
var ErrNotFound = errors.New("记录不存在")

// ValidationError 用户输入校验失败（4xx 级别，不重试）
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Validationf 构造校验错误
func Validationf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ConflictError 状态机前置条件/唯一性冲突
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// Conflictf 构造冲突错误
func Conflictf(format string, args ...any) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
