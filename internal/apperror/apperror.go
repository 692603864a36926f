// Package apperror 定义服务层返回给接口层的错误分类
package apperror

import (
	"errors"
	"net/http"
)

// Kind 错误类别
type Kind int

const (
	KindUnexpected Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindAuth
	KindUnavailable
)

// Error 业务错误，Message 直接返回给客户端
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status HTTP状态码
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAuth:
		return http.StatusUnauthorized
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Validation 输入缺失或格式错误
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Conflict 唯一约束冲突
func Conflict(msg string, err error) *Error {
	return &Error{Kind: KindConflict, Message: msg, Err: err}
}

// NotFound 记录不存在
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Auth 凭据错误
func Auth(msg string) *Error {
	return &Error{Kind: KindAuth, Message: msg}
}

// Unavailable 暂时无法处理
func Unavailable(msg string, err error) *Error {
	return &Error{Kind: KindUnavailable, Message: msg, Err: err}
}

// Unexpected 其他错误
func Unexpected(msg string, err error) *Error {
	return &Error{Kind: KindUnexpected, Message: msg, Err: err}
}

// From 取出错误链中的 *Error，没有时按 Unexpected 处理
func From(err error, fallback string) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Unexpected(fallback, err)
}
