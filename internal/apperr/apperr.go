// Package apperr 定义账本命令的错误分类
package apperr

import (
	"errors"
	"fmt"
)

// Kind 错误类别
type Kind string

const (
	KindInvalidStateTransition Kind = "InvalidStateTransition"
	KindUnauthorized           Kind = "Unauthorized"
	KindAlreadyVoted           Kind = "AlreadyVoted"
	KindAlreadySubmitted       Kind = "AlreadySubmitted"
	KindInsufficientFunds      Kind = "InsufficientFunds"
	KindOverTarget             Kind = "OverTarget"
	KindInvalidArgument        Kind = "InvalidArgument"
	KindNotFound               Kind = "NotFound"
	KindInternal               Kind = "Internal"
)

// 哨兵错误，配合 errors.Is 使用
var (
	ErrInvalidStateTransition = &Error{Kind: KindInvalidStateTransition}
	ErrUnauthorized           = &Error{Kind: KindUnauthorized}
	ErrAlreadyVoted           = &Error{Kind: KindAlreadyVoted}
	ErrAlreadySubmitted       = &Error{Kind: KindAlreadySubmitted}
	ErrInsufficientFunds      = &Error{Kind: KindInsufficientFunds}
	ErrOverTarget             = &Error{Kind: KindOverTarget}
	ErrInvalidArgument        = &Error{Kind: KindInvalidArgument}
	ErrNotFound               = &Error{Kind: KindNotFound}
)

// Error 带分类的错误
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Msg
}

// Is 同类别即视为相同
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// New 创建指定类别的错误
func New(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// InvalidState 命令在当前状态下不合法
func InvalidState(format string, args ...interface{}) error {
	return New(KindInvalidStateTransition, format, args...)
}

// Unauthorized 调用者缺少所需角色
func Unauthorized(format string, args ...interface{}) error {
	return New(KindUnauthorized, format, args...)
}

// InvalidArgument 参数不合法
func InvalidArgument(format string, args ...interface{}) error {
	return New(KindInvalidArgument, format, args...)
}

// NotFound 未找到记录
func NotFound(format string, args ...interface{}) error {
	return New(KindNotFound, format, args...)
}

// KindOf 提取错误类别，非分类错误返回 KindInternal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
