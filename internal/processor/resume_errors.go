package processor

import (
	"errors"
	"fmt"
)

// 各处理阶段的基础错误
var (
	ErrFetchTextFailed = errors.New("获取文档文本失败")
	ErrExtractFailed   = errors.New("提取候选人字段失败")
	ErrStoreFailed     = errors.New("保存候选人记录失败")
	ErrInvalidEvent    = errors.New("事件格式无效")
)

// DocumentError 单个文档处理失败的详细信息
type DocumentError struct {
	Key     string
	Op      string
	BaseErr error
	Detail  string
}

func (e *DocumentError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s, 文档:%s): %s", e.opErr(), e.Op, e.Key, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s, 文档:%s)", e.opErr(), e.Op, e.Key)
}

func (e *DocumentError) Unwrap() error {
	return e.BaseErr
}

// Is 同时匹配阶段错误与底层错误
func (e *DocumentError) Is(target error) bool {
	if target == e.opErr() {
		return true
	}
	return errors.Is(e.BaseErr, target)
}

func (e *DocumentError) opErr() error {
	switch e.Op {
	case "fetch":
		return ErrFetchTextFailed
	case "extract":
		return ErrExtractFailed
	case "store":
		return ErrStoreFailed
	default:
		return ErrInvalidEvent
	}
}

func newDocumentError(key, op string, err error) error {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	return &DocumentError{Key: key, Op: op, BaseErr: err, Detail: detail}
}

// NewFetchError 获取文本阶段的错误
func NewFetchError(key string, err error) error {
	return newDocumentError(key, "fetch", err)
}

// NewExtractError 字段提取阶段的错误
func NewExtractError(key string, err error) error {
	return newDocumentError(key, "extract", err)
}

// NewStoreError 持久化阶段的错误
func NewStoreError(key string, err error) error {
	return newDocumentError(key, "store", err)
}
