package entity

import (
	"context"
	"errors"
	"fmt"

	"resume-extractor/internal/types"
)

// ErrServiceUnavailable 实体识别服务调用失败的统一基础错误
var ErrServiceUnavailable = errors.New("实体识别服务不可用")

// Recognizer 外部实体识别服务
type Recognizer interface {
	DetectEntities(ctx context.Context, text, languageHint string) ([]types.Entity, error)
}

// RecognizerFunc 允许普通函数实现 Recognizer
type RecognizerFunc func(ctx context.Context, text, languageHint string) ([]types.Entity, error)

// DetectEntities 调用函数本身
func (f RecognizerFunc) DetectEntities(ctx context.Context, text, languageHint string) ([]types.Entity, error) {
	return f(ctx, text, languageHint)
}

// ServiceError 描述一次失败的识别调用
type ServiceError struct {
	Provider string
	Op       string
	Err      error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s (服务:%s, 操作:%s): %v", ErrServiceUnavailable, e.Provider, e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Is 使 errors.Is(err, ErrServiceUnavailable) 对所有 ServiceError 成立
func (e *ServiceError) Is(target error) bool {
	return target == ErrServiceUnavailable
}

// Result 识别调用的显式结果：成功携带实体，失败携带错误
type Result struct {
	Entities []types.Entity
	Err      error
}

// OK 调用是否成功
func (r Result) OK() bool {
	return r.Err == nil
}

// Detect 在调用边界把识别服务的所有失败（错误、超时、panic）收敛为 Result。
// 识别器不响应 ctx 时也会在 ctx 结束后立即返回。
func Detect(ctx context.Context, rec Recognizer, text, languageHint string) Result {
	if rec == nil {
		return Result{}
	}

	done := make(chan Result, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- Result{Err: &ServiceError{Provider: "unknown", Op: "DetectEntities", Err: fmt.Errorf("panic: %v", p)}}
			}
		}()
		entities, err := rec.DetectEntities(ctx, text, languageHint)
		if err != nil {
			if !errors.Is(err, ErrServiceUnavailable) {
				err = &ServiceError{Provider: "unknown", Op: "DetectEntities", Err: err}
			}
			done <- Result{Err: err}
			return
		}
		done <- Result{Entities: entities}
	}()

	select {
	case res := <-done:
		return res
	case <-ctx.Done():
		return Result{Err: &ServiceError{Provider: "unknown", Op: "DetectEntities", Err: ctx.Err()}}
	}
}
