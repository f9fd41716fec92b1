package tracing

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrorType 写入 span 的 error.type 属性
type ErrorType string

const (
	ErrorTypeDB             ErrorType = "db"
	ErrorTypeRedis          ErrorType = "redis"
	ErrorTypeRabbitMQ       ErrorType = "rabbitmq"
	ErrorTypeObjectStore    ErrorType = "object_store"
	ErrorTypeTextExtraction ErrorType = "text_extraction"
	ErrorTypeValidation     ErrorType = "validation"
	ErrorTypeInternal       ErrorType = "internal"
	// ErrorTypeExternal Comprehend、Textract、Tika 等外部服务
	ErrorTypeExternal ErrorType = "external_system"
	ErrorTypeTimeout  ErrorType = "timeout"
)

// Classify 超时统一归为 ErrorTypeTimeout，其余保持调用方给出的分类
func Classify(err error, errorType ErrorType) ErrorType {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeTimeout
	}
	return errorType
}

// RecordError 记录错误并把 span 置为失败
func RecordError(span trace.Span, err error, errorType ErrorType) {
	RecordErrorWithInfo(span, err, errorType)
}

// RecordErrorWithInfo 同 RecordError，附加额外属性
func RecordErrorWithInfo(span trace.Span, err error, errorType ErrorType, attributes ...attribute.KeyValue) {
	if span == nil || err == nil {
		return
	}

	span.RecordError(err)
	span.SetAttributes(
		attribute.String("error.type", string(Classify(err, errorType))),
		attribute.String("error.message", TruncateString(err.Error(), DefaultMaxLength)),
	)
	span.SetAttributes(attributes...)
	span.SetStatus(codes.Error, err.Error())
}
