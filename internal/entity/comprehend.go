package entity

import (
	"context"
	"errors"

	"resume-extractor/internal/tracing"
	"resume-extractor/internal/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/comprehend"
	comprehendtypes "github.com/aws/aws-sdk-go-v2/service/comprehend/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ComprehendAPI 本包用到的 Comprehend 客户端方法
type ComprehendAPI interface {
	DetectEntities(ctx context.Context, params *comprehend.DetectEntitiesInput, optFns ...func(*comprehend.Options)) (*comprehend.DetectEntitiesOutput, error)
}

var _ ComprehendAPI = (*comprehend.Client)(nil)

// ComprehendRecognizer 基于 AWS Comprehend DetectEntities 的识别器
type ComprehendRecognizer struct {
	client      ComprehendAPI
	endpointArn string
	tracer      trace.Tracer
}

// ComprehendOption 识别器选项
type ComprehendOption func(*ComprehendRecognizer)

// WithEndpointArn 使用自定义实体识别端点（可识别 SKILL 等自定义类型）
func WithEndpointArn(arn string) ComprehendOption {
	return func(r *ComprehendRecognizer) {
		r.endpointArn = arn
	}
}

// NewComprehendRecognizer 创建识别器
func NewComprehendRecognizer(client ComprehendAPI, opts ...ComprehendOption) *ComprehendRecognizer {
	r := &ComprehendRecognizer{
		client: client,
		tracer: otel.Tracer("resume-extractor/entity/comprehend"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DetectEntities 调用 Comprehend 并转换为内部实体
func (r *ComprehendRecognizer) DetectEntities(ctx context.Context, text, languageHint string) ([]types.Entity, error) {
	ctx, span := r.tracer.Start(ctx, "comprehend.DetectEntities",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.Int("text.length", len(text)),
			attribute.String("language", languageHint),
		))
	defer span.End()

	input := &comprehend.DetectEntitiesInput{Text: aws.String(text)}
	if r.endpointArn != "" {
		// 自定义端点自带语言，不能同时指定 LanguageCode
		input.EndpointArn = aws.String(r.endpointArn)
	} else {
		input.LanguageCode = comprehendtypes.LanguageCode(languageHint)
	}

	out, err := r.client.DetectEntities(ctx, input)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeExternal)
		return nil, &ServiceError{Provider: "comprehend", Op: "DetectEntities", Err: err}
	}
	if out == nil {
		err := errors.New("响应为空")
		tracing.RecordError(span, err, tracing.ErrorTypeExternal)
		return nil, &ServiceError{Provider: "comprehend", Op: "DetectEntities", Err: err}
	}

	entities := make([]types.Entity, 0, len(out.Entities))
	for _, e := range out.Entities {
		entities = append(entities, types.Entity{
			Label: aws.ToString(e.Text),
			Type:  string(e.Type),
		})
	}
	span.SetAttributes(attribute.Int("entity.count", len(entities)))
	return entities, nil
}
