package textsource

import (
	"context"
	"errors"
	"fmt"

	"resume-extractor/internal/logger"
	"resume-extractor/internal/tracing"
	"resume-extractor/internal/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	textracttypes "github.com/aws/aws-sdk-go-v2/service/textract/types"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TextractAPI textract.Client 中用到的部分
type TextractAPI interface {
	AnalyzeDocument(ctx context.Context, params *textract.AnalyzeDocumentInput, optFns ...func(*textract.Options)) (*textract.AnalyzeDocumentOutput, error)
}

var _ TextractAPI = (*textract.Client)(nil)

// ObjectLocator 对象存在性检查，storage.MinIO 实现了该接口
type ObjectLocator interface {
	ObjectExists(ctx context.Context, bucket, key string) (bool, error)
}

// TextractProvider 通过 Textract 对存储桶中的文档做 OCR
type TextractProvider struct {
	client  TextractAPI
	locator ObjectLocator
	logger  zerolog.Logger
	tracer  trace.Tracer
}

// TextractOption 选项
type TextractOption func(*TextractProvider)

// WithObjectLocator 在调用 Textract 前先确认对象存在
func WithObjectLocator(l ObjectLocator) TextractOption {
	return func(p *TextractProvider) {
		p.locator = l
	}
}

// NewTextractProvider 创建 Textract 文本提供者
func NewTextractProvider(client TextractAPI, opts ...TextractOption) *TextractProvider {
	p := &TextractProvider{
		client: client,
		logger: logger.Logger.With().Str("component", "textract").Logger(),
		tracer: otel.Tracer("resume-extractor/textsource/textract"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GetText 以 FORMS 模式分析文档，只保留 WORD 块并按出现顺序以空格连接
func (p *TextractProvider) GetText(ctx context.Context, ref types.DocumentRef) (string, error) {
	ctx, span := p.tracer.Start(ctx, "textract.AnalyzeDocument",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("s3.bucket", ref.Bucket),
			attribute.String("s3.key", tracing.SafeObjectKey(ref.Key)),
		))
	defer span.End()

	if p.locator != nil {
		exists, err := p.locator.ObjectExists(ctx, ref.Bucket, ref.Key)
		if err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeObjectStore)
			return "", fmt.Errorf("检查文档是否存在失败: %w", err)
		}
		if !exists {
			err := unavailable(ref, nil)
			tracing.RecordError(span, err, tracing.ErrorTypeObjectStore)
			return "", err
		}
	}

	out, err := p.client.AnalyzeDocument(ctx, &textract.AnalyzeDocumentInput{
		Document: &textracttypes.Document{
			S3Object: &textracttypes.S3Object{
				Bucket: aws.String(ref.Bucket),
				Name:   aws.String(ref.Key),
			},
		},
		FeatureTypes: []textracttypes.FeatureType{textracttypes.FeatureTypeForms},
	})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeExternal)
		var invalidObj *textracttypes.InvalidS3ObjectException
		if errors.As(err, &invalidObj) {
			return "", unavailable(ref, err)
		}
		return "", fmt.Errorf("textract分析文档失败: %w", err)
	}

	var words []string
	for _, block := range out.Blocks {
		if block.BlockType == textracttypes.BlockTypeWord {
			words = append(words, aws.ToString(block.Text))
		}
	}
	span.SetAttributes(
		attribute.Int("textract.blocks", len(out.Blocks)),
		attribute.Int("textract.words", len(words)),
	)
	p.logger.Debug().
		Str("document", ref.String()).
		Int("words", len(words)).
		Msg("Textract分析完成")

	return ensureText(ref, JoinWords(words))
}
