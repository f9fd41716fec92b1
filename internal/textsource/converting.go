package textsource

import (
	"context"
	"errors"
	"fmt"

	"resume-extractor/internal/logger"
	"resume-extractor/internal/tracing"
	"resume-extractor/internal/types"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ConvertingProvider 先从 Source 读取原文件，再用 Converter 转成文本
type ConvertingProvider struct {
	source    Source
	converter Converter
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewConvertingProvider 组合来源和转换器
func NewConvertingProvider(source Source, converter Converter) *ConvertingProvider {
	return &ConvertingProvider{
		source:    source,
		converter: converter,
		logger:    logger.Logger.With().Str("component", "converting_provider").Logger(),
		tracer:    otel.Tracer("resume-extractor/textsource"),
	}
}

// GetText 实现 Provider，输出统一折叠为空格分隔的词序列
func (p *ConvertingProvider) GetText(ctx context.Context, ref types.DocumentRef) (string, error) {
	ctx, span := p.tracer.Start(ctx, "textsource.Convert",
		trace.WithAttributes(attribute.String("document", tracing.SafeObjectKey(ref.String()))))
	defer span.End()

	rc, err := p.source.Open(ctx, ref)
	if err != nil {
		errType := tracing.ErrorTypeObjectStore
		if errors.Is(err, ErrDocumentUnavailable) {
			errType = tracing.ErrorTypeValidation
		}
		tracing.RecordError(span, err, errType)
		return "", err
	}
	defer rc.Close()

	raw, err := p.converter.Convert(ctx, rc, ref.Key)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeTextExtraction)
		return "", fmt.Errorf("转换文档 %s 失败: %w", ref, err)
	}

	text := NormalizeText(raw)
	span.SetAttributes(attribute.Int("text.length", len(text)))
	p.logger.Debug().Str("document", ref.String()).Int("chars", len(text)).Msg("文档转换完成")
	return ensureText(ref, text)
}
