package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"resume-extractor/internal/awsclient"
	"resume-extractor/internal/constants"
	"resume-extractor/internal/logger"
	"resume-extractor/internal/storage"
	"resume-extractor/internal/textsource"
	"resume-extractor/internal/tracing"
	"resume-extractor/internal/types"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("processor")

// refValidator 校验 DocumentRef 上的 validate 标签，notblank 拒绝只含空白的值
var refValidator = func() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}()

// Extractor 文本到候选人记录，extractor.Engine 实现了该接口
type Extractor interface {
	Extract(ctx context.Context, text string) (*types.CandidateRecord, error)
}

// DocumentResult 单个文档的处理结果
type DocumentResult struct {
	Bucket   string                 `json:"bucket,omitempty"`
	Key      string                 `json:"key"`
	Status   string                 `json:"status"`
	ResumeID string                 `json:"resume_id,omitempty"`
	Record   *types.CandidateRecord `json:"record,omitempty"`
	Error    string                 `json:"error,omitempty"`

	err error
}

// Err 处理失败时的错误
func (r DocumentResult) Err() error {
	return r.err
}

// BatchResult 一个批次的汇总结果
type BatchResult struct {
	BatchID    string           `json:"batch_id"`
	StatusCode int              `json:"status_code"`
	Message    string           `json:"message"`
	Succeeded  int              `json:"succeeded"`
	Failed     int              `json:"failed"`
	Documents  []DocumentResult `json:"documents"`
}

// BatchProcessor 逐个文档获取文本、提取字段并入库，汇总各文档的结果
type BatchProcessor struct {
	provider        textsource.Provider
	engine          Extractor
	store           storage.CandidateStore
	concurrency     int
	documentTimeout time.Duration
	defaultBucket   string
	statusStore     BatchStatusStore
	statusTTL       time.Duration
	logger          zerolog.Logger
}

// NewBatchProcessor 创建批处理器
func NewBatchProcessor(provider textsource.Provider, engine Extractor, opts ...Option) *BatchProcessor {
	p := &BatchProcessor{
		provider:        provider,
		engine:          engine,
		concurrency:     constants.DefaultBatchConcurrency,
		documentTimeout: constants.DefaultDocumentTimeout,
		statusTTL:       24 * time.Hour,
		logger:          logger.Logger.With().Str("component", "batch_processor").Logger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessEvent 处理一个批次事件。事件没有任何记录时返回 400。
func (p *BatchProcessor) ProcessEvent(ctx context.Context, event types.BatchEvent) BatchResult {
	batchID := uuid.NewString()
	ctx, span := tracer.Start(ctx, "BatchProcessor.ProcessEvent",
		trace.WithAttributes(
			attribute.String("batch.id", batchID),
			attribute.Int("batch.records", len(event.Records)),
		))
	defer span.End()

	log := p.logger.With().Str("batch_id", batchID).Logger()

	if len(event.Records) == 0 {
		log.Warn().Msg("事件中没有 Records")
		span.SetStatus(codes.Error, constants.MsgInvalidEvent)
		return BatchResult{
			BatchID:    batchID,
			StatusCode: http.StatusBadRequest,
			Message:    constants.MsgInvalidEvent,
			Documents:  []DocumentResult{},
		}
	}

	refs := event.DocumentRefs(p.defaultBucket)
	results := make([]DocumentResult, len(refs))

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, ref := range refs {
		g.Go(func() error {
			// 每个文档独立的超时，互不影响
			docCtx, cancel := context.WithTimeout(ctx, p.documentTimeout)
			defer cancel()
			results[i] = p.ProcessDocument(docCtx, ref)
			return nil
		})
	}
	_ = g.Wait()

	result := summarize(batchID, results)
	span.SetAttributes(
		attribute.Int("batch.succeeded", result.Succeeded),
		attribute.Int("batch.failed", result.Failed),
		attribute.Int("batch.status_code", result.StatusCode),
	)
	if result.StatusCode != http.StatusOK {
		span.SetStatus(codes.Error, result.Message)
	}

	log.Info().
		Int("status_code", result.StatusCode).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Msg("批次处理完成")

	p.saveBatchStatus(ctx, result)
	return result
}

// ProcessDocument 处理单个文档，不返回 error，失败信息记录在结果中
func (p *BatchProcessor) ProcessDocument(ctx context.Context, ref types.DocumentRef) DocumentResult {
	ctx, span := tracer.Start(ctx, "BatchProcessor.ProcessDocument",
		trace.WithAttributes(
			attribute.String("document.bucket", ref.Bucket),
			attribute.String("document.key", tracing.SafeObjectKey(ref.Key)),
		))
	defer span.End()

	log := p.logger.With().Str("document", ref.String()).Logger()
	result := DocumentResult{Bucket: ref.Bucket, Key: ref.Key, Status: constants.StatusFailed}

	fail := func(err error, errType tracing.ErrorType) DocumentResult {
		result.err = err
		result.Error = err.Error()
		tracing.RecordError(span, err, errType)
		if isClientError(err) {
			log.Warn().Err(err).Msg("文档处理失败")
		} else {
			log.Error().Err(err).Msg("文档处理失败")
		}
		return result
	}

	if err := refValidator.Struct(ref); err != nil {
		return fail(newDocumentError(ref.Key, "validate", err), tracing.ErrorTypeValidation)
	}

	text, err := p.provider.GetText(ctx, ref)
	if err != nil {
		return fail(NewFetchError(ref.String(), err), tracing.ErrorTypeTextExtraction)
	}
	log.Debug().Int("length", len(text)).Str("sample", tracing.TextSample(text)).Msg("提取到文档文本")

	record, err := p.engine.Extract(ctx, text)
	if err != nil {
		return fail(NewExtractError(ref.String(), err), tracing.ErrorTypeValidation)
	}

	log.Info().
		Str("name", tracing.MaskPII(record.Name)).
		Str("email", tracing.MaskEmail(record.Email)).
		Str("experience", record.ExperienceYears).
		Strs("skills", record.Skills.Sorted()).
		Msg("候选人字段提取完成")

	if p.store != nil {
		id, err := p.store.Put(ctx, record, ref)
		if err != nil {
			return fail(NewStoreError(ref.String(), err), tracing.ErrorTypeDB)
		}
		result.ResumeID = id
		span.SetAttributes(attribute.String("resume.id", id))
	}

	result.Status = constants.StatusExtracted
	result.Record = record
	return result
}

// summarize 汇总状态：全部成功 200；失败都属于客户端原因 400；否则 500
func summarize(batchID string, results []DocumentResult) BatchResult {
	out := BatchResult{
		BatchID:    batchID,
		StatusCode: http.StatusOK,
		Message:    constants.MsgProcessedSuccessfully,
		Documents:  results,
	}

	var firstClient, firstServer error
	for _, r := range results {
		if r.err == nil {
			out.Succeeded++
			continue
		}
		out.Failed++
		if isClientError(r.err) {
			if firstClient == nil {
				firstClient = r.err
			}
		} else if firstServer == nil {
			firstServer = r.err
		}
	}

	switch {
	case firstServer != nil:
		out.StatusCode = http.StatusInternalServerError
		if awsclient.IsAPIError(firstServer) {
			out.Message = fmt.Sprintf("AWS Error: %s", firstServer)
		} else {
			out.Message = fmt.Sprintf("Error: %s", firstServer)
		}
	case firstClient != nil:
		out.StatusCode = http.StatusBadRequest
		if errors.Is(firstClient, types.ErrNoTextExtracted) {
			out.Message = constants.MsgNoTextFound
		} else {
			out.Message = firstClient.Error()
		}
	}
	return out
}

// isClientError 由文档本身导致、重试无意义的失败
func isClientError(err error) bool {
	return errors.Is(err, types.ErrNoTextExtracted) ||
		errors.Is(err, types.ErrDocumentUnavailable) ||
		errors.Is(err, ErrInvalidEvent)
}

func (p *BatchProcessor) saveBatchStatus(ctx context.Context, result BatchResult) {
	if p.statusStore == nil {
		return
	}
	payload, err := json.Marshal(result)
	if err != nil {
		p.logger.Warn().Err(err).Str("batch_id", result.BatchID).Msg("序列化批次摘要失败")
		return
	}
	if err := p.statusStore.SetBatchStatus(ctx, result.BatchID, string(payload), p.statusTTL); err != nil {
		p.logger.Warn().Err(err).Str("batch_id", result.BatchID).Msg("保存批次摘要失败")
	}
}
