package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"resume-extractor/internal/constants"
	"resume-extractor/internal/logger"
	"resume-extractor/internal/processor"
	"resume-extractor/internal/storage"
	"resume-extractor/internal/tracing"
	"resume-extractor/internal/types"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
)

// CandidateReader 按ID读取候选人记录
type CandidateReader interface {
	Get(ctx context.Context, resumeID string) (*types.StoredCandidate, error)
}

// CandidateLister 分页列出候选人记录
type CandidateLister interface {
	List(ctx context.Context, offset, limit int) ([]types.StoredCandidate, int64, error)
}

// DocumentUploader 上传简历原件，storage.MinIO 实现了该接口
type DocumentUploader interface {
	UploadDocument(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (types.DocumentRef, error)
}

// EventPublisher 发布上传事件，storage.RabbitMQ 实现了该接口
type EventPublisher interface {
	PublishJSON(ctx context.Context, exchangeName, routingKey string, data interface{}, persistent bool) error
}

// BatchStatusReader 读取批次摘要，storage.Redis 实现了该接口
type BatchStatusReader interface {
	GetBatchStatus(ctx context.Context, batchID string) (string, error)
}

var (
	_ CandidateReader   = (*storage.GormCandidateStore)(nil)
	_ CandidateLister   = (*storage.GormCandidateStore)(nil)
	_ DocumentUploader  = (*storage.MinIO)(nil)
	_ EventPublisher    = (*storage.RabbitMQ)(nil)
	_ BatchStatusReader = (*storage.Redis)(nil)
)

// ResumeHandler 简历字段提取相关的 HTTP 接口
type ResumeHandler struct {
	processor *processor.BatchProcessor
	engine    processor.Extractor

	candidates CandidateReader
	uploader   DocumentUploader
	publisher  EventPublisher
	batches    BatchStatusReader

	eventsExchange string
	uploadedKey    string
	health         func(ctx context.Context) error
	logger         zerolog.Logger
}

// HandlerOption 可选依赖
type HandlerOption func(*ResumeHandler)

// WithCandidateReader 启用 GET /resume/:id
func WithCandidateReader(r CandidateReader) HandlerOption {
	return func(h *ResumeHandler) { h.candidates = r }
}

// WithUploader 启用文件上传
func WithUploader(u DocumentUploader) HandlerOption {
	return func(h *ResumeHandler) { h.uploader = u }
}

// WithEventPublisher 上传后可异步投递到上传事件队列
func WithEventPublisher(p EventPublisher, exchange, routingKey string) HandlerOption {
	return func(h *ResumeHandler) {
		h.publisher = p
		h.eventsExchange = exchange
		h.uploadedKey = routingKey
	}
}

// WithBatchStatusReader 启用批次摘要查询
func WithBatchStatusReader(r BatchStatusReader) HandlerOption {
	return func(h *ResumeHandler) { h.batches = r }
}

// WithHealthCheck 健康检查时调用，通常为数据库 Ping
func WithHealthCheck(check func(ctx context.Context) error) HandlerOption {
	return func(h *ResumeHandler) { h.health = check }
}

// NewResumeHandler 创建处理器
func NewResumeHandler(proc *processor.BatchProcessor, engine processor.Extractor, opts ...HandlerOption) *ResumeHandler {
	h := &ResumeHandler{
		processor: proc,
		engine:    engine,
		logger:    logger.Logger.With().Str("component", "resume_handler").Logger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ExtractRequest 直接提交文本
type ExtractRequest struct {
	Text string `json:"text"`
}

// ExtractResponse 文本提取结果
type ExtractResponse struct {
	Record *types.CandidateRecord `json:"record"`
}

// UploadResponse 异步上传的响应
type UploadResponse struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	Status string `json:"status"`
}

func errorBody(msg string) utils.H {
	return utils.H{"error": msg}
}

// HandleExtract 从请求中的文本直接提取字段，不入库
// POST /api/v1/resume/extract
func (h *ResumeHandler) HandleExtract(ctx context.Context, c *app.RequestContext) {
	var req ExtractRequest
	if err := json.Unmarshal(c.Request.Body(), &req); err != nil {
		c.JSON(consts.StatusBadRequest, errorBody("请求体不是合法的JSON"))
		return
	}

	record, err := h.engine.Extract(ctx, req.Text)
	if err != nil {
		if errors.Is(err, types.ErrNoTextExtracted) {
			c.JSON(consts.StatusBadRequest, errorBody(constants.MsgNoTextFound))
			return
		}
		h.logger.Error().Err(err).Msg("提取字段失败")
		c.JSON(consts.StatusInternalServerError, errorBody(fmt.Sprintf("Error: %s", err)))
		return
	}
	c.JSON(consts.StatusOK, ExtractResponse{Record: record})
}

// HandleEvents 处理一个批次事件，响应码即批次汇总状态
// POST /api/v1/resume/events
func (h *ResumeHandler) HandleEvents(ctx context.Context, c *app.RequestContext) {
	var event types.BatchEvent
	if err := json.Unmarshal(c.Request.Body(), &event); err != nil {
		c.JSON(consts.StatusBadRequest, errorBody(constants.MsgInvalidEvent))
		return
	}

	result := h.processor.ProcessEvent(ctx, event)
	c.JSON(result.StatusCode, result)
}

// HandleUpload 上传简历原件到对象存储，默认同步处理；async=true 时投递到上传事件队列
// POST /api/v1/resume/upload
func (h *ResumeHandler) HandleUpload(ctx context.Context, c *app.RequestContext) {
	if h.uploader == nil {
		c.JSON(consts.StatusServiceUnavailable, errorBody("对象存储不可用"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(consts.StatusBadRequest, errorBody("文件未找到"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(consts.StatusInternalServerError, errorBody("打开文件失败"))
		return
	}
	defer file.Close()

	id, err := uuid.NewV7()
	if err != nil {
		c.JSON(consts.StatusInternalServerError, errorBody("生成对象键失败"))
		return
	}
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	key := fmt.Sprintf("uploads/%s%s", id.String(), ext)

	ref, err := h.uploader.UploadDocument(ctx, key, file, fileHeader.Size, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		h.logger.Error().Err(err).Str("filename", fileHeader.Filename).Msg("上传简历失败")
		c.JSON(consts.StatusInternalServerError, errorBody(fmt.Sprintf("Error: %s", err)))
		return
	}
	h.logger.Info().Str("key", tracing.SafeObjectKey(ref.Key)).Int64("size", fileHeader.Size).Msg("简历已上传")

	event := types.NewBatchEvent(ref)
	if c.Query("async") == "true" && h.publisher != nil {
		if err := h.publisher.PublishJSON(ctx, h.eventsExchange, h.uploadedKey, event, true); err != nil {
			h.logger.Error().Err(err).Str("key", ref.Key).Msg("投递上传事件失败")
			c.JSON(consts.StatusInternalServerError, errorBody(fmt.Sprintf("Error: %s", err)))
			return
		}
		c.JSON(consts.StatusAccepted, UploadResponse{Bucket: ref.Bucket, Key: ref.Key, Status: "QUEUED"})
		return
	}

	result := h.processor.ProcessEvent(ctx, event)
	c.JSON(result.StatusCode, result)
}

// HandleGetCandidate 读取已保存的候选人记录
// GET /api/v1/resume/:id
func (h *ResumeHandler) HandleGetCandidate(ctx context.Context, c *app.RequestContext) {
	if h.candidates == nil {
		c.JSON(consts.StatusServiceUnavailable, errorBody("候选人存储不可用"))
		return
	}
	id := c.Param("id")
	candidate, err := h.candidates.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrCandidateNotFound) {
			c.JSON(consts.StatusNotFound, errorBody("候选人记录不存在"))
			return
		}
		h.logger.Error().Err(err).Str("resume_id", id).Msg("查询候选人记录失败")
		c.JSON(consts.StatusInternalServerError, errorBody(fmt.Sprintf("Error: %s", err)))
		return
	}
	c.JSON(consts.StatusOK, candidate)
}

// HandleListCandidates 分页列出候选人记录
// GET /api/v1/resumes?offset=0&limit=20
func (h *ResumeHandler) HandleListCandidates(ctx context.Context, c *app.RequestContext) {
	lister, ok := h.candidates.(CandidateLister)
	if !ok {
		c.JSON(consts.StatusServiceUnavailable, errorBody("候选人存储不可用"))
		return
	}

	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}

	items, total, err := lister.List(ctx, offset, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("查询候选人列表失败")
		c.JSON(consts.StatusInternalServerError, errorBody(fmt.Sprintf("Error: %s", err)))
		return
	}
	c.JSON(consts.StatusOK, utils.H{"total": total, "offset": offset, "items": items})
}

// HandleGetBatch 查询批次摘要
// GET /api/v1/batch/:batch_id
func (h *ResumeHandler) HandleGetBatch(ctx context.Context, c *app.RequestContext) {
	if h.batches == nil {
		c.JSON(consts.StatusServiceUnavailable, errorBody("批次状态存储不可用"))
		return
	}
	batchID := c.Param("batch_id")
	raw, err := h.batches.GetBatchStatus(ctx, batchID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(consts.StatusNotFound, errorBody("批次不存在或已过期"))
			return
		}
		c.JSON(consts.StatusInternalServerError, errorBody(fmt.Sprintf("Error: %s", err)))
		return
	}
	c.Data(consts.StatusOK, "application/json; charset=utf-8", []byte(raw))
}

// HandleHealth 健康检查
// GET /api/v1/health
func (h *ResumeHandler) HandleHealth(ctx context.Context, c *app.RequestContext) {
	if h.health != nil {
		if err := h.health(ctx); err != nil {
			c.JSON(consts.StatusServiceUnavailable, utils.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(consts.StatusOK, utils.H{"status": "ok"})
}
