package extractor

import (
	"context"
	"strings"
	"time"

	"resume-extractor/internal/entity"
	"resume-extractor/internal/logger"
	"resume-extractor/internal/types"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultLanguageHint  = "en"
	defaultEntityTimeout = 5 * time.Second
)

// ErrNoTextExtracted 输入文本为空或只有空白
var ErrNoTextExtracted = types.ErrNoTextExtracted

// Engine 字段提取引擎。除只读的技能目录外不持有可变状态，可被多个 goroutine 同时使用。
type Engine struct {
	catalog       *SkillCatalog
	recognizer    entity.Recognizer
	languageHint  string
	skillType     string
	entityTimeout time.Duration
	logger        zerolog.Logger
	tracer        trace.Tracer
}

// Option 引擎选项
type Option func(*Engine)

// WithRecognizer 设置外部实体识别服务，nil 表示不使用
func WithRecognizer(r entity.Recognizer) Option {
	return func(e *Engine) {
		e.recognizer = r
	}
}

// WithLanguageHint 设置传给识别服务的语言提示
func WithLanguageHint(lang string) Option {
	return func(e *Engine) {
		if lang != "" {
			e.languageHint = lang
		}
	}
}

// WithSkillEntityType 设置被视为技能的实体类型
func WithSkillEntityType(t string) Option {
	return func(e *Engine) {
		if t != "" {
			e.skillType = t
		}
	}
}

// WithEntityTimeout 设置单次识别调用的超时
func WithEntityTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.entityTimeout = d
		}
	}
}

// WithLogger 设置日志记录器
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// NewEngine 创建引擎，catalog 为 nil 时使用默认技能目录
func NewEngine(catalog *SkillCatalog, opts ...Option) *Engine {
	if catalog == nil {
		catalog = NewSkillCatalog(DefaultSkillNames()...)
	}
	e := &Engine{
		catalog:       catalog,
		languageHint:  defaultLanguageHint,
		skillType:     DefaultSkillEntityType,
		entityTimeout: defaultEntityTimeout,
		logger:        logger.Logger.With().Str("component", "extractor").Logger(),
		tracer:        otel.Tracer("resume-extractor/extractor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog 返回引擎使用的技能目录
func (e *Engine) Catalog() *SkillCatalog {
	return e.catalog
}

// Extract 从原始文本构建候选人记录。文本为空白时返回 ErrNoTextExtracted；
// 识别服务的任何失败只会减少技能，不会返回错误。
func (e *Engine) Extract(ctx context.Context, text string) (*types.CandidateRecord, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoTextExtracted
	}

	ctx, span := e.tracer.Start(ctx, "extractor.Extract",
		trace.WithAttributes(attribute.Int("text.length", len(text))))
	defer span.End()

	catalogSkills := DetectSkills(text, e.catalog)
	externalSkills := e.externalSkills(ctx, text)

	record := &types.CandidateRecord{
		Name:            ExtractName(text),
		Email:           ExtractEmail(text),
		ExperienceYears: ExtractExperience(text),
		Skills:          MergeSkills(catalogSkills, externalSkills),
	}

	span.SetAttributes(
		attribute.Int("skills.catalog", len(catalogSkills)),
		attribute.Int("skills.external", len(externalSkills)),
		attribute.Int("skills.total", record.Skills.Len()),
	)
	return record, nil
}

// externalSkills 在超时保护下调用识别服务，失败时返回空
func (e *Engine) externalSkills(ctx context.Context, text string) []string {
	if e.recognizer == nil {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, e.entityTimeout)
	defer cancel()

	res := entity.Detect(callCtx, e.recognizer, text, e.languageHint)
	if !res.OK() {
		e.logger.Warn().Err(res.Err).Msg("实体识别服务调用失败，外部技能按空处理")
		trace.SpanFromContext(ctx).AddEvent("entity.degraded",
			trace.WithAttributes(attribute.String("error.message", res.Err.Error())))
		return nil
	}
	return SkillLabels(res.Entities, e.skillType)
}
