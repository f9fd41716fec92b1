package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"resume-extractor/internal/constants"
	"resume-extractor/internal/storage/models"
	"resume-extractor/internal/tracing"
	"resume-extractor/internal/types"

	"github.com/gofrs/uuid/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrCandidateNotFound 按 ID 查询不到记录
var ErrCandidateNotFound = errors.New("候选人记录不存在")

// CandidateStore 候选人记录存储
type CandidateStore interface {
	// Put 以新生成的唯一 ID 写入记录并返回该 ID
	Put(ctx context.Context, record *types.CandidateRecord, source types.DocumentRef) (string, error)
	// Get 按 ID 读取记录
	Get(ctx context.Context, resumeID string) (*types.StoredCandidate, error)
}

var _ CandidateStore = (*GormCandidateStore)(nil)

// GormCandidateStore 基于 GORM 的存储，可选地在同一事务中写入 candidate.extracted 发件箱消息
type GormCandidateStore struct {
	db     *gorm.DB
	outbox *OutboxTarget
	tracer trace.Tracer
}

// OutboxTarget 发件箱消息的目标交换机与路由键
type OutboxTarget struct {
	Exchange   string
	RoutingKey string
}

// CandidateStoreOption 选项
type CandidateStoreOption func(*GormCandidateStore)

// WithOutbox 每次写入时附带一条发件箱消息
func WithOutbox(exchange, routingKey string) CandidateStoreOption {
	return func(s *GormCandidateStore) {
		if exchange != "" {
			s.outbox = &OutboxTarget{Exchange: exchange, RoutingKey: routingKey}
		}
	}
}

// NewGormCandidateStore 创建存储
func NewGormCandidateStore(db *gorm.DB, opts ...CandidateStoreOption) *GormCandidateStore {
	s := &GormCandidateStore{
		db:     db,
		tracer: otel.Tracer("resume-extractor/storage/candidate"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put 实现 CandidateStore。同 ID 已存在时整行覆盖，除 ID 外没有其他唯一约束。
func (s *GormCandidateStore) Put(ctx context.Context, record *types.CandidateRecord, source types.DocumentRef) (string, error) {
	if record == nil {
		return "", fmt.Errorf("候选人记录不能为空")
	}

	ctx, span := s.tracer.Start(ctx, "CandidateStore.Put",
		trace.WithAttributes(attribute.String("source.key", tracing.SafeObjectKey(source.Key))))
	defer span.End()

	id, err := uuid.NewV4()
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeInternal)
		return "", fmt.Errorf("生成ResumeID失败: %w", err)
	}
	resumeID := id.String()
	span.SetAttributes(attribute.String("resume.id", resumeID))

	skills, err := json.Marshal(record.Skills)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeInternal)
		return "", fmt.Errorf("序列化技能失败: %w", err)
	}

	row := models.Candidate{
		ResumeID:         resumeID,
		CandidateName:    record.Name,
		ContactEmail:     record.Email,
		Experience:       record.ExperienceYears,
		Skills:           skills,
		SourceBucket:     source.Bucket,
		SourceKey:        source.Key,
		ExtractorVersion: constants.ExtractorVersion,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
			return fmt.Errorf("写入候选人记录失败: %w", err)
		}
		if s.outbox == nil {
			return nil
		}

		payload, err := json.Marshal(CandidateExtractedEvent{
			ResumeID:        resumeID,
			CandidateRecord: *record,
			SourceBucket:    source.Bucket,
			SourceKey:       source.Key,
			ExtractedAt:     row.CreatedAt,
		})
		if err != nil {
			return fmt.Errorf("序列化事件失败: %w", err)
		}
		msg := models.OutboxMessage{
			AggregateID:      resumeID,
			EventType:        EventTypeCandidateExtracted,
			Payload:          string(payload),
			TargetExchange:   s.outbox.Exchange,
			TargetRoutingKey: s.outbox.RoutingKey,
			Status:           models.OutboxStatusPending,
		}
		if err := tx.Create(&msg).Error; err != nil {
			return fmt.Errorf("写入发件箱消息失败: %w", err)
		}
		return nil
	})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return "", err
	}
	return resumeID, nil
}

// Get 实现 CandidateStore
func (s *GormCandidateStore) Get(ctx context.Context, resumeID string) (*types.StoredCandidate, error) {
	ctx, span := s.tracer.Start(ctx, "CandidateStore.Get",
		trace.WithAttributes(attribute.String("resume.id", resumeID)))
	defer span.End()

	var row models.Candidate
	err := s.db.WithContext(ctx).Where("resume_id = ?", resumeID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCandidateNotFound, resumeID)
		}
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return nil, fmt.Errorf("查询候选人记录失败: %w", err)
	}
	return toStoredCandidate(row)
}

// List 按创建时间倒序分页
func (s *GormCandidateStore) List(ctx context.Context, offset, limit int) ([]types.StoredCandidate, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Candidate{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计候选人记录失败: %w", err)
	}

	var rows []models.Candidate
	err := s.db.WithContext(ctx).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("查询候选人列表失败: %w", err)
	}

	out := make([]types.StoredCandidate, 0, len(rows))
	for _, row := range rows {
		c, err := toStoredCandidate(row)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	return out, total, nil
}

func toStoredCandidate(row models.Candidate) (*types.StoredCandidate, error) {
	var skills types.SkillSet
	if err := json.Unmarshal(row.Skills, &skills); err != nil {
		return nil, fmt.Errorf("解析技能字段失败 (resume_id=%s): %w", row.ResumeID, err)
	}
	return &types.StoredCandidate{
		ResumeID: row.ResumeID,
		CandidateRecord: types.CandidateRecord{
			Name:            row.CandidateName,
			Email:           row.ContactEmail,
			ExperienceYears: row.Experience,
			Skills:          skills,
		},
		SourceBucket: row.SourceBucket,
		SourceKey:    row.SourceKey,
		CreatedAt:    row.CreatedAt.In(time.UTC),
	}, nil
}
