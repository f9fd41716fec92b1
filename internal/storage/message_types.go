package storage

import (
	"time"

	"resume-extractor/internal/types"
)

// EventTypeCandidateExtracted 候选人记录写入后发布的事件类型
const EventTypeCandidateExtracted = "candidate.extracted"

// CandidateExtractedEvent 发布到消息队列的候选人事件
type CandidateExtractedEvent struct {
	ResumeID string `json:"resume_id"`
	types.CandidateRecord
	SourceBucket string    `json:"source_bucket,omitempty"`
	SourceKey    string    `json:"source_key,omitempty"`
	ExtractedAt  time.Time `json:"extracted_at"`
}
