package constants

import "time"

const (
	// ExtractorVersion 写入持久化记录，便于回溯规则变更
	ExtractorVersion = "1.0"

	// EntityCacheDuration 实体识别结果缓存时长
	EntityCacheDuration = 24 * time.Hour

	// 批处理默认值
	DefaultBatchConcurrency = 4
	DefaultDocumentTimeout  = 60 * time.Second
)

// 批处理结果消息
const (
	MsgProcessedSuccessfully = "Resume processed successfully!"
	MsgInvalidEvent          = "Invalid event format"
	MsgNoTextFound           = "No text found in the document."
)

// 候选人记录状态
const (
	StatusExtracted = "EXTRACTED"
	StatusFailed    = "FAILED"
)

// 消息队列默认拓扑
const (
	DefaultEventsExchange        = "resume.events.exchange"
	DefaultUploadedQueue         = "q.resume_uploaded"
	DefaultUploadedRoutingKey    = "resume.uploaded"
	DefaultCandidateExchange     = "candidate.events.exchange"
	DefaultCandidateRoutingKey   = "candidate.extracted"
	DefaultCandidateExtractQueue = "q.candidate_extracted"
)
