package processor

import (
	"context"
	"encoding/json"
	"errors"

	"resume-extractor/internal/types"
)

// HandleMessage 上传事件队列的消费回调，消息体为对象通知格式的批次事件。
// 无法解析的消息直接确认丢弃；只有服务停止导致批次未完成时才重新入队。
func (p *BatchProcessor) HandleMessage(ctx context.Context, body []byte) bool {
	var event types.BatchEvent
	if err := json.Unmarshal(body, &event); err != nil {
		p.logger.Error().Err(err).Int("size", len(body)).Msg("无法解析上传事件消息，丢弃")
		return true
	}

	result := p.ProcessEvent(ctx, event)
	if ctx.Err() == nil {
		return true
	}
	for _, doc := range result.Documents {
		if errors.Is(doc.Err(), context.Canceled) {
			p.logger.Warn().Str("batch_id", result.BatchID).Msg("服务停止中，消息重新入队")
			return false
		}
	}
	return true
}
