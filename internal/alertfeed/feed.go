package alertfeed

import (
	"context"
	"encoding/json"
	"fmt"

	rediscommon "elderguard/common/redis"
	"elderguard/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Feed 页面报警卡片的数据来源：分类器产生的所有事件（与通知是否送达无关）
// 写入 Redis Stream，按长度裁剪
type Feed struct {
	client *redis.Client
	stream string
	maxLen int64
	logger *zap.Logger
}

// NewFeed 创建报警流
func NewFeed(client *redis.Client, stream string, maxLen int64, logger *zap.Logger) *Feed {
	return &Feed{
		client: client,
		stream: stream,
		maxLen: maxLen,
		logger: logger,
	}
}

// Publish 追加报警事件
func (f *Feed) Publish(ctx context.Context, event models.WarningEvent) error {
	id, err := rediscommon.PublishJSONToStream(ctx, f.client, f.stream, event, f.maxLen)
	if err != nil {
		return fmt.Errorf("failed to publish warning event: %w", err)
	}

	f.logger.Debug("Warning event published",
		zap.String("stream", f.stream),
		zap.String("message_id", id),
		zap.String("event_id", event.EventID),
	)
	return nil
}

// Recent 读取最近 count 条报警事件（最新的在前）
func (f *Feed) Recent(ctx context.Context, count int64) ([]models.WarningEvent, error) {
	msgs, err := rediscommon.ReadLatestFromStream(ctx, f.client, f.stream, count)
	if err != nil {
		return nil, fmt.Errorf("failed to read alert stream: %w", err)
	}

	events := make([]models.WarningEvent, 0, len(msgs))
	for _, msg := range msgs {
		data, ok := msg.Values["data"].(string)
		if !ok {
			f.logger.Warn("Alert stream message without data", zap.String("message_id", msg.ID))
			continue
		}
		var event models.WarningEvent
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			f.logger.Warn("Failed to unmarshal alert stream message",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
			continue
		}
		events = append(events, event)
	}
	return events, nil
}
