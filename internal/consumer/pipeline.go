package consumer

import (
	"context"
	"sync"

	"elderguard/internal/dispatcher"
	"elderguard/internal/metrics"
	"elderguard/internal/models"

	"go.uber.org/zap"
)

// Classifier 报警分类器
type Classifier interface {
	Classify(prev, cur *models.Snapshot) []models.WarningEvent
}

// EventPublisher 报警卡片流
type EventPublisher interface {
	Publish(ctx context.Context, event models.WarningEvent) error
}

// EventDispatcher 通知分发
type EventDispatcher interface {
	Dispatch(ctx context.Context, events []models.WarningEvent) []dispatcher.Result
}

// Pipeline 快照处理流水线：classify → publish → dispatch
// 轮询和 MQTT 推送共用同一条流水线，因此共享比较基线
type Pipeline struct {
	mu       sync.Mutex
	baseline *models.Snapshot

	classifier Classifier
	publisher  EventPublisher // 可为 nil
	dispatcher EventDispatcher
	logger     *zap.Logger
}

// NewPipeline 创建流水线
func NewPipeline(classifier Classifier, publisher EventPublisher, dispatcher EventDispatcher, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		classifier: classifier,
		publisher:  publisher,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Process 处理一次成功读取的快照，返回本次产生的报警事件
func (p *Pipeline) Process(ctx context.Context, snap *models.Snapshot) []models.WarningEvent {
	if snap == nil {
		return nil
	}

	// 比较与替换基线必须原子完成
	p.mu.Lock()
	events := p.classifier.Classify(p.baseline, snap)
	p.baseline = snap
	p.mu.Unlock()

	if len(events) == 0 {
		return nil
	}

	for _, event := range events {
		metrics.WarningEvents.WithLabelValues(string(event.Kind)).Inc()
		p.logger.Info("Warning event detected",
			zap.String("event_id", event.EventID),
			zap.String("kind", string(event.Kind)),
			zap.String("timestamp", event.Timestamp),
		)

		if p.publisher != nil {
			if err := p.publisher.Publish(ctx, event); err != nil {
				p.logger.Error("Failed to publish warning event",
					zap.String("event_id", event.EventID),
					zap.Error(err),
				)
			}
		}
	}

	p.dispatcher.Dispatch(ctx, events)
	return events
}

// Baseline 当前比较基线
func (p *Pipeline) Baseline() *models.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.baseline
}
