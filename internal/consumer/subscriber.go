package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	mqttcommon "elderguard/common/mqtt"
	"elderguard/internal/models"

	"go.uber.org/zap"
)

// MessageSubscriber MQTT 订阅接口（由 common/mqtt.Client 实现）
type MessageSubscriber interface {
	Subscribe(topic string, qos byte, handler mqttcommon.MessageHandler) error
	Unsubscribe(topics ...string) error
}

// Subscriber 推送模式：设备把实时快照发布到 MQTT 主题，与轮询共用流水线
type Subscriber struct {
	client   MessageSubscriber
	topic    string
	qos      byte
	pipeline *Pipeline
	logger   *zap.Logger
}

// NewSubscriber 创建推送订阅者
func NewSubscriber(client MessageSubscriber, topic string, qos byte, pipeline *Pipeline, logger *zap.Logger) *Subscriber {
	return &Subscriber{
		client:   client,
		topic:    topic,
		qos:      qos,
		pipeline: pipeline,
		logger:   logger,
	}
}

// Start 订阅主题
func (s *Subscriber) Start() error {
	if err := s.client.Subscribe(s.topic, s.qos, s.HandleMessage); err != nil {
		return err
	}
	s.logger.Info("Subscribed to live snapshot topic", zap.String("topic", s.topic))
	return nil
}

// Stop 取消订阅
func (s *Subscriber) Stop() error {
	return s.client.Unsubscribe(s.topic)
}

// HandleMessage 处理一条快照消息
func (s *Subscriber) HandleMessage(topic string, payload []byte) error {
	var snap models.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return fmt.Errorf("failed to unmarshal snapshot from %s: %w", topic, err)
	}

	s.pipeline.Process(context.Background(), &snap)
	return nil
}
