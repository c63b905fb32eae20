package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"elderguard/common/database"
	mqttcommon "elderguard/common/mqtt"
	rediscommon "elderguard/common/redis"
	"elderguard/internal/alertfeed"
	"elderguard/internal/config"
	"elderguard/internal/consumer"
	"elderguard/internal/dispatcher"
	"elderguard/internal/evaluator"
	"elderguard/internal/metrics"
	"elderguard/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// AlarmService 报警服务：轮询（及可选的 MQTT 推送）→ 分类 → 报警流 → 通知
type AlarmService struct {
	config      *config.Config
	redisClient *redis.Client
	mqttClient  *mqttcommon.Client // 推送关闭时为 nil
	logger      *zap.Logger

	pipeline      *consumer.Pipeline
	poller        *consumer.Poller
	subscriber    *consumer.Subscriber
	metricsServer *Server
}

// NewAlarmService 创建报警服务
func NewAlarmService(cfg *config.Config, logger *zap.Logger) (*AlarmService, error) {
	// 1. 连接 Redis（账本 / 报警流 / 通知偏好）
	redisClient := rediscommon.NewRedisClient(&cfg.Redis)
	if err := rediscommon.Ping(context.Background(), redisClient); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	s, err := newAlarmService(cfg, redisClient, logger)
	if err != nil {
		_ = redisClient.Close()
		return nil, err
	}

	// 2. 可选：MQTT 推送
	if cfg.Push.Enabled {
		mqttClient, err := mqttcommon.NewClient(&cfg.MQTT, logger)
		if err != nil {
			_ = redisClient.Close()
			return nil, fmt.Errorf("failed to create mqtt client: %w", err)
		}
		s.mqttClient = mqttClient
		s.subscriber = consumer.NewSubscriber(mqttClient, cfg.Push.Topic, cfg.MQTT.QoS, s.pipeline, logger)
	}

	return s, nil
}

// newAlarmService 组装各层组件（不做网络连接）
func newAlarmService(cfg *config.Config, redisClient *redis.Client, logger *zap.Logger) (*AlarmService, error) {
	liveSource, err := newLiveSource(cfg, redisClient, logger)
	if err != nil {
		return nil, err
	}
	ledger, err := newLedger(cfg, redisClient)
	if err != nil {
		return nil, err
	}
	channel, err := newChannel(cfg, logger)
	if err != nil {
		return nil, err
	}

	prefs := store.NewPreferencesStore(store.NewRedisKV(redisClient), cfg.Preferences.Key)
	feed := alertfeed.NewFeed(redisClient, cfg.AlertFeed.Stream, cfg.AlertFeed.MaxLen, logger)

	classifier := evaluator.NewClassifier()
	classifier.Now = classifierClock(cfg.Location())

	pipeline := consumer.NewPipeline(
		classifier,
		feed,
		dispatcher.NewDispatcher(ledger, channel, prefs, logger),
		logger,
	)

	poller := consumer.NewPoller(liveSource, pipeline, consumer.PollerOptions{
		Interval:     cfg.Poll.Interval,
		Jitter:       cfg.Poll.Jitter,
		FetchTimeout: cfg.Poll.FetchTimeout,
	}, logger)

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", healthHandler(redisClient))

	return &AlarmService{
		config:        cfg,
		redisClient:   redisClient,
		logger:        logger,
		pipeline:      pipeline,
		poller:        poller,
		metricsServer: NewServer("metrics", cfg.HTTP.MetricsAddr, mux, logger),
	}, nil
}

// Start 启动服务，阻塞直到 ctx 取消
func (s *AlarmService) Start(ctx context.Context) error {
	s.logger.Info("Starting alarm service",
		zap.String("live_backend", s.config.Source.LiveBackend),
		zap.String("ledger_backend", s.config.Ledger.Backend),
		zap.String("notify_mode", s.config.Notify.Mode),
		zap.Bool("push_enabled", s.subscriber != nil),
	)

	go func() {
		if err := s.metricsServer.Start(); err != nil {
			s.logger.Error("Metrics server failed", zap.Error(err))
		}
	}()

	if s.subscriber != nil {
		if err := s.subscriber.Start(); err != nil {
			return fmt.Errorf("failed to start subscriber: %w", err)
		}
	}

	// 轮询始终运行；推送只是降低延迟
	if err := s.poller.Start(ctx); err != nil {
		return fmt.Errorf("failed to start poller: %w", err)
	}
	return nil
}

// Stop 停止服务
func (s *AlarmService) Stop() error {
	s.logger.Info("Stopping alarm service")

	if s.subscriber != nil {
		if err := s.subscriber.Stop(); err != nil {
			s.logger.Error("Failed to unsubscribe", zap.Error(err))
		}
	}
	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.metricsServer.Stop(ctx); err != nil {
		s.logger.Error("Failed to stop metrics server", zap.Error(err))
	}

	if err := s.redisClient.Close(); err != nil {
		s.logger.Error("Failed to close redis", zap.Error(err))
	}
	return nil
}

// openHistoryDB postgres 模式下连接数据库，其它模式返回 nil
func openHistoryDB(cfg *config.Config) (*sql.DB, error) {
	if cfg.Source.HistoryBackend != "postgres" {
		return nil, nil
	}
	return database.NewPostgresDB(&cfg.Database)
}

// healthHandler Redis 可达时返回 200，否则 503
func healthHandler(client *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, code := "ok", http.StatusOK
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			status, code = "redis unavailable", http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
	}
}
