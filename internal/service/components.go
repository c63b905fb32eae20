package service

import (
	"database/sql"
	"fmt"
	"time"

	"elderguard/internal/config"
	"elderguard/internal/dispatcher"
	"elderguard/internal/notify"
	"elderguard/internal/source"
	"elderguard/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func firebaseOptions(cfg *config.Config) source.FirebaseOptions {
	return source.FirebaseOptions{
		BaseURL:     cfg.Source.Firebase.URL,
		Auth:        cfg.Source.Firebase.Auth,
		LivePath:    cfg.Source.Firebase.LivePath,
		HistoryPath: cfg.Source.Firebase.HistoryPath,
		Timeout:     cfg.Source.Firebase.Timeout,
	}
}

// newLiveSource 按配置选择实时数据源
func newLiveSource(cfg *config.Config, redisClient *redis.Client, logger *zap.Logger) (source.LiveSource, error) {
	switch cfg.Source.LiveBackend {
	case "firebase":
		if cfg.Source.Firebase.URL == "" {
			return nil, fmt.Errorf("FIREBASE_URL is required for firebase live backend")
		}
		return source.NewFirebaseSource(firebaseOptions(cfg), logger), nil
	case "redis":
		return source.NewRedisLiveSource(store.NewRedisKV(redisClient), cfg.Source.RedisLiveKey), nil
	}
	return nil, fmt.Errorf("unknown live backend: %q", cfg.Source.LiveBackend)
}

// newHistorySource 按配置选择历史数据源；db 仅在 postgres 模式下使用
func newHistorySource(cfg *config.Config, db *sql.DB, logger *zap.Logger) (source.HistorySource, error) {
	switch cfg.Source.HistoryBackend {
	case "firebase":
		if cfg.Source.Firebase.URL == "" {
			return nil, fmt.Errorf("FIREBASE_URL is required for firebase history backend")
		}
		return source.NewFirebaseSource(firebaseOptions(cfg), logger), nil
	case "postgres":
		if db == nil {
			return nil, fmt.Errorf("database connection is required for postgres history backend")
		}
		return source.NewPostgresHistory(db, cfg.Source.HistoryTable, logger)
	}
	return nil, fmt.Errorf("unknown history backend: %q", cfg.Source.HistoryBackend)
}

// newLedger 按配置选择去重账本
func newLedger(cfg *config.Config, redisClient *redis.Client) (dispatcher.Ledger, error) {
	switch cfg.Ledger.Backend {
	case "redis":
		return dispatcher.NewRedisLedger(redisClient, cfg.Ledger.KeyPrefix, cfg.Ledger.TTL, cfg.Ledger.PendingTTL), nil
	case "memory":
		return dispatcher.NewMemoryLedger(), nil
	}
	return nil, fmt.Errorf("unknown ledger backend: %q", cfg.Ledger.Backend)
}

// newChannel 按配置选择通知通道
func newChannel(cfg *config.Config, logger *zap.Logger) (notify.Channel, error) {
	switch cfg.Notify.Mode {
	case "http":
		return notify.NewHTTPChannel(cfg.Notify.URL, cfg.Notify.Timeout, logger), nil
	case "smtp":
		return newSMTPChannel(cfg, logger)
	}
	return nil, fmt.Errorf("unknown notify mode: %q", cfg.Notify.Mode)
}

func newSMTPChannel(cfg *config.Config, logger *zap.Logger) (*notify.MailChannel, error) {
	return notify.NewMailChannel(notify.SMTPOptions{
		Host:     cfg.Notify.SMTP.Host,
		Port:     cfg.Notify.SMTP.Port,
		Username: cfg.Notify.SMTP.Username,
		Password: cfg.Notify.SMTP.Password,
		From:     cfg.Notify.SMTP.From,
		Timeout:  cfg.Notify.Timeout,
	}, logger)
}

// newGatewayChannel send-email 接口背后的 SMTP 通道
// 凭据缺失时服务照常启动，发送请求返回错误
func newGatewayChannel(cfg *config.Config, logger *zap.Logger) notify.Channel {
	channel, err := newSMTPChannel(cfg, logger)
	if err != nil {
		logger.Warn("SMTP channel unavailable, send-email requests will fail", zap.Error(err))
		return notify.DisabledChannel{Reason: err}
	}
	return channel
}

// classifierClock 分类器使用配置时区的当前时间
func classifierClock(loc *time.Location) func() time.Time {
	return func() time.Time { return time.Now().In(loc) }
}
