package service

import (
	"context"
	"database/sql"
	"fmt"

	rediscommon "elderguard/common/redis"
	"elderguard/internal/alertfeed"
	"elderguard/internal/config"
	"elderguard/internal/history"
	httpapi "elderguard/internal/http"
	"elderguard/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// DataService dashboard API 服务
type DataService struct {
	config      *config.Config
	db          *sql.DB // 仅 postgres 历史模式
	redisClient *redis.Client
	server      *Server
	logger      *zap.Logger
}

// NewDataService 创建 API 服务
func NewDataService(cfg *config.Config, logger *zap.Logger) (*DataService, error) {
	db, err := openHistoryDB(cfg)
	if err != nil {
		return nil, err
	}

	redisClient := rediscommon.NewRedisClient(&cfg.Redis)
	if err := rediscommon.Ping(context.Background(), redisClient); err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	s, err := newDataService(cfg, db, redisClient, logger)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		_ = redisClient.Close()
		return nil, err
	}
	return s, nil
}

func newDataService(cfg *config.Config, db *sql.DB, redisClient *redis.Client, logger *zap.Logger) (*DataService, error) {
	liveSource, err := newLiveSource(cfg, redisClient, logger)
	if err != nil {
		return nil, err
	}
	historySource, err := newHistorySource(cfg, db, logger)
	if err != nil {
		return nil, err
	}
	handler := httpapi.NewHandler(
		liveSource,
		history.NewService(historySource, logger),
		newGatewayChannel(cfg, logger),
		store.NewPreferencesStore(store.NewRedisKV(redisClient), cfg.Preferences.Key),
		alertfeed.NewFeed(redisClient, cfg.AlertFeed.Stream, cfg.AlertFeed.MaxLen, logger),
		logger,
	)
	router := httpapi.Wrap(httpapi.NewRouter(handler), logger)

	return &DataService{
		config:      cfg,
		db:          db,
		redisClient: redisClient,
		server:      NewServer("api", cfg.HTTP.Addr, router, logger),
		logger:      logger,
	}, nil
}

// Start 阻塞直到服务关闭
func (s *DataService) Start() error {
	return s.server.Start()
}

// Stop 优雅关闭
func (s *DataService) Stop(ctx context.Context) error {
	err := s.server.Stop(ctx)

	if s.db != nil {
		if cerr := s.db.Close(); cerr != nil {
			s.logger.Error("Failed to close database", zap.Error(cerr))
		}
	}
	if cerr := s.redisClient.Close(); cerr != nil {
		s.logger.Error("Failed to close redis", zap.Error(cerr))
	}
	return err
}
