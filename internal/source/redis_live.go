package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"elderguard/internal/models"
	"elderguard/internal/store"
)

// RedisLiveSource 从 Redis 读取设备写入的实时记录（JSON）
type RedisLiveSource struct {
	kv  store.KV
	key string
}

// NewRedisLiveSource 创建 Redis 实时数据源
func NewRedisLiveSource(kv store.KV, key string) *RedisLiveSource {
	return &RedisLiveSource{kv: kv, key: key}
}

// FetchLive 读取实时记录
func (s *RedisLiveSource) FetchLive(ctx context.Context) (*models.Snapshot, error) {
	val, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, store.ErrMiss) {
			return nil, ErrNoData
		}
		return nil, fmt.Errorf("failed to get live record: %w", err)
	}

	var snap models.Snapshot
	if err := json.Unmarshal([]byte(val), &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal live snapshot: %w", err)
	}
	return &snap, nil
}
