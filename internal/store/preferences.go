package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"elderguard/internal/models"
)

// PreferencesStore 看护人通知偏好（收件邮箱 / 名称），永久保存在 KV 中
type PreferencesStore struct {
	kv  KV
	key string
}

// NewPreferencesStore 创建偏好存储
func NewPreferencesStore(kv KV, key string) *PreferencesStore {
	return &PreferencesStore{kv: kv, key: key}
}

// Get 读取偏好；尚未配置时返回空偏好
func (s *PreferencesStore) Get(ctx context.Context) (models.Preferences, error) {
	raw, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, ErrMiss) {
			return models.Preferences{}, nil
		}
		return models.Preferences{}, fmt.Errorf("failed to read preferences: %w", err)
	}

	var prefs models.Preferences
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		return models.Preferences{}, fmt.Errorf("failed to unmarshal preferences: %w", err)
	}
	return prefs, nil
}

// Save 保存偏好（ttl=0，不过期）
func (s *PreferencesStore) Save(ctx context.Context, prefs models.Preferences) error {
	prefs.Email = strings.TrimSpace(prefs.Email)
	prefs.Name = strings.TrimSpace(prefs.Name)

	raw, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, string(raw), 0); err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}
