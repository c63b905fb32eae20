package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Ledger 已发送去重键的登记簿
//
// Reserve 必须是原子的 check-then-set：同一个键并发 Reserve 只有一个返回 true。
// 发送成功后 Commit；发送失败后 Release，使键可以被再次预占。
type Ledger interface {
	Reserve(ctx context.Context, key string) (bool, error)
	Commit(ctx context.Context, key string) error
	Release(ctx context.Context, key string) error
	Contains(ctx context.Context, key string) (bool, error)
}

const (
	statePending = "pending"
	stateSent    = "sent"
)

// MemoryLedger 进程内登记簿（进程重启后清空）
type MemoryLedger struct {
	mu      sync.Mutex
	entries map[string]string
}

// NewMemoryLedger 创建进程内登记簿
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{entries: make(map[string]string)}
}

func (l *MemoryLedger) Reserve(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.entries[key]; ok {
		return false, nil
	}
	l.entries[key] = statePending
	return true, nil
}

func (l *MemoryLedger) Commit(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries[key] = stateSent
	return nil
}

func (l *MemoryLedger) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.entries[key] == statePending {
		delete(l.entries, key)
	}
	return nil
}

func (l *MemoryLedger) Contains(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.entries[key] == stateSent, nil
}

// releaseScript 仅删除仍处于 pending 的键，避免误删已提交的记录
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLedger Redis 登记簿，进程重启后去重仍然有效
//
// 键格式：{prefix}{kind}_{timestamp}
// pending 状态带较短 TTL（发送进程崩溃后自动释放），sent 状态带较长 TTL（自然过期）
type RedisLedger struct {
	client     *redis.Client
	prefix     string
	ttl        time.Duration
	pendingTTL time.Duration
}

// NewRedisLedger 创建 Redis 登记簿
func NewRedisLedger(client *redis.Client, prefix string, ttl, pendingTTL time.Duration) *RedisLedger {
	if pendingTTL <= 0 {
		pendingTTL = time.Minute
	}
	return &RedisLedger{
		client:     client,
		prefix:     prefix,
		ttl:        ttl,
		pendingTTL: pendingTTL,
	}
}

func (l *RedisLedger) key(key string) string {
	return l.prefix + key
}

// Reserve SET NX 预占
func (l *RedisLedger) Reserve(ctx context.Context, key string) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key(key), statePending, l.pendingTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to reserve ledger key: %w", err)
	}
	return ok, nil
}

// Commit 标记为已发送（ttl<=0 时不过期）
func (l *RedisLedger) Commit(ctx context.Context, key string) error {
	if err := l.client.Set(ctx, l.key(key), stateSent, l.ttl).Err(); err != nil {
		return fmt.Errorf("failed to commit ledger key: %w", err)
	}
	return nil
}

// Release 释放预占
func (l *RedisLedger) Release(ctx context.Context, key string) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key(key)}, statePending).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("failed to release ledger key: %w", err)
	}
	return nil
}

// Contains 键是否已提交
func (l *RedisLedger) Contains(ctx context.Context, key string) (bool, error) {
	val, err := l.client.Get(ctx, l.key(key)).Result()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to read ledger key: %w", err)
	}
	return val == stateSent, nil
}
