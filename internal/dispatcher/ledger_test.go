package dispatcher

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedisLedger(t *testing.T) (*miniredis.Miniredis, *RedisLedger) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, NewRedisLedger(client, "test:ledger:", 24*time.Hour, time.Minute)
}

func ledgers(t *testing.T) map[string]Ledger {
	_, redisLedger := setupTestRedisLedger(t)
	return map[string]Ledger{
		"memory": NewMemoryLedger(),
		"redis":  redisLedger,
	}
}

func TestLedger_ReserveCommit(t *testing.T) {
	ctx := context.Background()
	for name, l := range ledgers(t) {
		t.Run(name, func(t *testing.T) {
			ok, err := l.Reserve(ctx, "fall_2025-01-01_00-00-00")
			require.NoError(t, err)
			assert.True(t, ok)

			// 预占中：再次预占失败，但尚未提交
			ok, err = l.Reserve(ctx, "fall_2025-01-01_00-00-00")
			require.NoError(t, err)
			assert.False(t, ok)

			sent, err := l.Contains(ctx, "fall_2025-01-01_00-00-00")
			require.NoError(t, err)
			assert.False(t, sent)

			require.NoError(t, l.Commit(ctx, "fall_2025-01-01_00-00-00"))

			sent, err = l.Contains(ctx, "fall_2025-01-01_00-00-00")
			require.NoError(t, err)
			assert.True(t, sent)

			ok, err = l.Reserve(ctx, "fall_2025-01-01_00-00-00")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestLedger_ReleaseAllowsReserve(t *testing.T) {
	ctx := context.Background()
	for name, l := range ledgers(t) {
		t.Run(name, func(t *testing.T) {
			ok, err := l.Reserve(ctx, "sos_2025-01-01_00-00-00")
			require.NoError(t, err)
			require.True(t, ok)

			require.NoError(t, l.Release(ctx, "sos_2025-01-01_00-00-00"))

			ok, err = l.Reserve(ctx, "sos_2025-01-01_00-00-00")
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestLedger_ReleaseKeepsCommitted(t *testing.T) {
	ctx := context.Background()
	for name, l := range ledgers(t) {
		t.Run(name, func(t *testing.T) {
			_, err := l.Reserve(ctx, "fire_2025-01-01_00-00-00")
			require.NoError(t, err)
			require.NoError(t, l.Commit(ctx, "fire_2025-01-01_00-00-00"))

			require.NoError(t, l.Release(ctx, "fire_2025-01-01_00-00-00"))

			sent, err := l.Contains(ctx, "fire_2025-01-01_00-00-00")
			require.NoError(t, err)
			assert.True(t, sent)
		})
	}
}

func TestLedger_ConcurrentReserve(t *testing.T) {
	ctx := context.Background()
	for name, l := range ledgers(t) {
		t.Run(name, func(t *testing.T) {
			var wins int32
			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					ok, err := l.Reserve(ctx, "fall_2025-01-01_00-00-05")
					if err == nil && ok {
						atomic.AddInt32(&wins, 1)
					}
				}()
			}
			wg.Wait()

			assert.Equal(t, int32(1), wins)
		})
	}
}

func TestRedisLedger_TTLs(t *testing.T) {
	ctx := context.Background()
	mr, l := setupTestRedisLedger(t)

	_, err := l.Reserve(ctx, "fall_2025-01-01_00-00-00")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, mr.TTL("test:ledger:fall_2025-01-01_00-00-00"))

	require.NoError(t, l.Commit(ctx, "fall_2025-01-01_00-00-00"))
	assert.Equal(t, 24*time.Hour, mr.TTL("test:ledger:fall_2025-01-01_00-00-00"))

	val, err := mr.Get("test:ledger:fall_2025-01-01_00-00-00")
	require.NoError(t, err)
	assert.Equal(t, "sent", val)
}

func TestRedisLedger_PendingExpires(t *testing.T) {
	ctx := context.Background()
	mr, l := setupTestRedisLedger(t)

	ok, err := l.Reserve(ctx, "sos_2025-01-01_00-00-00")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)

	ok, err = l.Reserve(ctx, "sos_2025-01-01_00-00-00")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLedger_Unavailable(t *testing.T) {
	mr, l := setupTestRedisLedger(t)
	mr.Close()

	_, err := l.Reserve(context.Background(), "fall_x")
	assert.Error(t, err)
}
