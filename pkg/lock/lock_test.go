package lock

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLock_Exclusive(t *testing.T) {
	ctx := context.Background()
	m := NewLocalLockManager()

	a := m.NewLock("monitoring/leader", nil)
	b := m.NewLock("monitoring/leader", nil)

	ok, err := a.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	// 已持有时再次 TryLock 视为续期
	ok, err = a.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, a.Unlock(ctx))
	assert.False(t, a.IsLocked())

	ok, err = b.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "monitoring/leader", b.GetLockKey())
}

func TestLocalLock_UnlockNotHeld(t *testing.T) {
	l := NewLocalLockManager().NewLock("k", nil)
	err := l.Unlock(context.Background())

	assert.True(t, errors.Is(err, ErrNotHeld))
}

func TestLocalLock_LockTimeout(t *testing.T) {
	m := NewLocalLockManager()
	require.NoError(t, m.NewLock("k", nil).Lock(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := m.NewLock("k", nil).Lock(ctx)
	assert.ErrorIs(t, err, ErrLockTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// 需要本地 redis，设置 REDIS_ADDR 后运行
func TestRedisLock(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR 未设置")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	ctx := context.Background()
	m := NewRedisLockManager(redislock.New(rdb))
	key := "stationery/test/" + time.Now().Format("150405.000")

	a := m.NewLock(key, &LockOptions{TTL: 2 * time.Second})
	b := m.NewLock(key, &LockOptions{TTL: 2 * time.Second})

	ok, err := a.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, a.Unlock(ctx))
	ok, err = b.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, b.Unlock(ctx))
}
