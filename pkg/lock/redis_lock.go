package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bsm/redislock"
)

// RedisLockManager 基于 redislock 的锁管理器，多实例部署时用于选主
type RedisLockManager struct {
	client *redislock.Client
}

func NewRedisLockManager(client *redislock.Client) *RedisLockManager {
	return &RedisLockManager{client: client}
}

func (m *RedisLockManager) NewLock(key string, opts *LockOptions) DistributedLock {
	return &redisLock{
		client: m.client,
		key:    key,
		opts:   opts.withDefaults(),
	}
}

// Close redis 连接由调用方统一关闭
func (m *RedisLockManager) Close() error {
	return nil
}

type redisLock struct {
	client *redislock.Client
	key    string
	opts   *LockOptions

	mu   sync.Mutex
	held *redislock.Lock
}

func (l *redisLock) Lock(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held != nil {
		return nil
	}

	var strategy redislock.RetryStrategy = redislock.LinearBackoff(l.opts.RetryInterval)
	if l.opts.MaxRetries > 0 {
		strategy = redislock.LimitRetry(strategy, l.opts.MaxRetries)
	}

	held, err := l.client.Obtain(ctx, l.key, l.opts.TTL, &redislock.Options{RetryStrategy: strategy})
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			return fmt.Errorf("%w %s: %w", ErrLockTimeout, l.key, err)
		}
		return err
	}
	l.held = held
	return nil
}

func (l *redisLock) TryLock(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held != nil {
		err := l.held.Refresh(ctx, l.opts.TTL, nil)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, redislock.ErrNotObtained) {
			return false, err
		}
		// 锁已过期被他人拿走
		l.held = nil
	}

	held, err := l.client.Obtain(ctx, l.key, l.opts.TTL, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	l.held = held
	return true, nil
}

func (l *redisLock) Unlock(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held == nil {
		return fmt.Errorf("%w: %s", ErrNotHeld, l.key)
	}
	err := l.held.Release(ctx)
	l.held = nil
	if errors.Is(err, redislock.ErrLockNotHeld) {
		return fmt.Errorf("%w %s，锁已失效: %w", ErrNotHeld, l.key, err)
	}
	return err
}

func (l *redisLock) IsLocked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held != nil
}

func (l *redisLock) GetLockKey() string {
	return l.key
}
