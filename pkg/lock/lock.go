// Package lock 调度器选主用的互斥锁，多实例走 redis，单实例在进程内
package lock

import (
	"context"
	"errors"
	"time"
)

var (
	ErrLockTimeout = errors.New("获取锁超时")
	ErrNotHeld     = errors.New("未持有锁")
)

type DistributedLock interface {
	// Lock 按 RetryInterval 重试，直到拿到锁或 ctx 结束
	Lock(ctx context.Context) error
	// TryLock 不阻塞；已持有时视为续期
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
	IsLocked() bool
	GetLockKey() string
}

type LockOptions struct {
	TTL           time.Duration
	RetryInterval time.Duration
	MaxRetries    int // 0 为不限次数
}

func (o *LockOptions) withDefaults() *LockOptions {
	out := LockOptions{TTL: 30 * time.Second, RetryInterval: 100 * time.Millisecond}
	if o == nil {
		return &out
	}
	if o.TTL > 0 {
		out.TTL = o.TTL
	}
	if o.RetryInterval > 0 {
		out.RetryInterval = o.RetryInterval
	}
	out.MaxRetries = o.MaxRetries
	return &out
}

type LockManager interface {
	NewLock(key string, opts *LockOptions) DistributedLock
	Close() error
}
