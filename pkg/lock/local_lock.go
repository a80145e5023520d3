package lock

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// LocalLockManager 单实例部署使用，进程内互斥
type LocalLockManager struct {
	mu    sync.Mutex
	owned map[string]bool
}

func NewLocalLockManager() *LocalLockManager {
	return &LocalLockManager{owned: make(map[string]bool)}
}

func (m *LocalLockManager) NewLock(key string, opts *LockOptions) DistributedLock {
	return &localLock{manager: m, key: key, retry: opts.withDefaults().RetryInterval}
}

func (m *LocalLockManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.owned = make(map[string]bool)
	return nil
}

type localLock struct {
	manager *LocalLockManager
	key     string
	retry   time.Duration

	mu   sync.Mutex
	held bool
}

func (l *localLock) Lock(ctx context.Context) error {
	for {
		ok, err := l.TryLock(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w %s: %w", ErrLockTimeout, l.key, ctx.Err())
		case <-time.After(l.retry):
		}
	}
}

func (l *localLock) TryLock(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		return true, nil
	}

	l.manager.mu.Lock()
	defer l.manager.mu.Unlock()
	if l.manager.owned[l.key] {
		return false, nil
	}
	l.manager.owned[l.key] = true
	l.held = true
	return true, nil
}

func (l *localLock) Unlock(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.held {
		return fmt.Errorf("%w: %s", ErrNotHeld, l.key)
	}

	l.manager.mu.Lock()
	delete(l.manager.owned, l.key)
	l.manager.mu.Unlock()
	l.held = false
	return nil
}

func (l *localLock) IsLocked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}

func (l *localLock) GetLockKey() string {
	return l.key
}
