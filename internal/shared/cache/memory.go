package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryDenylist 进程内黑名单（单实例部署和测试使用）
type MemoryDenylist struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

var _ TokenDenylist = (*MemoryDenylist)(nil)

// NewMemoryDenylist 创建进程内黑名单
func NewMemoryDenylist() *MemoryDenylist {
	return &MemoryDenylist{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (m *MemoryDenylist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneLocked()
	m.entries[jti] = expiresAt
	return nil
}

func (m *MemoryDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiresAt, ok := m.entries[jti]
	if !ok {
		return false, nil
	}
	if !m.now().Before(expiresAt) {
		delete(m.entries, jti)
		return false, nil
	}
	return true, nil
}

func (m *MemoryDenylist) Close() error {
	return nil
}

// pruneLocked 清除已过期条目，调用方需持有锁
func (m *MemoryDenylist) pruneLocked() {
	now := m.now()
	for jti, expiresAt := range m.entries {
		if !now.Before(expiresAt) {
			delete(m.entries, jti)
		}
	}
}
