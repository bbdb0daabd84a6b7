package cache

import (
	"context"
	"sync"
	"time"

	"github.com/bilgisen/postcraft/internal/utils"
)

// MemoryGuard is an in-process TitleGuard used when Redis is not configured.
type MemoryGuard struct {
	mu      sync.Mutex
	now     func() time.Time
	expires map[string]time.Time
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{now: time.Now, expires: make(map[string]time.Time)}
}

func (m *MemoryGuard) Close() error {
	return nil
}

func (m *MemoryGuard) IsGenerated(_ context.Context, title string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := utils.TitleHash(title)
	exp, ok := m.expires[key]
	if !ok {
		return false, nil
	}
	if !exp.IsZero() && m.now().After(exp) {
		delete(m.expires, key)
		return false, nil
	}
	return true, nil
}

func (m *MemoryGuard) MarkGenerated(_ context.Context, title string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var exp time.Time
	if ttl > 0 {
		exp = m.now().Add(ttl)
	}
	m.expires[utils.TitleHash(title)] = exp
	return nil
}

func (m *MemoryGuard) ClearGenerated(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expires = make(map[string]time.Time)
	return nil
}
