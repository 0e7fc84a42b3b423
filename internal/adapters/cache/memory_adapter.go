package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zatekoja/erbedfinder/backend/internal/domain/providers"
)

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

// MemoryAdapter is a process-local CacheProvider, used when Redis is not configured
type MemoryAdapter struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	now   func() time.Time
}

// NewMemoryAdapter creates an empty in-memory store
func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{
		items: make(map[string]memoryItem),
		now:   time.Now,
	}
}

// Get retrieves a value from the store
func (m *MemoryAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	item, ok := m.items[key]
	m.mu.RUnlock()
	if !ok || m.expired(item) {
		return nil, fmt.Errorf("%w: %s", providers.ErrCacheMiss, key)
	}
	out := make([]byte, len(item.value))
	copy(out, item.value)
	return out, nil
}

// Set stores a copy of value
func (m *MemoryAdapter) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	item := memoryItem{value: make([]byte, len(value))}
	copy(item.value, value)
	if expirationSeconds > 0 {
		item.expiresAt = m.now().Add(time.Duration(expirationSeconds) * time.Second)
	}

	m.mu.Lock()
	m.items[key] = item
	m.mu.Unlock()
	return nil
}

// Delete removes a value
func (m *MemoryAdapter) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

// Exists checks if a live key exists
func (m *MemoryAdapter) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	item, ok := m.items[key]
	m.mu.RUnlock()
	return ok && !m.expired(item), nil
}

func (m *MemoryAdapter) expired(item memoryItem) bool {
	return !item.expiresAt.IsZero() && !m.now().Before(item.expiresAt)
}
