package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/zatekoja/erbedfinder/backend/internal/domain/providers"
	"github.com/zatekoja/erbedfinder/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/erbedfinder/backend/pkg/errors"
)

// Entry is the persisted envelope of a TTL cache value
type Entry[T any] struct {
	TimestampMs int64 `json:"timestamp_ms"`
	Payload     T     `json:"payload"`
}

// TTLCache is a keyed cache whose freshness is judged on read. Entries are
// written without a store-level expiry, so a stale entry stays in the store
// until the next Set for the same key overwrites it.
type TTLCache[T any] struct {
	store  providers.CacheProvider
	family string
	ttl    time.Duration
	now    func() time.Time
	locks  *keyedMutex
}

// Option configures a TTLCache
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the time source, for tests
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// NewTTLCache creates a cache for one family ("live", "list") over store
func NewTTLCache[T any](store providers.CacheProvider, family string, ttl time.Duration, opts ...Option) *TTLCache[T] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &TTLCache[T]{
		store:  store,
		family: family,
		ttl:    ttl,
		now:    o.now,
		locks:  newKeyedMutex(),
	}
}

// TTL returns the freshness window
func (c *TTLCache[T]) TTL() time.Duration {
	return c.ttl
}

// StoreKey returns the persisted key for key, e.g. "live:서울특별시:강남구".
func (c *TTLCache[T]) StoreKey(key string) string {
	return c.family + ":" + key
}

// Get returns the payload if the entry is younger than the TTL. Missing,
// stale and unreadable entries all report ok == false.
func (c *TTLCache[T]) Get(ctx context.Context, key string) (T, bool) {
	entry, err := c.load(ctx, key)
	if err != nil {
		var zero T
		if apperrors.IsType(err, apperrors.ErrorTypeStorage) {
			observability.LoggerFromContext(ctx).Debug().Err(err).
				Str("cache_key", c.StoreKey(key)).Msg("Ignoring unreadable cache entry")
		}
		return zero, false
	}

	age := c.now().UnixMilli() - entry.TimestampMs
	if age >= c.ttl.Milliseconds() {
		var zero T
		return zero, false
	}
	return entry.Payload, true
}

// Set overwrites key with payload stamped with the current time. Writes to
// the same key are serialized; the last completed write wins.
func (c *TTLCache[T]) Set(ctx context.Context, key string, payload T) error {
	entry := Entry[T]{
		TimestampMs: c.now().UnixMilli(),
		Payload:     payload,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return apperrors.NewInternalError("failed to encode cache entry", err)
	}

	storeKey := c.StoreKey(key)
	unlock := c.locks.Lock(storeKey)
	defer unlock()

	if err := c.store.Set(ctx, storeKey, data, 0); err != nil {
		return fmt.Errorf("cache %s: %w", c.family, err)
	}
	return nil
}

func (c *TTLCache[T]) load(ctx context.Context, key string) (Entry[T], error) {
	var entry Entry[T]

	data, err := c.store.Get(ctx, c.StoreKey(key))
	if err != nil {
		if errors.Is(err, providers.ErrCacheMiss) {
			return entry, err
		}
		return entry, apperrors.NewStorageError("failed to read cache entry", err)
	}
	if err := json.Unmarshal(data, &entry); err != nil {
		return entry, apperrors.NewStorageError("failed to decode cache entry", err)
	}
	if entry.TimestampMs <= 0 {
		return entry, apperrors.NewStorageError("cache entry has no timestamp", nil)
	}
	return entry, nil
}

// keyedMutex hands out one mutex per key and drops it once no holder remains.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyLock)}
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
