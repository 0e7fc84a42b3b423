package providers

import (
	"context"
	"errors"
)

// ErrCacheMiss is returned by Get when the key does not exist
var ErrCacheMiss = errors.New("cache: key not found")

// CacheProvider is the abstract persisted key-value store behind the TTL caches and favorites
type CacheProvider interface {
	// Get retrieves a value; absent keys yield an error wrapping ErrCacheMiss
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value; expirationSeconds <= 0 keeps it until overwritten
	Set(ctx context.Context, key string, value []byte, expirationSeconds int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Exists checks if a key exists in cache
	Exists(ctx context.Context, key string) (bool, error)
}

// TTLStore is a typed cache family whose freshness is judged on read
type TTLStore[T any] interface {
	// Get returns the payload only while it is fresh
	Get(ctx context.Context, key string) (T, bool)

	// Set overwrites key with payload stamped with the current time
	Set(ctx context.Context, key string, payload T) error
}
