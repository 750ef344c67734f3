// Package storage provides the shared key-value abstraction backing the
// rate limiter, progressive block store and CSRF token store. The in-memory
// backend is a single-instance approximation; deployments with more than one
// replica must use the Redis backend so state survives restarts and is
// shared across instances.
package storage

import (
	"context"
	"errors"
	"time"
)

var ErrRedisURLNotProvided = errors.New("redis storage URL not provided")

// KeyValueStore is the storage contract shared by all security state.
type KeyValueStore interface {
	// Get retrieves a value by key. Returns ("", false, nil) if the key
	// does not exist or has expired.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores a value with an optional TTL. A nil TTL means no expiry.
	Set(ctx context.Context, key string, value string, ttl *time.Duration) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Incr atomically increments an integer value by 1, creating it at 1
	// if absent. A TTL is only applied on key creation.
	Incr(ctx context.Context, key string, ttl *time.Duration) (int, error)

	// TTL returns the remaining time to live for a key.
	// Returns nil if the key does not exist or has no expiration.
	TTL(ctx context.Context, key string) (*time.Duration, error)

	// Close closes any resources held by the store
	Close() error
}

// Sweeper is implemented by stores that support an explicit expiry sweep.
// The Redis backend expires keys natively and does not implement it.
type Sweeper interface {
	// Sweep removes all expired entries and returns how many were evicted.
	Sweep(now time.Time) int
}
