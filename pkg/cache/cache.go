// Package cache provides response caching for the ephemeris provider and the
// serve command.
//
// Two deployment shapes are covered:
//   - file: per-user cache under ~/.cache/analemma for CLI runs
//   - redis: shared cache for multi-instance serve deployments
//
// A null backend disables caching entirely (useful for tests and --no-cache).
// Keys are hashed with SHA-256 before hitting a backend, so arbitrary key
// strings are safe.
package cache

import (
	"context"
	"time"
)

// Cache is the storage interface shared by all backends.
//
// Get returns (data, true, nil) on a hit and (nil, false, nil) on a miss.
// Backends treat corrupt or expired entries as misses rather than errors.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
