// Package cache holds fetched market figures for a bounded time. It never
// stores computed metrics.
package cache

import (
	"context"
	"time"
)

// Store is a bounded key/value store with per-entry expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Purge(ctx context.Context) error
	Close() error
}
