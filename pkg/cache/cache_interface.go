package cache

import (
	"context"
	"time"
)

// Cache is the key-value contract the application needs from Redis.
type Cache interface {
	// Exists reports whether key is present
	Exists(ctx context.Context, key string) (bool, error)

	// SetNX stores value under key only when key is absent and reports
	// whether it did
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)

	// Ping checks the connection
	Ping(ctx context.Context) error
}
