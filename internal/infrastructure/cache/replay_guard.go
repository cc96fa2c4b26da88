package cache

import (
	"context"
	"time"

	pkgcache "printshop-backend/pkg/cache"
)

const (
	DefaultReplayPrefix = "redsys:callback:"
	DefaultReplayTTL    = 10 * time.Minute
)

// ReplayGuard remembers gateway notifications that reached a final outcome
// so redeliveries inside the TTL skip the database. It is an optimisation
// only: the conditional status update stays the source of truth.
type ReplayGuard struct {
	cache  pkgcache.Cache
	prefix string
	ttl    time.Duration
}

func NewReplayGuard(cache pkgcache.Cache, ttl time.Duration) *ReplayGuard {
	if ttl <= 0 {
		ttl = DefaultReplayTTL
	}
	return &ReplayGuard{cache: cache, prefix: DefaultReplayPrefix, ttl: ttl}
}

func (g *ReplayGuard) Seen(ctx context.Context, fingerprint string) (bool, error) {
	return g.cache.Exists(ctx, g.prefix+fingerprint)
}

func (g *ReplayGuard) Remember(ctx context.Context, fingerprint string) error {
	_, err := g.cache.SetNX(ctx, g.prefix+fingerprint, time.Now().Unix(), g.ttl)
	return err
}
