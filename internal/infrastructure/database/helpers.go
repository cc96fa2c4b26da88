package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

const pingTimeout = 5 * time.Second

// Ping checks the pool is alive
func (db *PostgresDB) Ping(ctx context.Context) error {
	if db.Pool == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.Pool.Ping(pingCtx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// Close shuts the pool down. Safe to call more than once.
func (db *PostgresDB) Close() {
	if db.Pool == nil {
		return
	}

	log.Info().Msg("closing database connection pool")
	db.Pool.Close()
	db.Pool = nil
}

// PoolStats is a snapshot of the pool counters, exposed on /health
type PoolStats struct {
	TotalConns         int32         `json:"total_conns"`
	MaxConns           int32         `json:"max_conns"`
	AcquiredConns      int32         `json:"acquired_conns"`
	IdleConns          int32         `json:"idle_conns"`
	EmptyAcquireCount  int64         `json:"empty_acquire_count"`
	AvgAcquireDuration time.Duration `json:"avg_acquire_duration_ns"`
}

func (db *PostgresDB) Stats() (*PoolStats, error) {
	if db.Pool == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}

	raw := db.Pool.Stat()
	return &PoolStats{
		TotalConns:         raw.TotalConns(),
		MaxConns:           raw.MaxConns(),
		AcquiredConns:      raw.AcquiredConns(),
		IdleConns:          raw.IdleConns(),
		EmptyAcquireCount:  raw.EmptyAcquireCount(),
		AvgAcquireDuration: avgDuration(raw.AcquireDuration(), raw.AcquireCount()),
	}, nil
}

func avgDuration(total time.Duration, count int64) time.Duration {
	if count == 0 {
		return 0
	}
	return total / time.Duration(count)
}

// MonitorPoolHealth logs a warning whenever the pool runs close to its limit.
// It returns when ctx is cancelled.
func (db *PostgresDB) MonitorPoolHealth(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats, err := db.Stats()
			if err != nil {
				log.Warn().Err(err).Msg("pool stats unavailable")
				continue
			}
			if saturated(stats) {
				log.Warn().
					Int32("acquired", stats.AcquiredConns).
					Int32("max", stats.MaxConns).
					Int64("empty_acquires", stats.EmptyAcquireCount).
					Msg("database pool near capacity")
			}
		}
	}
}

// saturated reports whether at least 80% of the pool is checked out
func saturated(s *PoolStats) bool {
	if s.MaxConns == 0 {
		return false
	}
	return s.AcquiredConns*5 >= s.MaxConns*4
}
