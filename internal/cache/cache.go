// Package cache holds the short-lived, expiring state of the API: revoked
// session tokens and consumed anonymous trials. Redis backs it in production;
// the in-memory variants serve single-instance development and tests.
package cache

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// TokenDenylist remembers revoked token IDs until they would have expired anyway.
type TokenDenylist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// TrialTracker records one-shot anonymous usage per client key.
type TrialTracker interface {
	// Consume marks the trial as used for key. It returns false when the key
	// had already consumed its trial within the window.
	Consume(ctx context.Context, key string, window time.Duration) (bool, error)
	// Release gives a consumed trial back, e.g. when generation failed.
	Release(ctx context.Context, key string) error
}

// NewRedisClient connects to Redis and verifies the connection with a ping.
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}
