package cache

import (
	"context"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const (
	denylistPrefix = "fitformula:revoked:"
	trialPrefix    = "fitformula:trial:"
)

type redisDenylist struct {
	client *redis.Client
}

// NewRedisDenylist stores revoked token IDs as expiring keys.
func NewRedisDenylist(client *redis.Client) TokenDenylist {
	return &redisDenylist{client: client}
}

func (d *redisDenylist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if tokenID == "" {
		return errors.New("token id is empty")
	}
	if ttl <= 0 {
		return nil // already expired, nothing to remember
	}
	return d.client.Set(ctx, denylistPrefix+tokenID, 1, ttl).Err()
}

func (d *redisDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	n, err := d.client.Exists(ctx, denylistPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type redisTrialTracker struct {
	client *redis.Client
}

// NewRedisTrialTracker uses SETNX so concurrent requests consume a trial once.
func NewRedisTrialTracker(client *redis.Client) TrialTracker {
	return &redisTrialTracker{client: client}
}

func (t *redisTrialTracker) Consume(ctx context.Context, key string, window time.Duration) (bool, error) {
	if key == "" {
		return false, errors.New("trial key is empty")
	}
	return t.client.SetNX(ctx, trialPrefix+key, time.Now().UTC().Unix(), window).Result()
}

func (t *redisTrialTracker) Release(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return t.client.Del(ctx, trialPrefix+key).Err()
}
