package lockoutpkg

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	failuresKeyPrefix = "lockout:failures:"
	lockKeyPrefix     = "lockout:lock:"
)

// Redis is a Tracker shared by all service instances. Keys expire on their own.
type Redis struct {
	client      redis.UniversalClient
	maxAttempts int
	duration    time.Duration
}

// NewRedis returns Redis tracker locking a username for duration after maxAttempts failures.
func NewRedis(client redis.UniversalClient, maxAttempts int, duration time.Duration) *Redis {
	return &Redis{
		client:      client,
		maxAttempts: maxAttempts,
		duration:    duration,
	}
}

// LockedFor returns how long the username stays locked.
func (r *Redis) LockedFor(ctx context.Context, username string) (time.Duration, error) {
	ttl, err := r.client.PTTL(ctx, lockKeyPrefix+username).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}

		return 0, err
	}

	if ttl < 0 {
		return 0, nil
	}

	return ttl, nil
}

// RecordFailure counts a failed attempt.
func (r *Redis) RecordFailure(ctx context.Context, username string) (bool, error) {
	key := failuresKeyPrefix + username

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, r.duration)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	if incr.Val() < int64(r.maxAttempts) {
		return false, nil
	}

	pipe = r.client.TxPipeline()
	pipe.Set(ctx, lockKeyPrefix+username, "1", r.duration)
	pipe.Del(ctx, key)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return true, nil
}

// Reset forgets failed attempts of the username.
func (r *Redis) Reset(ctx context.Context, username string) error {
	return r.client.Del(ctx, failuresKeyPrefix+username).Err()
}
