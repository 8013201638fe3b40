package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds rate limiter tuning parameters.
type Config struct {
	MaxAttempts          int
	Window               time.Duration
	EnableClientThrottle bool
}

// Limiter bounds login-initiation attempts per identifier and per client
// key within a fixed window, using Redis counters. Only login initiation
// is gated; code verification and registration are not throttled here.
type Limiter struct {
	redis  redis.UniversalClient
	prefix string
	config Config
}

// New creates a rate [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, prefix string, cfg Config) *Limiter {
	if prefix == "" {
		prefix = "mgrl"
	}
	return &Limiter{
		redis:  redisClient,
		prefix: prefix,
		config: cfg,
	}
}

// CheckLogin counts one login attempt for the identifier+client pair and
// rejects it when either counter exceeds the configured ceiling. The first
// MaxAttempts calls within a window succeed; subsequent calls fail with
// ErrRateLimited until the window elapses.
func (l *Limiter) CheckLogin(ctx context.Context, identifier, clientKey string) error {
	count, err := l.incrementWithTTL(ctx, l.identifierKey(identifier), l.config.Window)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxAttempts) {
		return ErrRateLimited
	}

	if l.config.EnableClientThrottle && clientKey != "" {
		count, err = l.incrementWithTTL(ctx, l.clientKey(clientKey), l.config.Window)
		if err != nil {
			return err
		}
		if count > int64(l.config.MaxAttempts) {
			return ErrRateLimited
		}
	}

	return nil
}

// ResetLogin clears the attempt counters for the identifier+client pair.
// Called after a fully verified login.
func (l *Limiter) ResetLogin(ctx context.Context, identifier, clientKey string) error {
	keys := []string{l.identifierKey(identifier)}
	if l.config.EnableClientThrottle && clientKey != "" {
		keys = append(keys, l.clientKey(clientKey))
	}

	if err := l.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// LoginAttempts returns the current attempt counter for an identifier.
// Missing keys return zero and do not reveal account existence.
func (l *Limiter) LoginAttempts(ctx context.Context, identifier string) (int, error) {
	count, err := l.redis.Get(ctx, l.identifierKey(identifier)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

func (l *Limiter) identifierKey(identifier string) string {
	return l.prefix + ":id:" + identifier
}

func (l *Limiter) clientKey(key string) string {
	return l.prefix + ":ck:" + key
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}
