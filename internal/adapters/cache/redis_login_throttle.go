package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/viralforge/storefront/internal/ports"
)

const loginThrottlePrefix = "storefront:throttle:"

// failureWindow bounds how long a failure counter lives without reaching the threshold.
const failureWindow = time.Hour

// RedisLoginThrottle counts failed logins per key in a Redis hash and records
// a lock deadline once the threshold is reached.
type RedisLoginThrottle struct {
	client redis.Cmdable
}

func NewRedisLoginThrottle(client redis.Cmdable) *RedisLoginThrottle {
	return &RedisLoginThrottle{client: client}
}

func (s *RedisLoginThrottle) Get(ctx context.Context, key string) (ports.LockoutState, error) {
	data, err := s.client.HGetAll(ctx, loginThrottlePrefix+key).Result()
	if err != nil {
		return ports.LockoutState{}, err
	}
	return parseLockoutState(data), nil
}

func (s *RedisLoginThrottle) RecordFailure(ctx context.Context, key string, now time.Time, threshold int, lockoutWindow time.Duration) (ports.LockoutState, error) {
	redisKey := loginThrottlePrefix + key

	count, err := s.client.HIncrBy(ctx, redisKey, "failed_count", 1).Result()
	if err != nil {
		return ports.LockoutState{}, err
	}

	state := ports.LockoutState{FailedCount: int(count)}
	if threshold > 0 && int(count) >= threshold {
		lockedUntil := now.Add(lockoutWindow).UTC()
		_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, redisKey, "locked_until", lockedUntil.Unix())
			p.HSet(ctx, redisKey, "failed_count", 0)
			p.Expire(ctx, redisKey, lockoutWindow)
			return nil
		})
		if err != nil {
			return ports.LockoutState{}, err
		}
		state.LockedUntil = &lockedUntil
		return state, nil
	}

	if err := s.client.Expire(ctx, redisKey, failureWindow).Err(); err != nil {
		return state, err
	}
	return state, nil
}

func (s *RedisLoginThrottle) Clear(ctx context.Context, key string) error {
	return s.client.Del(ctx, loginThrottlePrefix+key).Err()
}

func parseLockoutState(data map[string]string) ports.LockoutState {
	state := ports.LockoutState{}
	if raw, ok := data["failed_count"]; ok {
		if n, convErr := strconv.Atoi(raw); convErr == nil {
			state.FailedCount = n
		}
	}
	if raw, ok := data["locked_until"]; ok && raw != "" {
		if unix, convErr := strconv.ParseInt(raw, 10, 64); convErr == nil && unix > 0 {
			t := time.Unix(unix, 0).UTC()
			state.LockedUntil = &t
		}
	}
	return state
}
