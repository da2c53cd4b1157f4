// Copyright (c) 2026 Notare. All rights reserved.
// Author: dev@notare.app

package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/notarehq/notare/internal/platform/constants"
)

// RedisLoginThrottle implements [LoginThrottle] on Redis counters.
//
// Each email gets an INCR counter under [constants.RedisPrefixLoginFail]
// that expires after [constants.LoginFailureWindow]. Counters are volatile
// on purpose: losing them only relaxes throttling, never correctness.
type RedisLoginThrottle struct {
	client *redis.Client
}

// NewRedisLoginThrottle creates a Redis-backed login throttle.
func NewRedisLoginThrottle(client *redis.Client) *RedisLoginThrottle {
	return &RedisLoginThrottle{client: client}
}

var _ LoginThrottle = (*RedisLoginThrottle)(nil)

// Failures implements [LoginThrottle]. A missing key counts as zero.
func (t *RedisLoginThrottle) Failures(ctx context.Context, email string) (int64, error) {
	count, err := t.client.Get(ctx, throttleKey(email)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("login throttle: read failed: %w", err)
	}

	return count, nil
}

// RecordFailure implements [LoginThrottle].
//
// The expiry is re-armed on every failure, so the window measures time since
// the LAST failed attempt rather than the first.
func (t *RedisLoginThrottle) RecordFailure(ctx context.Context, email string) error {
	key := throttleKey(email)

	pipe := t.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, constants.LoginFailureWindow)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("login throttle: record failed: %w", err)
	}

	return nil
}

// Reset implements [LoginThrottle].
func (t *RedisLoginThrottle) Reset(ctx context.Context, email string) error {
	if err := t.client.Del(ctx, throttleKey(email)).Err(); err != nil {
		return fmt.Errorf("login throttle: reset failed: %w", err)
	}

	return nil
}

func throttleKey(email string) string {
	return constants.RedisPrefixLoginFail + email
}
