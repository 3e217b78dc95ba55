// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vault

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/vaultlink/internal/platform/sec"
)

// Lease is a cross-replica mutual exclusion with a bounded lifetime.
type Lease interface {
	// Acquire returns acquired=false without error when another holder owns the lease.
	Acquire(ctx context.Context) (release func(context.Context), acquired bool, err error)
}

// releaseScript deletes the lease only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLease implements [Lease] with SET NX PX and a compare-and-delete release.
//
// The TTL bounds how long a crashed holder blocks the others.
type RedisLease struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisLease creates a lease stored under key.
func NewRedisLease(client *redis.Client, key string, ttl time.Duration, logger *slog.Logger) *RedisLease {
	return &RedisLease{
		client: client,
		key:    key,
		ttl:    ttl,
		logger: logger.With(slog.String("lease", key)),
	}
}

// Acquire tries to take the lease once, without waiting.
func (lease *RedisLease) Acquire(ctx context.Context) (func(context.Context), bool, error) {
	holder, err := sec.GenerateSecureToken(16)
	if err != nil {
		return nil, false, err
	}

	acquired, err := lease.client.SetNX(ctx, lease.key, holder, lease.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis_lease_acquire_failed: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}

	release := func(ctx context.Context) {
		if err := releaseScript.Run(ctx, lease.client, []string{lease.key}, holder).Err(); err != nil {
			// The TTL still frees the key; other replicas wait at most that long.
			lease.logger.Warn("redis_lease_release_failed", slog.Any("error", err))
		}
	}

	return release, true, nil
}
