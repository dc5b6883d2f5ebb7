//go:build integration

package ratelimit

import (
	"context"
	"testing"

	"github.com/actorhub/actorhub/internal/config"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestUsageIngestLimiterAgainstRedis(t *testing.T) {
	client := newRedisClient(t)
	ctx := context.Background()

	limiter := newUsageIngestLimiter(client, config.RateLimitConfig{
		Enabled:                   true,
		UsageIngestKeyRate:        0.001,
		UsageIngestKeyBurst:       2,
		UsageIngestIdentityRate:   0.001,
		UsageIngestIdentityBurst:  1,
		UsageIngestLockTTLSeconds: 5,
	})
	require.True(t, limiter.Enabled())

	for i := range 2 {
		res, err := limiter.AllowAPIKey(ctx, "key-1")
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d", i)
	}
	res, err := limiter.AllowAPIKey(ctx, "key-1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Positive(t, res.RetryAfter)

	// buckets are independent per key
	res, err = limiter.AllowAPIKey(ctx, "key-2")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = limiter.AllowIdentity(ctx, "identity-1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	res, err = limiter.AllowIdentity(ctx, "identity-1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
}

func TestIdempotencyLockAgainstRedis(t *testing.T) {
	client := newRedisClient(t)
	ctx := context.Background()

	limiter := newUsageIngestLimiter(client, config.RateLimitConfig{
		Enabled:                   true,
		UsageIngestKeyRate:        1,
		UsageIngestKeyBurst:       1,
		UsageIngestIdentityRate:   1,
		UsageIngestIdentityBurst:  1,
		UsageIngestLockTTLSeconds: 5,
	})

	token, ok, err := limiter.LockIdempotencyKey(ctx, "verify-001")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = limiter.LockIdempotencyKey(ctx, "verify-001")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, limiter.ReleaseIdempotencyKey(ctx, "verify-001", token))

	_, ok, err = limiter.LockIdempotencyKey(ctx, "verify-001")
	require.NoError(t, err)
	assert.True(t, ok)
}
