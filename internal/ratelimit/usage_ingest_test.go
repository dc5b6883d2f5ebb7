package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/actorhub/actorhub/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

func TestDisabledLimiterAllowsEverything(t *testing.T) {
	limiter, err := NewUsageIngestLimiter(fxtest.NewLifecycle(t), config.Config{}, zap.NewNop())
	require.NoError(t, err)
	require.Nil(t, limiter)
	assert.False(t, limiter.Enabled())

	ctx := context.Background()
	res, err := limiter.AllowAPIKey(ctx, "key")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = limiter.AllowIdentity(ctx, "identity")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	_, ok, err := limiter.LockIdempotencyKey(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, limiter.ReleaseIdempotencyKey(ctx, "k1", ""))
}

func TestEnabledLimiterValidatesConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.RateLimitConfig
	}{
		{name: "missing redis", cfg: config.RateLimitConfig{Enabled: true, UsageIngestKeyRate: 1, UsageIngestKeyBurst: 1}},
		{name: "zero key rate", cfg: config.RateLimitConfig{Enabled: true, RedisAddr: "localhost:6379", UsageIngestIdentityRate: 1, UsageIngestIdentityBurst: 1}},
		{name: "zero identity burst", cfg: config.RateLimitConfig{Enabled: true, RedisAddr: "localhost:6379", UsageIngestKeyRate: 1, UsageIngestKeyBurst: 1, UsageIngestIdentityRate: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewUsageIngestLimiter(fxtest.NewLifecycle(t), config.Config{RateLimit: tc.cfg}, zap.NewNop())
			require.Error(t, err)
		})
	}
}

func TestUnconfiguredBucketRefuses(t *testing.T) {
	var bucket *TokenBucket
	_, err := bucket.Allow(context.Background(), "k", 1, 1)
	require.ErrorIs(t, err, ErrBucketNotConfigured)

	var locker *Locker
	_, _, err = locker.TryLock(context.Background(), "k", time.Second)
	require.ErrorIs(t, err, ErrLockNotConfigured)
}

func TestBucketMath(t *testing.T) {
	assert.Equal(t, 4*time.Second, bucketTTL(50, 100))
	assert.Equal(t, time.Second, bucketTTL(1000, 1))
	assert.Equal(t, time.Second, bucketTTL(0, 1))

	assert.Zero(t, retryAfter(true, 0, 10))
	assert.Equal(t, 250*time.Millisecond, retryAfter(false, 0, 4))

	assert.Equal(t, 2.5, toFloat("2.5"))
	assert.Equal(t, int64(1), toInt(int64(1)))
	assert.Equal(t, int64(0), toInt(nil))
}
