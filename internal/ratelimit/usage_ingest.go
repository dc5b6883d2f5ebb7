package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/actorhub/actorhub/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	keyUsageIngestAPIKey   = "usage:ingest:key:%s"
	keyUsageIngestIdentity = "usage:ingest:identity:%s"
	keyUsageIngestLock     = "usage:ingest:lock:%s"
)

// UsageIngestLimiter throttles usage recording per API key and per identity.
// A nil limiter allows everything.
type UsageIngestLimiter struct {
	client redis.UniversalClient
	bucket *TokenBucket
	locker *Locker

	keyRate       float64
	keyBurst      int
	identityRate  float64
	identityBurst int
	lockTTL       time.Duration
}

func NewUsageIngestLimiter(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*UsageIngestLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.UsageIngestKeyRate <= 0 || limitCfg.UsageIngestKeyBurst <= 0 {
		return nil, errors.New("usage ingest key rate limit must be positive")
	}
	if limitCfg.UsageIngestIdentityRate <= 0 || limitCfg.UsageIngestIdentityBurst <= 0 {
		return nil, errors.New("usage ingest identity rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})
	limiter := newUsageIngestLimiter(client, limitCfg)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				// the api stays up; requests fail open per check
				log.Warn("rate limit redis unreachable", zap.String("addr", addr), zap.Error(err))
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return limiter, nil
}

func newUsageIngestLimiter(client redis.UniversalClient, cfg config.RateLimitConfig) *UsageIngestLimiter {
	lockTTL := time.Duration(cfg.UsageIngestLockTTLSeconds) * time.Second
	if lockTTL <= 0 {
		lockTTL = 10 * time.Second
	}
	return &UsageIngestLimiter{
		client:        client,
		bucket:        NewTokenBucket(client),
		locker:        NewLocker(client),
		keyRate:       cfg.UsageIngestKeyRate,
		keyBurst:      cfg.UsageIngestKeyBurst,
		identityRate:  cfg.UsageIngestIdentityRate,
		identityBurst: cfg.UsageIngestIdentityBurst,
		lockTTL:       lockTTL,
	}
}

func (l *UsageIngestLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *UsageIngestLimiter) AllowAPIKey(ctx context.Context, apiKeyID string) (Result, error) {
	if !l.Enabled() {
		return Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyUsageIngestAPIKey, strings.TrimSpace(apiKeyID)), l.keyRate, l.keyBurst)
}

func (l *UsageIngestLimiter) AllowIdentity(ctx context.Context, identityID string) (Result, error) {
	if !l.Enabled() {
		return Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyUsageIngestIdentity, strings.TrimSpace(identityID)), l.identityRate, l.identityBurst)
}

// LockIdempotencyKey holds key for the lock ttl. ok is false while another
// request holds it.
func (l *UsageIngestLimiter) LockIdempotencyKey(ctx context.Context, key string) (token string, ok bool, err error) {
	if !l.Enabled() {
		return "", true, nil
	}
	return l.locker.TryLock(ctx, fmt.Sprintf(keyUsageIngestLock, strings.TrimSpace(key)), l.lockTTL)
}

func (l *UsageIngestLimiter) ReleaseIdempotencyKey(ctx context.Context, key, token string) error {
	if !l.Enabled() {
		return nil
	}
	return l.locker.Release(ctx, fmt.Sprintf(keyUsageIngestLock, strings.TrimSpace(key)), token)
}
