package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/actorhub/actorhub/internal/observability/logger"
	obsmetrics "github.com/actorhub/actorhub/internal/observability/metrics"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	rateLimitReasonAPIKeyRate        = "api-key-rate"
	rateLimitReasonIdentityRate      = "identity-rate"
	rateLimitReasonIdempotencyLocked = "idempotency-in-flight"
)

type usageIngestRateLimitKey struct {
	IdentityID     string `json:"identity_id"`
	IdempotencyKey string `json:"idempotency_key"`
}

// UsageIngestRateLimit throttles usage ingestion per API key and per identity,
// and serializes concurrent retries of one idempotency key.
func (s *Server) UsageIngestRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.usageLimiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		endpoint := normalizeRateLimitEndpoint(c)

		apiKeyID, ok := c.Get(contextAPIKeyIDKey)
		keyID, isUUID := apiKeyID.(uuid.UUID)
		if !ok || !isUUID || keyID == uuid.Nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		result, err := s.usageLimiter.AllowAPIKey(ctx, keyID.String())
		if err != nil {
			logger.FromContext(ctx).Warn("usage ingest api key rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if !result.Allowed {
			denyUsageIngestRateLimit(c, endpoint, rateLimitReasonAPIKeyRate, result.RetryAfter, s.obsMetrics)
			return
		}

		identityID, idempotencyKey, err := readUsageIngestKey(c)
		if err != nil {
			logger.FromContext(ctx).Warn("usage ingest rate limit read body failed", zap.Error(err))
			AbortWithError(c, invalidRequestError())
			return
		}

		if identityID != "" {
			result, err = s.usageLimiter.AllowIdentity(ctx, identityID)
			if err != nil {
				logger.FromContext(ctx).Warn("usage ingest identity rate limit check failed", zap.Error(err))
				AbortWithError(c, ErrServiceUnavailable)
				return
			}
			if !result.Allowed {
				denyUsageIngestRateLimit(c, endpoint, rateLimitReasonIdentityRate, result.RetryAfter, s.obsMetrics)
				return
			}
		}

		if idempotencyKey != "" {
			token, locked, err := s.usageLimiter.LockIdempotencyKey(ctx, idempotencyKey)
			if err != nil {
				logger.FromContext(ctx).Warn("usage ingest idempotency lock failed", zap.Error(err))
				AbortWithError(c, ErrServiceUnavailable)
				return
			}
			if !locked {
				denyUsageIngestRateLimit(c, endpoint, rateLimitReasonIdempotencyLocked, time.Second, s.obsMetrics)
				return
			}
			defer func() {
				if err := s.usageLimiter.ReleaseIdempotencyKey(ctx, idempotencyKey, token); err != nil {
					logger.FromContext(ctx).Warn("usage ingest idempotency unlock failed", zap.Error(err))
				}
			}()
		}

		recordRateLimitAllowed(ctx, endpoint, s.obsMetrics)
		c.Next()
	}
}

func denyUsageIngestRateLimit(c *gin.Context, endpoint, reason string, retryAfter time.Duration, metrics *obsmetrics.Metrics) {
	ctx := c.Request.Context()
	logger.FromContext(ctx).Warn("usage ingest rate limit exceeded",
		zap.String("reason", reason),
		zap.String("endpoint", endpoint),
	)
	recordRateLimitDenied(ctx, endpoint, reason, metrics)

	c.Header("Retry-After", retryAfterSeconds(retryAfter))
	c.Header("X-Rate-Limited-Reason", reason)
	AbortWithError(c, ErrTooManyRequests)
}

func retryAfterSeconds(d time.Duration) string {
	seconds := int(math.Ceil(d.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}

func recordRateLimitAllowed(ctx context.Context, endpoint string, metrics *obsmetrics.Metrics) {
	if metrics == nil {
		return
	}
	metrics.RecordRateLimitAllowed(ctx, endpoint)
}

func recordRateLimitDenied(ctx context.Context, endpoint, reason string, metrics *obsmetrics.Metrics) {
	if metrics == nil {
		return
	}
	metrics.RecordRateLimitDenied(ctx, endpoint, reason)
}

func readUsageIngestKey(c *gin.Context) (string, string, error) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return "", "", err
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
	if len(body) == 0 {
		return "", "", nil
	}

	var payload usageIngestRateLimitKey
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", "", nil
	}

	return strings.TrimSpace(payload.IdentityID), strings.TrimSpace(payload.IdempotencyKey), nil
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	if c == nil {
		return "unknown"
	}
	endpoint := strings.TrimSpace(c.FullPath())
	if endpoint == "" {
		endpoint = strings.TrimSpace(c.Request.URL.Path)
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	return endpoint
}
