package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/doc-portal/pkg/util"
)

// MsgTooManyAttempts is returned once the attempt budget is spent.
const MsgTooManyAttempts = "Too many login attempts. Please try again later."

// Counter is the subset of the Redis API the limiter uses; *redis.Client satisfies it.
type Counter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// LoginLimiter counts login attempts per client address and email in Redis.
type LoginLimiter struct {
	client      Counter
	maxAttempts int64
	window      time.Duration
	logger      *zap.Logger
}

// NewLoginLimiter builds a limiter allowing maxAttempts per window.
func NewLoginLimiter(client Counter, maxAttempts int, window time.Duration, logger *zap.Logger) *LoginLimiter {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoginLimiter{client: client, maxAttempts: int64(maxAttempts), window: window, logger: logger}
}

func loginKey(ip, email string) string {
	return fmt.Sprintf("ratelimit:login:%s:%s", ip, strings.ToLower(strings.TrimSpace(email)))
}

// Allow records an attempt and returns a RATE_LIMITED error once the budget is exceeded.
// Redis failures let the attempt through.
func (l *LoginLimiter) Allow(ctx context.Context, ip, email string) error {
	if l == nil || l.client == nil {
		return nil
	}
	key := loginKey(ip, email)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		l.logger.Warn("login limiter unavailable", zap.Error(err))
		return nil
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			l.logger.Warn("login limiter expire failed", zap.String("key", key), zap.Error(err))
		}
	}
	if count > l.maxAttempts {
		return apperrors.NewDomainError(apperrors.CodeRateLimited, MsgTooManyAttempts, 429, map[string]any{
			"retry_after_seconds": int(l.retryAfter(ctx, key).Seconds()),
		})
	}
	return nil
}

// Reset clears the counter after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, ip, email string) {
	if l == nil || l.client == nil {
		return
	}
	if err := l.client.Del(ctx, loginKey(ip, email)).Err(); err != nil {
		l.logger.Warn("login limiter reset failed", zap.Error(err))
	}
}

func (l *LoginLimiter) retryAfter(ctx context.Context, key string) time.Duration {
	ttl, err := l.client.TTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		return l.window
	}
	return ttl
}
