// Package rate enforces a fixed-window budget on failed login attempts,
// keyed by email and by client IP, using Redis counters.
package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrRateLimited      = errors.New("too many attempts")
	ErrRedisUnavailable = errors.New("redis unavailable")
)

type Config struct {
	Enabled          bool
	MaxLoginAttempts int
	LoginCooldown    time.Duration
}

type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{redis: redisClient, config: cfg}
}

// CheckLogin reports whether the email+IP pair still has attempt budget.
func (l *Limiter) CheckLogin(ctx context.Context, email, ip string) error {
	if !l.config.Enabled {
		return nil
	}
	for _, key := range l.keys(email, ip) {
		count, err := l.redis.Get(ctx, key).Int64()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		if count >= int64(l.config.MaxLoginAttempts) {
			return ErrRateLimited
		}
	}
	return nil
}

// RecordFailure counts one failed attempt against both windows.
func (l *Limiter) RecordFailure(ctx context.Context, email, ip string) error {
	if !l.config.Enabled {
		return nil
	}
	for _, key := range l.keys(email, ip) {
		count, err := l.redis.Incr(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		// Fixed-window semantics: TTL starts on the first hit in the window.
		if count == 1 {
			if err := l.redis.Expire(ctx, key, l.config.LoginCooldown).Err(); err != nil {
				return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
			}
		}
	}
	return nil
}

// Reset clears the counters after a successful login.
func (l *Limiter) Reset(ctx context.Context, email, ip string) error {
	if !l.config.Enabled {
		return nil
	}
	if err := l.redis.Del(ctx, l.keys(email, ip)...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (l *Limiter) keys(email, ip string) []string {
	keys := []string{"login:email:" + email}
	if ip != "" {
		keys = append(keys, "login:ip:"+ip)
	}
	return keys
}
