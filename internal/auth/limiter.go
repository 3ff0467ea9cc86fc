package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const attemptKeyPrefix = "login_attempts:"

// LoginLimiter tracks failed login attempts per email in Redis. A nil client
// disables limiting entirely.
type LoginLimiter struct {
	client      *redis.Client
	maxAttempts int
	window      time.Duration
}

// NewLoginLimiter constructs a limiter.
func NewLoginLimiter(client *redis.Client, maxAttempts int, windowMinutes int) *LoginLimiter {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if windowMinutes <= 0 {
		windowMinutes = 15
	}
	return &LoginLimiter{
		client:      client,
		maxAttempts: maxAttempts,
		window:      time.Duration(windowMinutes) * time.Minute,
	}
}

// Blocked reports whether the email has exhausted its attempts.
func (l *LoginLimiter) Blocked(ctx context.Context, email string) (bool, error) {
	if l == nil || l.client == nil {
		return false, nil
	}
	count, err := l.client.Get(ctx, attemptKeyPrefix+email).Int()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return count >= l.maxAttempts, nil
}

// RecordFailure increments the failure counter, starting the lockout window
// on the first failure.
func (l *LoginLimiter) RecordFailure(ctx context.Context, email string) error {
	if l == nil || l.client == nil {
		return nil
	}
	key := attemptKeyPrefix + email
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return err
	}
	if count == 1 {
		return l.client.Expire(ctx, key, l.window).Err()
	}
	return nil
}

// Reset clears the failure counter after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, email string) error {
	if l == nil || l.client == nil {
		return nil
	}
	return l.client.Del(ctx, attemptKeyPrefix+email).Err()
}
