package cache

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const otpKeyPrefix = "otp:resend:"

// OTPLimiter limite le nombre de codes OTP envoyés par adresse sur une fenêtre glissante
type OTPLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// NewOTPLimiter crée le limiteur
func NewOTPLimiter(client *redis.Client, limit int64, window time.Duration) *OTPLimiter {
	return &OTPLimiter{client: client, limit: limit, window: window}
}

// Allow compte une demande et indique si elle reste sous la limite
func (l *OTPLimiter) Allow(ctx context.Context, email string) (bool, error) {
	key := otpKeyPrefix + strings.ToLower(strings.TrimSpace(email))

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return false, err
		}
	}
	return count <= l.limit, nil
}
