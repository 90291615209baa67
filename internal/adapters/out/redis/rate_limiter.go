package redis

import (
	"context"
	"strconv"
	"time"
)

const rateLimitPrefix = "rate_limit"

// FixedWindowLimiter counts requests per scope in fixed windows.
type FixedWindowLimiter struct {
	client *Client
	limit  int64
	window time.Duration
}

func NewFixedWindowLimiter(client *Client, limit int64, window time.Duration) *FixedWindowLimiter {
	return &FixedWindowLimiter{client: client, limit: limit, window: window}
}

// Allow counts one request for scope. remaining never goes below zero.
func (l *FixedWindowLimiter) Allow(ctx context.Context, scope string) (allowed bool, remaining int64, err error) {
	windowStart := time.Now().Truncate(l.window).Unix()
	key := l.client.Key(rateLimitPrefix, scope, strconv.FormatInt(windowStart, 10))

	count, err := l.client.IncrWithTTL(ctx, key, l.window)
	if err != nil {
		return false, 0, err
	}

	remaining = l.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= l.limit, remaining, nil
}

func (l *FixedWindowLimiter) Limit() int64          { return l.limit }
func (l *FixedWindowLimiter) Window() time.Duration { return l.window }
