// Package redis holds the Redis-backed adapters: the agent activity cache,
// webhook delivery deduplication, job locks and the API rate limiter.
// Redis is never the source of truth for assignment or shipping state.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "backoffice"

var ErrClientNotInitialized = errors.New("redis client not initialized")

type cmdable interface {
	Ping(ctx context.Context) *goredis.StatusCmd
	Set(ctx context.Context, key string, value any, ttl time.Duration) *goredis.StatusCmd
	MGet(ctx context.Context, keys ...string) *goredis.SliceCmd
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) *goredis.BoolCmd
	Incr(ctx context.Context, key string) *goredis.IntCmd
	Expire(ctx context.Context, key string, ttl time.Duration) *goredis.BoolCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
	goredis.Scripter
}

// Client wraps the go-redis connection with namespaced keys.
type Client struct {
	store  cmdable
	raw    *goredis.Client
	prefix string
}

// Options configures New. URL takes the redis:// form.
type Options struct {
	URL          string
	KeyPrefix    string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// New connects and pings the server.
func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.URL == "" {
		return nil, errors.New("redis url is required")
	}
	parsed, err := goredis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if opts.DialTimeout > 0 {
		parsed.DialTimeout = opts.DialTimeout
	}
	if opts.ReadTimeout > 0 {
		parsed.ReadTimeout = opts.ReadTimeout
	}
	if opts.WriteTimeout > 0 {
		parsed.WriteTimeout = opts.WriteTimeout
	}

	raw := goredis.NewClient(parsed)
	if err = raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{store: raw, raw: raw, prefix: prefixOrDefault(opts.KeyPrefix)}, nil
}

func newClient(store cmdable, prefix string) *Client {
	return &Client{store: store, prefix: prefixOrDefault(prefix)}
}

func prefixOrDefault(prefix string) string {
	if prefix = strings.TrimSpace(prefix); prefix == "" {
		return defaultKeyPrefix
	}
	return prefix
}

func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c == nil || c.store == nil {
		return ErrClientNotInitialized
	}
	return c.store.Set(ctx, key, value, ttl).Err()
}

// MGet returns one entry per key, nil for missing keys.
func (c *Client) MGet(ctx context.Context, keys ...string) ([]any, error) {
	if c == nil || c.store == nil {
		return nil, ErrClientNotInitialized
	}
	if len(keys) == 0 {
		return nil, nil
	}
	return c.store.MGet(ctx, keys...).Result()
}

func (c *Client) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if c == nil || c.store == nil {
		return false, ErrClientNotInitialized
	}
	return c.store.SetNX(ctx, key, value, ttl).Result()
}

// IncrWithTTL increments key and sets its TTL on the first increment.
func (c *Client) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if c == nil || c.store == nil {
		return 0, ErrClientNotInitialized
	}
	count, err := c.store.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if ttl > 0 && count == 1 {
		if err = c.store.Expire(ctx, key, ttl).Err(); err != nil {
			return count, err
		}
	}
	return count, nil
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	if c == nil || c.store == nil {
		return ErrClientNotInitialized
	}
	return c.store.Del(ctx, keys...).Err()
}

// compareAndDelete removes KEYS[1] only while it still holds ARGV[1].
var compareAndDelete = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// DelIfEqual deletes key when its value is still value, in one round trip.
// It reports whether the key was deleted.
func (c *Client) DelIfEqual(ctx context.Context, key, value string) (bool, error) {
	if c == nil || c.store == nil {
		return false, ErrClientNotInitialized
	}
	deleted, err := compareAndDelete.Run(ctx, c.store, []string{key}, value).Int64()
	if err != nil {
		return false, err
	}
	return deleted == 1, nil
}

func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.store == nil {
		return ErrClientNotInitialized
	}
	return c.store.Ping(ctx).Err()
}

func (c *Client) Close() error {
	if c == nil || c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

// Key joins parts under the client prefix, skipping empty parts.
func (c *Client) Key(parts ...string) string {
	prefix := defaultKeyPrefix
	if c != nil {
		prefix = c.prefix
	}
	clean := []string{prefix}
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			clean = append(clean, part)
		}
	}
	return strings.Join(clean, ":")
}
