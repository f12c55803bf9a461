package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Throttler limits failed sign-in attempts per email.
type Throttler interface {
	Allow(ctx context.Context, email string) (bool, error)
	Fail(ctx context.Context, email string) error
	Reset(ctx context.Context, email string) error
}

// NoThrottle never blocks. Used when no redis is configured.
type NoThrottle struct{}

func (NoThrottle) Allow(context.Context, string) (bool, error) { return true, nil }
func (NoThrottle) Fail(context.Context, string) error          { return nil }
func (NoThrottle) Reset(context.Context, string) error         { return nil }

// RedisThrottle counts failures in a key that expires window after the last
// failure. Once the count reaches max, Allow reports false until it expires.
type RedisThrottle struct {
	rdb    redis.Cmdable
	max    int
	window time.Duration
}

func NewRedisThrottle(rdb redis.Cmdable, max int, window time.Duration) *RedisThrottle {
	return &RedisThrottle{rdb: rdb, max: max, window: window}
}

func throttleKey(email string) string {
	return "portal:signin_failures:" + strings.ToLower(strings.TrimSpace(email))
}

func (t *RedisThrottle) Allow(ctx context.Context, email string) (bool, error) {
	n, err := t.rdb.Get(ctx, throttleKey(email)).Int()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return true, err
	}
	return n < t.max, nil
}

func (t *RedisThrottle) Fail(ctx context.Context, email string) error {
	key := throttleKey(email)
	_, err := t.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, key)
		p.Expire(ctx, key, t.window)
		return nil
	})
	return err
}

func (t *RedisThrottle) Reset(ctx context.Context, email string) error {
	return t.rdb.Del(ctx, throttleKey(email)).Err()
}
