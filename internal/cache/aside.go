package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Aside implements the cache-aside pattern for string values: return the
// cached value when present, otherwise call load, cache its result under key
// with the given TTL and return it. Cache failures degrade to calling load
// directly so Redis outages never fail reads.
func Aside(ctx context.Context, key string, ttl time.Duration, load func() (string, error)) (string, error) {
	if client != nil {
		val, err := client.Get(ctx, key).Result()
		if err == nil {
			return val, nil
		}
		if !errors.Is(err, redis.Nil) {
			// Redis unavailable; fall through to the loader.
			val, loadErr := load()
			return val, loadErr
		}
	}

	val, err := load()
	if err != nil {
		return "", err
	}

	if client != nil {
		client.Set(ctx, key, val, ttl)
	}
	return val, nil
}
