package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Gravitalia/socialbook/helpers"
)

// Fetch reads key from the cache and falls back to load on a miss,
// storing the loaded value for ttl. A cache that cannot be reached
// degrades to calling load directly.
func Fetch[T any](ctx context.Context, c Cache, logger *slog.Logger, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	family := Family(key)

	raw, ok, err := c.Get(ctx, key)
	if err != nil {
		logger.Warn("cache read failed", "key", key, "error", err)
	}
	if ok {
		var value T
		if err := json.Unmarshal(raw, &value); err == nil {
			helpers.ObserveCache(family, true)
			return value, nil
		}
		logger.Warn("dropping undecodable cache entry", "key", key)
	}
	helpers.ObserveCache(family, false)

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	raw, err = json.Marshal(value)
	if err != nil {
		logger.Warn("cache encode failed", "key", key, "error", err)
		return value, nil
	}
	if err := c.Set(ctx, key, raw, ttl); err != nil {
		logger.Warn("cache write failed", "key", key, "error", err)
	}

	return value, nil
}
