package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Gravitalia/socialbook/config"
)

// Open builds the cache backend selected by the configuration
func Open(ctx context.Context, cfg *config.Config) (Cache, error) {
	switch cfg.Cache.Driver {
	case "memcached":
		return NewMemcached(strings.Split(cfg.Cache.Memcached, ",")...), nil
	case "redis":
		return DialRedis(ctx, &redis.Options{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			PoolSize: cfg.Cache.Redis.PoolSize,
		})
	case "local":
		return NewLocal(cfg.Cache.LocalSize)
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Cache.Driver)
	}
}

// TTLsFrom reads the lifetimes of the configuration, keeping the
// default for every unset family.
func TTLsFrom(cfg *config.Config) TTLs {
	ttls := DefaultTTLs()
	set := func(dst *time.Duration, v time.Duration) {
		if v > 0 {
			*dst = v
		}
	}

	set(&ttls.Profile, cfg.Cache.ProfileTTL)
	set(&ttls.Search, cfg.Cache.SearchTTL)
	set(&ttls.Suggestions, cfg.Cache.SuggestionsTTL)
	set(&ttls.Post, cfg.Cache.PostTTL)
	set(&ttls.PostList, cfg.Cache.PostListTTL)

	return ttls
}
