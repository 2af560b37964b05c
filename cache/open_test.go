package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gravitalia/socialbook/config"
)

func TestOpen(t *testing.T) {
	cfg := config.Default()

	cfg.Cache.Driver = "local"
	c, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &Local{}, c)

	cfg.Cache.Driver = "memcached"
	c, err = Open(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &Memcached{}, c)

	cfg.Cache.Driver = "etcd"
	_, err = Open(context.Background(), cfg)
	assert.ErrorContains(t, err, "unknown cache driver")
}

func TestTTLsFrom(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.SearchTTL = time.Hour
	cfg.Cache.PostTTL = 0

	ttls := TTLsFrom(cfg)
	assert.Equal(t, time.Hour, ttls.Search)
	assert.Equal(t, DefaultTTLs().Post, ttls.Post)
	assert.Equal(t, cfg.Cache.ProfileTTL, ttls.Profile)
}
