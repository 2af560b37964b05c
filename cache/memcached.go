package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/Gravitalia/socialbook/model"
)

// Memcached stores entries in a memcached cluster
type Memcached struct {
	client *memcache.Client
}

// NewMemcached creates a client on the given servers
func NewMemcached(servers ...string) *Memcached {
	return &Memcached{client: memcache.New(servers...)}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", model.ErrUnavailable, op, err)
}

func (m *Memcached) Get(_ context.Context, key string) ([]byte, bool, error) {
	item, err := m.client.Get(key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, unavailable("memcached get", err)
	}
	return item.Value, true, nil
}

// Set stores the value, memcached takes the expiration in seconds
func (m *Memcached) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	err := m.client.Set(&memcache.Item{
		Key:        key,
		Value:      value,
		Expiration: int32(ttl / time.Second),
	})
	if err != nil {
		return unavailable("memcached set", err)
	}
	return nil
}

func (m *Memcached) Delete(_ context.Context, key string) error {
	err := m.client.Delete(key)
	if err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		return unavailable("memcached delete", err)
	}
	return nil
}

func (m *Memcached) Close() error {
	return nil
}
