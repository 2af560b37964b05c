package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type entry struct {
	value   []byte
	expires time.Time
}

// Local is an in-process cache with a bounded size and per-entry expiry
type Local struct {
	cache *lru.TwoQueueCache[string, entry]
	now   func() time.Time
}

// NewLocal creates a local cache holding at most size entries
func NewLocal(size int) (*Local, error) {
	c, err := lru.New2Q[string, entry](size)
	if err != nil {
		return nil, err
	}
	return &Local{cache: c, now: time.Now}, nil
}

func (l *Local) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := l.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !l.now().Before(e.expires) {
		l.cache.Remove(key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (l *Local) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{value: value}
	if ttl > 0 {
		e.expires = l.now().Add(ttl)
	}
	l.cache.Add(key, e)
	return nil
}

func (l *Local) Delete(_ context.Context, key string) error {
	l.cache.Remove(key)
	return nil
}

// Contains reports whether a live entry exists for key
func (l *Local) Contains(key string) bool {
	_, ok, _ := l.Get(context.Background(), key)
	return ok
}

func (l *Local) Close() error {
	l.cache.Purge()
	return nil
}
