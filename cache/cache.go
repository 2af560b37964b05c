// Package cache is the object cache holding materialized read results.
// Backends only need exact-key deletion.
package cache

import (
	"context"
	"time"
)

// Cache is a key-value store with a TTL per entry
type Cache interface {
	// Get returns the value and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes the key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// TTLs holds the lifetime of each key family
type TTLs struct {
	Profile     time.Duration
	Search      time.Duration
	Suggestions time.Duration
	Post        time.Duration
	PostList    time.Duration
}

// DefaultTTLs orders lifetimes by volatility: profiles live longest,
// suggestions shortest.
func DefaultTTLs() TTLs {
	return TTLs{
		Profile:     2 * time.Hour,
		Search:      30 * time.Minute,
		Suggestions: 5 * time.Minute,
		Post:        30 * time.Minute,
		PostList:    15 * time.Minute,
	}
}
