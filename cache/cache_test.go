package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gravitalia/socialbook/helpers"
	"github.com/Gravitalia/socialbook/model"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "profile:realhinome", ProfileKey("realhinome"))
	assert.Equal(t, "suggestions:42", SuggestionsKey("42"))
	assert.Equal(t, "post:7", PostKey("7"))
	assert.Equal(t, "posts:all", PostListKey())
	assert.Equal(t, SearchKey("Hello World"), SearchKey("  hello world"))
	assert.Equal(t, "search:hello+world", SearchKey("Hello World"))
	assert.Equal(t, "search", Family(SearchKey("x")))

	long := SearchKey(strings.Repeat("a", 300))
	assert.LessOrEqual(t, len(long), maxKeyLength)
	assert.True(t, strings.HasPrefix(long, "search:sha256:"))
}

func TestLocal(t *testing.T) {
	ctx := context.Background()
	c, err := NewLocal(16)
	require.NoError(t, err)

	now := time.Now()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Minute))
	val, ok, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), val)

	now = now.Add(time.Minute)
	_, ok, err = c.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok, "entry must expire at its ttl")

	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))
	require.NoError(t, c.Delete(ctx, "b"))
	require.NoError(t, c.Delete(ctx, "missing"))
	assert.False(t, c.Contains("b"))
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, model.ErrUnavailable
}

func (failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return model.ErrUnavailable
}

func (failingCache) Delete(context.Context, string) error { return model.ErrUnavailable }

func (failingCache) Close() error { return nil }

func TestFetch(t *testing.T) {
	ctx := context.Background()
	c, err := NewLocal(16)
	require.NoError(t, err)

	calls := 0
	load := func(context.Context) ([]string, error) {
		calls++
		return []string{"alice", "bob"}, nil
	}

	got, err := Fetch(ctx, c, helpers.DiscardLogger(), SearchKey("al"), time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, got)
	assert.True(t, c.Contains(SearchKey("al")))

	got, err = Fetch(ctx, c, helpers.DiscardLogger(), SearchKey("AL"), time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, got)
	assert.Equal(t, 1, calls, "second read must be served from the cache")
}

func TestFetch_Degrades(t *testing.T) {
	got, err := Fetch(context.Background(), failingCache{}, helpers.DiscardLogger(), "post:1", time.Minute,
		func(context.Context) (int, error) { return 3, nil })
	require.NoError(t, err)
	assert.Equal(t, 3, got)

	boom := errors.New("boom")
	_, err = Fetch(context.Background(), failingCache{}, helpers.DiscardLogger(), "post:1", time.Minute,
		func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
}

func TestFetch_UndecodableEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewLocal(4)
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "post:1", []byte("{"), time.Minute))

	got, err := Fetch(ctx, c, helpers.DiscardLogger(), "post:1", time.Minute,
		func(context.Context) (int, error) { return 9, nil })
	require.NoError(t, err)
	assert.Equal(t, 9, got)
}
