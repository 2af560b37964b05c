package relation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gravitalia/socialbook/cache"
	"github.com/Gravitalia/socialbook/database"
	"github.com/Gravitalia/socialbook/helpers"
	"github.com/Gravitalia/socialbook/invalidation"
	"github.com/Gravitalia/socialbook/model"
)

type fixture struct {
	store   *database.Memory
	cache   *cache.Local
	service *Service
}

func setup(t *testing.T) fixture {
	t.Helper()

	c, err := cache.NewLocal(64)
	require.NoError(t, err)
	store := database.NewMemory()

	return fixture{
		store:   store,
		cache:   c,
		service: New(store, invalidation.New(c, helpers.DiscardLogger()), helpers.DiscardLogger()),
	}
}

func (f fixture) account(t *testing.T, username string) *model.Account {
	t.Helper()

	a := &model.Account{ID: uuid.NewString(), Username: username, PasswordHash: "x", Active: true}
	require.NoError(t, f.store.CreateAccount(context.Background(), a))
	return a
}

func (f fixture) warm(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		require.NoError(t, f.cache.Set(context.Background(), k, []byte("{}"), time.Hour))
	}
}

func TestToggleFollow(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	a := f.account(t, "alice")
	b := f.account(t, "bob")

	f.warm(t, cache.ProfileKey("alice"), cache.ProfileKey("bob"), cache.SuggestionsKey(a.ID))
	res, err := f.service.ToggleFollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, res.Following)
	assert.Equal(t, Followed, res.Message)
	assert.False(t, f.cache.Contains(cache.ProfileKey("alice")))
	assert.False(t, f.cache.Contains(cache.ProfileKey("bob")))
	assert.False(t, f.cache.Contains(cache.SuggestionsKey(a.ID)))

	f.warm(t, cache.ProfileKey("alice"), cache.ProfileKey("bob"), cache.SuggestionsKey(a.ID))
	res, err = f.service.ToggleFollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, res.Following)
	assert.False(t, f.cache.Contains(cache.ProfileKey("alice")), "unfollow invalidates too")
	assert.False(t, f.cache.Contains(cache.ProfileKey("bob")))
	assert.False(t, f.cache.Contains(cache.SuggestionsKey(a.ID)))

	following, err := f.store.IsFollowing(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, following, "two toggles return to the original state")
}

func TestToggleFollow_Rejects(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	a := f.account(t, "alice")
	b := f.account(t, "bob")
	require.NoError(t, f.store.SetAccountActive(ctx, b.ID, false))

	_, err := f.service.ToggleFollow(ctx, a.ID, a.ID)
	assert.ErrorIs(t, err, model.ErrSelfFollow)

	_, err = f.service.ToggleFollow(ctx, a.ID, uuid.NewString())
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = f.service.ToggleFollow(ctx, a.ID, b.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestToggleFollow_Concurrent(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	a := f.account(t, "alice")
	b := f.account(t, "bob")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.ToggleFollow(ctx, a.ID, b.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	followers, _, err := f.store.CountFollows(ctx, b.ID)
	require.NoError(t, err)
	assert.Contains(t, []int64{0, 1}, followers)
}

func TestToggleLike(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	a := f.account(t, "alice")
	b := f.account(t, "bob")
	post := &model.Post{ID: uuid.NewString(), AuthorID: b.ID}
	require.NoError(t, f.store.CreatePost(ctx, post))

	f.warm(t, cache.PostKey(post.ID), cache.PostListKey(), cache.ProfileKey(b.Username))
	res, err := f.service.ToggleLike(ctx, a.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LikeResult{Liked: true, Likes: 1}, res)
	assert.False(t, f.cache.Contains(cache.PostKey(post.ID)))
	assert.False(t, f.cache.Contains(cache.PostListKey()))
	assert.False(t, f.cache.Contains(cache.ProfileKey(b.Username)))

	f.warm(t, cache.PostKey(post.ID))
	res, err = f.service.ToggleLike(ctx, a.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LikeResult{Liked: false, Likes: 0}, res)
	assert.False(t, f.cache.Contains(cache.PostKey(post.ID)))

	_, err = f.service.ToggleLike(ctx, a.ID, uuid.NewString())
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestToggleLike_Concurrent(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	a := f.account(t, "alice")
	post := &model.Post{ID: uuid.NewString(), AuthorID: a.ID}
	require.NoError(t, f.store.CreatePost(ctx, post))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.ToggleLike(ctx, a.ID, post.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	likes, err := f.store.CountLikes(ctx, post.ID)
	require.NoError(t, err)
	assert.Contains(t, []int64{0, 1}, likes)
}
