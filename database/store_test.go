package database

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gravitalia/socialbook/model"
)

func newAccount(t *testing.T, s Store, username string) *model.Account {
	t.Helper()

	a := &model.Account{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		Active:       true,
	}
	require.NoError(t, s.CreateAccount(context.Background(), a))
	return a
}

func newPost(t *testing.T, s Store, author string, createdAt time.Time) *model.Post {
	t.Helper()

	p := &model.Post{ID: uuid.NewString(), AuthorID: author, Caption: "caption", CreatedAt: createdAt}
	require.NoError(t, s.CreatePost(context.Background(), p))
	return p
}

// testStore runs the behaviour every Store implementation must share
func testStore(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("account creates exactly one profile", func(t *testing.T) {
		s := newStore(t)
		a := newAccount(t, s, "realhinome")

		p, err := s.GetProfile(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, a.ID, p.AccountID)
		assert.Equal(t, model.DefaultAvatar, p.Avatar)

		require.NoError(t, s.DeleteAccount(ctx, a.ID))
		_, err = s.GetProfile(ctx, a.ID)
		assert.ErrorIs(t, err, model.ErrNotFound)
		_, err = s.GetAccount(ctx, a.ID)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("username and email are unique", func(t *testing.T) {
		s := newStore(t)
		newAccount(t, s, "alice")

		err := s.CreateAccount(ctx, &model.Account{ID: uuid.NewString(), Username: "ALICE", PasswordHash: "x"})
		assert.ErrorIs(t, err, model.ErrConflict)

		err = s.CreateAccount(ctx, &model.Account{ID: uuid.NewString(), Username: "bob", Email: "Alice@example.com", PasswordHash: "x"})
		assert.ErrorIs(t, err, model.ErrConflict)

		taken, err := s.UsernameTaken(ctx, "Alice")
		require.NoError(t, err)
		assert.True(t, taken)

		taken, err = s.EmailTaken(ctx, "nobody@example.com")
		require.NoError(t, err)
		assert.False(t, taken)
	})

	t.Run("delete account cascades", func(t *testing.T) {
		s := newStore(t)
		a := newAccount(t, s, "alice")
		b := newAccount(t, s, "bob")
		p := newPost(t, s, a.ID, time.Now())
		q := newPost(t, s, b.ID, time.Now())
		require.NoError(t, s.CreateLike(ctx, q.ID, a.ID))
		require.NoError(t, s.CreateFollow(ctx, a.ID, b.ID))
		require.NoError(t, s.CreateFollow(ctx, b.ID, a.ID))

		require.NoError(t, s.DeleteAccount(ctx, a.ID))

		_, err := s.GetPost(ctx, p.ID)
		assert.ErrorIs(t, err, model.ErrNotFound)
		n, err := s.CountLikes(ctx, q.ID)
		require.NoError(t, err)
		assert.Zero(t, n)
		followers, following, err := s.CountFollows(ctx, b.ID)
		require.NoError(t, err)
		assert.Zero(t, followers)
		assert.Zero(t, following)
	})

	t.Run("like is unique per pair", func(t *testing.T) {
		s := newStore(t)
		a := newAccount(t, s, "alice")
		p := newPost(t, s, a.ID, time.Now())

		require.NoError(t, s.CreateLike(ctx, p.ID, a.ID))
		assert.ErrorIs(t, s.CreateLike(ctx, p.ID, a.ID), model.ErrConflict)

		post, err := s.GetPost(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), post.Likes)

		liked, err := s.LikedPosts(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{p.ID}, liked)

		removed, err := s.DeleteLike(ctx, p.ID, a.ID)
		require.NoError(t, err)
		assert.True(t, removed)
		removed, err = s.DeleteLike(ctx, p.ID, a.ID)
		require.NoError(t, err)
		assert.False(t, removed)
	})

	t.Run("follow is unique and never self", func(t *testing.T) {
		s := newStore(t)
		a := newAccount(t, s, "alice")
		b := newAccount(t, s, "bob")

		assert.ErrorIs(t, s.CreateFollow(ctx, a.ID, a.ID), model.ErrSelfFollow)
		assert.ErrorIs(t, s.CreateFollow(ctx, a.ID, uuid.NewString()), model.ErrNotFound)

		require.NoError(t, s.CreateFollow(ctx, a.ID, b.ID))
		assert.ErrorIs(t, s.CreateFollow(ctx, a.ID, b.ID), model.ErrConflict)

		ok, err := s.IsFollowing(ctx, a.ID, b.ID)
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = s.IsFollowing(ctx, b.ID, a.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		following, err := s.Following(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{b.ID}, following)

		followerIDs, err := s.Followers(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{a.ID}, followerIDs)

		followers, followingCount, err := s.CountFollows(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), followers)
		assert.Zero(t, followingCount)
	})

	t.Run("concurrent follow creates one edge", func(t *testing.T) {
		s := newStore(t)
		a := newAccount(t, s, "alice")
		b := newAccount(t, s, "bob")

		var wg sync.WaitGroup
		errs := make([]error, 8)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = s.CreateFollow(ctx, a.ID, b.ID)
			}(i)
		}
		wg.Wait()

		created := 0
		for _, err := range errs {
			if err == nil {
				created++
			} else {
				assert.ErrorIs(t, err, model.ErrConflict)
			}
		}
		assert.Equal(t, 1, created)

		followers, _, err := s.CountFollows(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), followers)
	})

	t.Run("image placeholder is filled once", func(t *testing.T) {
		s := newStore(t)
		a := newAccount(t, s, "alice")
		p := newPost(t, s, a.ID, time.Now())

		changed, err := s.SetPostImage(ctx, p.ID, "http://localhost/media/one.png")
		require.NoError(t, err)
		assert.True(t, changed)

		changed, err = s.SetPostImage(ctx, p.ID, "http://localhost/media/two.png")
		require.NoError(t, err)
		assert.False(t, changed)

		post, err := s.GetPost(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "http://localhost/media/one.png", post.Image)

		_, err = s.SetPostImage(ctx, uuid.NewString(), "x")
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("posts are listed newest first", func(t *testing.T) {
		s := newStore(t)
		a := newAccount(t, s, "alice")
		b := newAccount(t, s, "bob")
		c := newAccount(t, s, "carol")
		now := time.Now().UTC().Truncate(time.Millisecond)
		older := newPost(t, s, a.ID, now.Add(-time.Hour))
		newer := newPost(t, s, b.ID, now)
		newPost(t, s, c.ID, now.Add(-time.Minute))

		all, err := s.ListPosts(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, newer.ID, all[0].ID)
		assert.Equal(t, older.ID, all[2].ID)

		some, err := s.PostsByAuthors(ctx, []string{a.ID, b.ID})
		require.NoError(t, err)
		require.Len(t, some, 2)
		assert.Equal(t, newer.ID, some[0].ID)
		assert.Equal(t, older.ID, some[1].ID)
	})

	t.Run("search and suggestion candidates", func(t *testing.T) {
		s := newStore(t)
		a := newAccount(t, s, "alice")
		b := newAccount(t, s, "Alicia")
		c := newAccount(t, s, "bob")
		d := newAccount(t, s, "al_ex")
		require.NoError(t, s.SetAccountActive(ctx, d.ID, false))

		found, err := s.SearchAccounts(ctx, "ALI")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{a.ID, b.ID}, ids(found))

		found, err = s.SearchAccounts(ctx, "l_")
		require.NoError(t, err)
		assert.Empty(t, found)

		require.NoError(t, s.CreateFollow(ctx, a.ID, b.ID))
		candidates, err := s.SuggestionCandidates(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{c.ID}, ids(candidates))
	})

	t.Run("profile update", func(t *testing.T) {
		s := newStore(t)
		a := newAccount(t, s, "alice")

		require.NoError(t, s.UpdateProfile(ctx, &model.Profile{AccountID: a.ID, Bio: "hello", Avatar: "me.png", Location: "Paris"}))
		p, err := s.GetProfile(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, "hello", p.Bio)

		profiles, err := s.GetProfiles(ctx, []string{a.ID, uuid.NewString()})
		require.NoError(t, err)
		assert.Len(t, profiles, 1)

		err = s.UpdateProfile(ctx, &model.Profile{AccountID: uuid.NewString()})
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func ids(accounts []model.Account) []string {
	list := make([]string, 0, len(accounts))
	for _, a := range accounts {
		list = append(list, a.ID)
	}
	return list
}

func TestMemory(t *testing.T) {
	testStore(t, func(*testing.T) Store { return NewMemory() })
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `a\%b\_c\\d`, escapeLike(`a%b_c\d`))
}
