// Package recommendation ranks the feed of a viewer and suggests accounts to follow.
package recommendation

import (
	"context"
	"sort"
	"time"

	"github.com/Gravitalia/socialbook/database"
	"github.com/Gravitalia/socialbook/model"
)

const (
	// ColdStartLimit bounds the popularity feed of a viewer following nobody.
	ColdStartLimit = 8
	// RecentWindow separates recent posts from older ones in a warm feed.
	RecentWindow = 7 * 24 * time.Hour
)

// Engine computes personalized feeds
type Engine struct {
	store   database.Store
	shuffle Shuffle
	now     func() time.Time
}

// NewEngine creates a feed engine. A nil shuffle uses RandomShuffle.
func NewEngine(store database.Store, shuffle Shuffle) *Engine {
	if shuffle == nil {
		shuffle = RandomShuffle()
	}
	return &Engine{store: store, shuffle: shuffle, now: time.Now}
}

// Compute returns the feed of viewerID.
//
// A viewer following nobody gets at most ColdStartLimit posts from the
// whole corpus by descending like count, equal counts in random order.
// Otherwise the followees' posts of the last RecentWindow come first,
// then the older ones, each group shuffled. Following accounts without
// posts yields an empty feed: the fallback only depends on the follow set.
func (e *Engine) Compute(ctx context.Context, viewerID string) ([]model.Post, error) {
	following, err := e.store.Following(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	if len(following) == 0 {
		return e.coldStart(ctx)
	}

	posts, err := e.store.PostsByAuthors(ctx, following)
	if err != nil {
		return nil, err
	}

	return e.byRecency(removeDuplicates(posts)), nil
}

func (e *Engine) coldStart(ctx context.Context) ([]model.Post, error) {
	posts, err := e.store.ListPosts(ctx)
	if err != nil {
		return nil, err
	}

	e.shuffle(len(posts), func(i, j int) { posts[i], posts[j] = posts[j], posts[i] })
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].Likes > posts[j].Likes })

	if len(posts) > ColdStartLimit {
		posts = posts[:ColdStartLimit]
	}
	return posts, nil
}

func (e *Engine) byRecency(posts []model.Post) []model.Post {
	cutoff := e.now().Add(-RecentWindow)

	recent := make([]model.Post, 0, len(posts))
	older := make([]model.Post, 0)
	for _, p := range posts {
		if p.CreatedAt.Before(cutoff) {
			older = append(older, p)
		} else {
			recent = append(recent, p)
		}
	}

	e.shuffle(len(recent), func(i, j int) { recent[i], recent[j] = recent[j], recent[i] })
	e.shuffle(len(older), func(i, j int) { older[i], older[j] = older[j], older[i] })

	return append(recent, older...)
}

// removeDuplicates drops posts seen earlier in the list
func removeDuplicates(list []model.Post) []model.Post {
	newList := make([]model.Post, 0, len(list))
	seen := make(map[string]bool, len(list))

	for _, post := range list {
		if !seen[post.ID] {
			seen[post.ID] = true
			newList = append(newList, post)
		}
	}

	return newList
}
