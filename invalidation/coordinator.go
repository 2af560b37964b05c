// Package invalidation evicts the cache entries a committed mutation may have staled.
//
// Every write path calls the coordinator after its commit. Eviction is
// best effort: a failed delete is logged and counted, never returned,
// so the write it follows still succeeds.
package invalidation

import (
	"context"
	"log/slog"

	"github.com/Gravitalia/socialbook/cache"
	"github.com/Gravitalia/socialbook/helpers"
)

// Coordinator deletes cache keys on behalf of write paths
type Coordinator struct {
	cache  cache.Cache
	logger *slog.Logger
}

// New creates a coordinator evicting from c
func New(c cache.Cache, logger *slog.Logger) *Coordinator {
	return &Coordinator{cache: c, logger: logger}
}

// AccountKeys lists the keys staled by an account or profile update
func AccountKeys(username string) []string {
	return []string{cache.ProfileKey(username)}
}

// Deletion describes what an account deletion cascaded over
type Deletion struct {
	Username  string
	AccountID string
	// PostIDs are the posts the account authored.
	PostIDs []string
	// LikedPostIDs are the posts of others whose like counts dropped.
	LikedPostIDs []string
	// Related are the usernames whose profile embedded the account: both
	// sides of its follows and the authors of the posts it liked.
	Related []string
}

// AccountDeletedKeys lists the keys staled by an account deletion
func AccountDeletedKeys(d Deletion) []string {
	keys := []string{cache.ProfileKey(d.Username), cache.SuggestionsKey(d.AccountID)}
	if len(d.PostIDs) > 0 || len(d.LikedPostIDs) > 0 {
		keys = append(keys, cache.PostListKey())
	}
	for _, id := range d.PostIDs {
		keys = append(keys, cache.PostKey(id))
	}
	for _, id := range d.LikedPostIDs {
		keys = append(keys, cache.PostKey(id))
	}
	for _, username := range d.Related {
		keys = append(keys, cache.ProfileKey(username))
	}
	return keys
}

// PostKeys lists the keys staled by a post create, update or delete.
// The profile view embeds the author's posts. An unknown author leaves
// only the post keys.
func PostKeys(postID, authorUsername string) []string {
	keys := []string{cache.PostKey(postID), cache.PostListKey()}
	if authorUsername != "" {
		keys = append(keys, cache.ProfileKey(authorUsername))
	}
	return keys
}

// LikeKeys lists the keys staled by a like toggle. Every view embedding
// the post carries its like count.
func LikeKeys(postID, authorUsername string) []string {
	return PostKeys(postID, authorUsername)
}

// FollowKeys lists the keys staled by a follow toggle: both profiles carry
// counts and the follower's candidate pool changed.
func FollowKeys(followerUsername, followeeUsername, followerID string) []string {
	return []string{
		cache.ProfileKey(followerUsername),
		cache.ProfileKey(followeeUsername),
		cache.SuggestionsKey(followerID),
	}
}

func (c *Coordinator) AccountChanged(ctx context.Context, username string) {
	c.evict(ctx, "account", AccountKeys(username))
}

func (c *Coordinator) ProfileChanged(ctx context.Context, username string) {
	c.evict(ctx, "profile", AccountKeys(username))
}

func (c *Coordinator) AccountDeleted(ctx context.Context, d Deletion) {
	c.evict(ctx, "account_deleted", AccountDeletedKeys(d))
}

func (c *Coordinator) PostChanged(ctx context.Context, postID, authorUsername string) {
	c.evict(ctx, "post", PostKeys(postID, authorUsername))
}

func (c *Coordinator) LikeChanged(ctx context.Context, postID, authorUsername string) {
	c.evict(ctx, "like", LikeKeys(postID, authorUsername))
}

func (c *Coordinator) FollowChanged(ctx context.Context, followerUsername, followeeUsername, followerID string) {
	c.evict(ctx, "follow", FollowKeys(followerUsername, followeeUsername, followerID))
}

// ImageResolved is called by the image worker once a post's image is patched
func (c *Coordinator) ImageResolved(ctx context.Context, postID, authorUsername string) {
	c.evict(ctx, "image", PostKeys(postID, authorUsername))
}

func (c *Coordinator) evict(ctx context.Context, mutation string, keys []string) {
	for _, key := range keys {
		err := c.cache.Delete(ctx, key)
		helpers.ObserveInvalidation(err)
		if err != nil {
			c.logger.Warn("cache invalidation failed",
				"mutation", mutation,
				"key", key,
				"error", err)
		}
	}
}
