// Package database holds the persistence store: the relational source of truth
// for accounts, profiles, posts, likes and follow edges.
package database

import (
	"context"

	"github.com/Gravitalia/socialbook/model"
)

// Store is the persistence interface used by every core component.
//
// Uniqueness is enforced by the store itself: a second like on the same
// (post, account) pair or a second edge on the same (follower, followee) pair
// fails with model.ErrConflict, and a self-follow fails with
// model.ErrSelfFollow. Missing rows are reported as model.ErrNotFound.
type Store interface {
	// CreateAccount inserts the account and its profile in one transaction.
	CreateAccount(ctx context.Context, account *model.Account) error
	// DeleteAccount removes the account with its profile, posts, likes and edges.
	DeleteAccount(ctx context.Context, id string) error
	GetAccount(ctx context.Context, id string) (*model.Account, error)
	GetAccountByUsername(ctx context.Context, username string) (*model.Account, error)
	// UsernameTaken and EmailTaken back signup validation.
	UsernameTaken(ctx context.Context, username string) (bool, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	SetAccountActive(ctx context.Context, id string, active bool) error
	// SearchAccounts matches active accounts whose username contains term, ignoring case.
	SearchAccounts(ctx context.Context, term string) ([]model.Account, error)
	// SuggestionCandidates lists active accounts that are neither the viewer
	// nor followed by the viewer.
	SuggestionCandidates(ctx context.Context, viewerID string) ([]model.Account, error)

	GetProfile(ctx context.Context, accountID string) (*model.Profile, error)
	GetProfiles(ctx context.Context, accountIDs []string) (map[string]model.Profile, error)
	UpdateProfile(ctx context.Context, profile *model.Profile) error

	CreatePost(ctx context.Context, post *model.Post) error
	// GetPost returns the post with its like count.
	GetPost(ctx context.Context, id string) (*model.Post, error)
	UpdatePost(ctx context.Context, post *model.Post) error
	// SetPostImage fills the image reference if it is still the placeholder
	// and reports whether the row changed.
	SetPostImage(ctx context.Context, id, image string) (bool, error)
	DeletePost(ctx context.Context, id string) error
	// ListPosts returns every post with its like count, newest first.
	ListPosts(ctx context.Context) ([]model.Post, error)
	// PostsByAuthors returns the posts of the given authors with like counts, newest first.
	PostsByAuthors(ctx context.Context, authorIDs []string) ([]model.Post, error)

	CreateLike(ctx context.Context, postID, accountID string) error
	// DeleteLike removes the like and reports whether one existed.
	DeleteLike(ctx context.Context, postID, accountID string) (bool, error)
	CountLikes(ctx context.Context, postID string) (int64, error)
	// LikedPosts returns the ids of the posts accountID liked.
	LikedPosts(ctx context.Context, accountID string) ([]string, error)

	CreateFollow(ctx context.Context, followerID, followeeID string) error
	// DeleteFollow removes the edge and reports whether one existed.
	DeleteFollow(ctx context.Context, followerID, followeeID string) (bool, error)
	IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error)
	// Following returns the ids of the accounts followed by accountID.
	Following(ctx context.Context, accountID string) ([]string, error)
	// Followers returns the ids of the accounts following accountID.
	Followers(ctx context.Context, accountID string) ([]string, error)
	// CountFollows returns how many accounts follow accountID and how many it follows.
	CountFollows(ctx context.Context, accountID string) (followers int64, following int64, err error)

	Close(ctx context.Context) error
}
