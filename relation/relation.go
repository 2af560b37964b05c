// Package relation toggles follow edges and likes.
//
// No lock is taken around a toggle. The store's uniqueness constraint
// arbitrates concurrent toggles: the writer that loses a create race
// observes ErrConflict and reports the state the winner produced.
package relation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Gravitalia/socialbook/database"
	"github.com/Gravitalia/socialbook/invalidation"
	"github.com/Gravitalia/socialbook/model"
)

// Response messages of a toggle
const (
	Followed   = "OK: Followed"
	Unfollowed = "OK: Unfollowed"
)

// Service toggles relations and evicts what they stale
type Service struct {
	store       database.Store
	invalidator *invalidation.Coordinator
	logger      *slog.Logger
}

func New(store database.Store, invalidator *invalidation.Coordinator, logger *slog.Logger) *Service {
	return &Service{store: store, invalidator: invalidator, logger: logger}
}

func (s *Service) activeAccount(ctx context.Context, id string) (*model.Account, error) {
	account, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if !account.Active {
		return nil, model.ErrNotFound
	}
	return account, nil
}

// ToggleFollow deletes the edge follower -> followee when it exists and
// creates it otherwise. The result reports whether the edge now exists.
func (s *Service) ToggleFollow(ctx context.Context, followerID, followeeID string) (model.FollowResult, error) {
	if followerID == followeeID {
		return model.FollowResult{}, model.ErrSelfFollow
	}

	follower, err := s.activeAccount(ctx, followerID)
	if err != nil {
		return model.FollowResult{}, fmt.Errorf("follower: %w", err)
	}
	followee, err := s.activeAccount(ctx, followeeID)
	if err != nil {
		return model.FollowResult{}, fmt.Errorf("followee: %w", err)
	}

	result := model.FollowResult{Following: true, Message: Followed}

	removed, err := s.store.DeleteFollow(ctx, followerID, followeeID)
	if err != nil {
		return model.FollowResult{}, err
	}
	if removed {
		result = model.FollowResult{Following: false, Message: Unfollowed}
	} else if err := s.store.CreateFollow(ctx, followerID, followeeID); err != nil {
		if !errors.Is(err, model.ErrConflict) {
			return model.FollowResult{}, err
		}
		s.logger.Debug("follow created concurrently", "follower", followerID, "followee", followeeID)
	}

	s.invalidator.FollowChanged(ctx, follower.Username, followee.Username, follower.ID)

	return result, nil
}

// ToggleLike removes the like of accountID on postID when it exists and
// adds it otherwise. The result carries the like count after the toggle.
func (s *Service) ToggleLike(ctx context.Context, accountID, postID string) (model.LikeResult, error) {
	if _, err := s.activeAccount(ctx, accountID); err != nil {
		return model.LikeResult{}, err
	}
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return model.LikeResult{}, err
	}

	liked := true
	removed, err := s.store.DeleteLike(ctx, postID, accountID)
	if err != nil {
		return model.LikeResult{}, err
	}
	if removed {
		liked = false
	} else if err := s.store.CreateLike(ctx, postID, accountID); err != nil && !errors.Is(err, model.ErrConflict) {
		return model.LikeResult{}, err
	}

	var authorUsername string
	if author, err := s.store.GetAccount(ctx, post.AuthorID); err == nil {
		authorUsername = author.Username
	} else {
		s.logger.Warn("cannot resolve post author, profile left cached", "post", postID, "error", err)
	}
	s.invalidator.LikeChanged(ctx, postID, authorUsername)

	likes, err := s.store.CountLikes(ctx, postID)
	if err != nil {
		return model.LikeResult{}, err
	}

	return model.LikeResult{Liked: liked, Likes: likes}, nil
}
