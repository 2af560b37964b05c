package social

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Gravitalia/socialbook/cache"
	"github.com/Gravitalia/socialbook/model"
)

// MaxCaption is the longest accepted caption
const MaxCaption = 2200

// CreatePost stores the post and, when it carries an image, enqueues the
// image for the worker. The post is readable at once with an empty image
// reference until the worker resolves it.
func (s *Service) CreatePost(ctx context.Context, authorID string, body model.PostBody) (*model.Post, error) {
	author, err := s.activeAccount(ctx, authorID)
	if err != nil {
		return nil, err
	}

	body.Caption = strings.TrimSpace(body.Caption)
	verr := &model.ValidationError{}
	if body.Caption == "" && body.Image == "" {
		verr.Add("caption", "A post needs a caption or an image.")
	}
	if len(body.Caption) > MaxCaption {
		verr.Add("caption", "Ensure this field has no more than 2200 characters.")
	}
	if body.Image != "" && (!strings.HasPrefix(body.Image, "data:") || !strings.Contains(body.Image, ";base64,")) {
		verr.Add("image", "Upload a valid base64 data URL.")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	post := &model.Post{
		ID:          uuid.NewString(),
		AuthorID:    author.ID,
		Caption:     body.Caption,
		Description: body.Description,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.CreatePost(ctx, post); err != nil {
		return nil, err
	}

	if body.Image != "" {
		msg := model.ImageMessage{PostID: post.ID, ImageBase64Data: body.Image}
		if err := s.publisher.Publish(ctx, msg); err != nil {
			// The post stays without image; it is still a valid post.
			s.logger.Warn("image enqueue failed", "post", post.ID, "error", err)
		}
	}

	s.invalidator.PostChanged(ctx, post.ID, author.Username)

	return post, nil
}

// GetPost returns a post with its author, cached per post id
func (s *Service) GetPost(ctx context.Context, postID string) (*model.PostView, error) {
	view, err := cache.Fetch(ctx, s.cache, s.logger, cache.PostKey(postID), s.ttls.Post,
		func(ctx context.Context) (model.PostView, error) {
			post, err := s.store.GetPost(ctx, postID)
			if err != nil {
				return model.PostView{}, err
			}
			author, err := s.store.GetAccount(ctx, post.AuthorID)
			if err != nil {
				return model.PostView{}, err
			}
			return model.PostView{Post: *post, Author: author.Username}, nil
		})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// ListPosts returns every post, newest first
func (s *Service) ListPosts(ctx context.Context) ([]model.PostView, error) {
	return cache.Fetch(ctx, s.cache, s.logger, cache.PostListKey(), s.ttls.PostList,
		func(ctx context.Context) ([]model.PostView, error) {
			posts, err := s.store.ListPosts(ctx)
			if err != nil {
				return nil, err
			}

			authors := make(map[string]string)
			views := make([]model.PostView, 0, len(posts))
			for _, p := range posts {
				name, ok := authors[p.AuthorID]
				if !ok {
					author, err := s.store.GetAccount(ctx, p.AuthorID)
					if err != nil {
						return nil, err
					}
					name = author.Username
					authors[p.AuthorID] = name
				}
				views = append(views, model.PostView{Post: p, Author: name})
			}
			return views, nil
		})
}

// UpdatePost edits the caption or description of a post owned by accountID
func (s *Service) UpdatePost(ctx context.Context, accountID, postID string, update model.PostUpdate) (*model.Post, error) {
	author, post, err := s.ownedPost(ctx, accountID, postID)
	if err != nil {
		return nil, err
	}

	if update.Caption != nil {
		caption := strings.TrimSpace(*update.Caption)
		if len(caption) > MaxCaption {
			verr := &model.ValidationError{}
			verr.Add("caption", "Ensure this field has no more than 2200 characters.")
			return nil, verr
		}
		post.Caption = caption
	}
	if update.Description != nil {
		post.Description = *update.Description
	}

	if err := s.store.UpdatePost(ctx, post); err != nil {
		return nil, err
	}
	s.invalidator.PostChanged(ctx, post.ID, author.Username)

	return post, nil
}

// DeletePost removes a post owned by accountID with its likes
func (s *Service) DeletePost(ctx context.Context, accountID, postID string) error {
	author, post, err := s.ownedPost(ctx, accountID, postID)
	if err != nil {
		return err
	}

	if err := s.store.DeletePost(ctx, post.ID); err != nil {
		return err
	}
	s.invalidator.PostChanged(ctx, post.ID, author.Username)

	return nil
}

func (s *Service) ownedPost(ctx context.Context, accountID, postID string) (*model.Account, *model.Post, error) {
	author, err := s.activeAccount(ctx, accountID)
	if err != nil {
		return nil, nil, err
	}
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, nil, err
	}
	if post.AuthorID != author.ID {
		return nil, nil, model.ErrForbidden
	}
	return author, post, nil
}
