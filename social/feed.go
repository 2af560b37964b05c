package social

import (
	"context"

	"github.com/Gravitalia/socialbook/model"
)

// Feed returns the home page of viewerID: its own profile, the ranked
// posts of the accounts it follows and a few accounts to follow.
func (s *Service) Feed(ctx context.Context, viewerID string) (*model.Feed, error) {
	account, err := s.activeAccount(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	profile, err := s.store.GetProfile(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	posts, err := s.engine.Compute(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	suggestions, err := s.Suggestions(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	return &model.Feed{Profile: *profile, Posts: posts, Suggestions: suggestions}, nil
}

// Suggestions returns accounts viewerID may want to follow
func (s *Service) Suggestions(ctx context.Context, viewerID string) ([]model.ProfileCard, error) {
	return s.suggester.Suggest(ctx, viewerID)
}
