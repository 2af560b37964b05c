package social

import (
	"context"
	"strings"

	"github.com/Gravitalia/socialbook/cache"
	"github.com/Gravitalia/socialbook/model"
)

// Profile field limits
const (
	MaxBio      = 500
	MaxLocation = 100
)

// ProfileView returns the profile page of username as seen by viewerID.
// The page is cached per username; the followed flag is viewer dependent
// and always read live.
func (s *Service) ProfileView(ctx context.Context, username, viewerID string) (*model.ProfileResponse, error) {
	view, err := cache.Fetch(ctx, s.cache, s.logger, cache.ProfileKey(username), s.ttls.Profile,
		func(ctx context.Context) (model.ProfileView, error) {
			return s.loadProfile(ctx, username)
		})
	if err != nil {
		return nil, err
	}

	response := &model.ProfileResponse{ProfileView: view}
	if viewerID != "" && viewerID != view.Account.ID {
		response.Followed, err = s.store.IsFollowing(ctx, viewerID, view.Account.ID)
		if err != nil {
			return nil, err
		}
	}

	return response, nil
}

func (s *Service) loadProfile(ctx context.Context, username string) (model.ProfileView, error) {
	account, err := s.store.GetAccountByUsername(ctx, username)
	if err != nil {
		return model.ProfileView{}, err
	}
	if !account.Active {
		return model.ProfileView{}, model.ErrNotFound
	}

	profile, err := s.store.GetProfile(ctx, account.ID)
	if err != nil {
		return model.ProfileView{}, err
	}
	posts, err := s.store.PostsByAuthors(ctx, []string{account.ID})
	if err != nil {
		return model.ProfileView{}, err
	}
	followers, following, err := s.store.CountFollows(ctx, account.ID)
	if err != nil {
		return model.ProfileView{}, err
	}

	public := *account
	public.Email = ""

	return model.ProfileView{
		Account:   public,
		Profile:   *profile,
		Posts:     posts,
		Followers: followers,
		Following: following,
	}, nil
}

// UpdateProfile applies the non-nil fields of update to the profile of accountID
func (s *Service) UpdateProfile(ctx context.Context, accountID string, update model.ProfileUpdate) (*model.Profile, error) {
	account, err := s.activeAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	profile, err := s.store.GetProfile(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	verr := &model.ValidationError{}
	if update.Bio != nil {
		if len(*update.Bio) > MaxBio {
			verr.Add("bio", "Ensure this field has no more than 500 characters.")
		}
		profile.Bio = *update.Bio
	}
	if update.Location != nil {
		if len(*update.Location) > MaxLocation {
			verr.Add("location", "Ensure this field has no more than 100 characters.")
		}
		profile.Location = strings.TrimSpace(*update.Location)
	}
	if update.Avatar != nil {
		profile.Avatar = strings.TrimSpace(*update.Avatar)
		if profile.Avatar == "" {
			profile.Avatar = model.DefaultAvatar
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if err := s.store.UpdateProfile(ctx, profile); err != nil {
		return nil, err
	}
	s.invalidator.ProfileChanged(ctx, account.Username)

	return profile, nil
}

// Search returns the cards of the active accounts whose username contains
// term, ignoring case. Results are cached per folded term.
func (s *Service) Search(ctx context.Context, term string) ([]model.ProfileCard, error) {
	folded := cache.FoldTerm(term)
	if folded == "" {
		return []model.ProfileCard{}, nil
	}

	return cache.Fetch(ctx, s.cache, s.logger, cache.SearchKey(folded), s.ttls.Search,
		func(ctx context.Context) ([]model.ProfileCard, error) {
			accounts, err := s.store.SearchAccounts(ctx, folded)
			if err != nil {
				return nil, err
			}

			ids := make([]string, 0, len(accounts))
			for _, a := range accounts {
				ids = append(ids, a.ID)
			}
			profiles, err := s.store.GetProfiles(ctx, ids)
			if err != nil {
				return nil, err
			}

			cards := make([]model.ProfileCard, 0, len(accounts))
			for _, a := range accounts {
				cards = append(cards, model.Card(a, profiles[a.ID]))
			}
			return cards, nil
		})
}
