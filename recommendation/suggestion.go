package recommendation

import (
	"context"
	"log/slog"
	"time"

	"github.com/Gravitalia/socialbook/cache"
	"github.com/Gravitalia/socialbook/database"
	"github.com/Gravitalia/socialbook/model"
)

// SuggestionLimit is the size of a suggestion list
const SuggestionLimit = 4

// Suggester draws accounts a viewer may want to follow
type Suggester struct {
	store   database.Store
	cache   cache.Cache
	ttl     time.Duration
	shuffle Shuffle
	logger  *slog.Logger
}

// NewSuggester creates a suggester caching each list for ttl
func NewSuggester(store database.Store, c cache.Cache, ttl time.Duration, shuffle Shuffle, logger *slog.Logger) *Suggester {
	if shuffle == nil {
		shuffle = RandomShuffle()
	}
	return &Suggester{store: store, cache: c, ttl: ttl, shuffle: shuffle, logger: logger}
}

// Suggest returns up to SuggestionLimit active accounts that viewerID
// does not follow, never viewerID itself. A cold cache draws a new
// uniform sample.
func (s *Suggester) Suggest(ctx context.Context, viewerID string) ([]model.ProfileCard, error) {
	return cache.Fetch(ctx, s.cache, s.logger, cache.SuggestionsKey(viewerID), s.ttl,
		func(ctx context.Context) ([]model.ProfileCard, error) {
			return s.draw(ctx, viewerID)
		})
}

func (s *Suggester) draw(ctx context.Context, viewerID string) ([]model.ProfileCard, error) {
	candidates, err := s.store.SuggestionCandidates(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	s.shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })
	if len(candidates) > SuggestionLimit {
		candidates = candidates[:SuggestionLimit]
	}

	ids := make([]string, 0, len(candidates))
	for _, a := range candidates {
		ids = append(ids, a.ID)
	}
	profiles, err := s.store.GetProfiles(ctx, ids)
	if err != nil {
		return nil, err
	}

	cards := make([]model.ProfileCard, 0, len(candidates))
	for _, a := range candidates {
		cards = append(cards, model.Card(a, profiles[a.ID]))
	}
	return cards, nil
}
