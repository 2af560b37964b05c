// Package social implements the account, profile, post and feed operations
// served by the API. Reads go through the object cache; every write commits
// to the store first and then asks the invalidation coordinator to evict
// what it staled.
package social

import (
	"context"
	"log/slog"
	"time"

	"github.com/Gravitalia/socialbook/cache"
	"github.com/Gravitalia/socialbook/database"
	"github.com/Gravitalia/socialbook/invalidation"
	"github.com/Gravitalia/socialbook/model"
	"github.com/Gravitalia/socialbook/recommendation"
)

// TokenIssuer signs session tokens for an account id
type TokenIssuer interface {
	CreateToken(subject string) (string, error)
}

// ImagePublisher enqueues an image for the processing worker
type ImagePublisher interface {
	Publish(ctx context.Context, msg model.ImageMessage) error
}

// Options groups the collaborators of a Service
type Options struct {
	Store       database.Store
	Cache       cache.Cache
	TTLs        cache.TTLs
	Invalidator *invalidation.Coordinator
	Publisher   ImagePublisher
	Tokens      TokenIssuer
	Engine      *recommendation.Engine
	Suggester   *recommendation.Suggester
	Logger      *slog.Logger
}

// Service is the application layer behind the HTTP router
type Service struct {
	store       database.Store
	cache       cache.Cache
	ttls        cache.TTLs
	invalidator *invalidation.Coordinator
	publisher   ImagePublisher
	tokens      TokenIssuer
	engine      *recommendation.Engine
	suggester   *recommendation.Suggester
	logger      *slog.Logger
	now         func() time.Time
}

// New creates a Service. A nil Engine or Suggester is built from the store
// with a random shuffle.
func New(opts Options) *Service {
	if opts.Engine == nil {
		opts.Engine = recommendation.NewEngine(opts.Store, nil)
	}
	if opts.Suggester == nil {
		opts.Suggester = recommendation.NewSuggester(opts.Store, opts.Cache, opts.TTLs.Suggestions, nil, opts.Logger)
	}

	return &Service{
		store:       opts.Store,
		cache:       opts.Cache,
		ttls:        opts.TTLs,
		invalidator: opts.Invalidator,
		publisher:   opts.Publisher,
		tokens:      opts.Tokens,
		engine:      opts.Engine,
		suggester:   opts.Suggester,
		logger:      opts.Logger,
		now:         time.Now,
	}
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
