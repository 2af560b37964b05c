package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Gravitalia/socialbook/config"
)

// Open builds the store selected by the configuration. The postgres schema
// is migrated before the pool is opened.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		dsn := cfg.PostgresDSN()

		migrator, err := NewMigrator(dsn, logger)
		if err != nil {
			return nil, err
		}
		if err := migrator.Up(); err != nil {
			_ = migrator.Close()
			return nil, err
		}
		if err := migrator.Close(); err != nil {
			logger.Warn("cannot close migrator", "error", err)
		}

		return NewPostgres(ctx, dsn, PoolOptions{
			MaxConns: cfg.Store.Postgres.MaxConns,
			MinConns: cfg.Store.Postgres.MinConns,
		})
	case "memgraph":
		return NewMemgraph(ctx, cfg.Store.Graph.URL, cfg.Store.Graph.Username, cfg.Store.Graph.Password)
	case "memory":
		logger.Warn("using the in-memory store, data is lost on exit")
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
