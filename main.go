package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Gravitalia/socialbook/cache"
	"github.com/Gravitalia/socialbook/config"
	"github.com/Gravitalia/socialbook/database"
	"github.com/Gravitalia/socialbook/helpers"
	"github.com/Gravitalia/socialbook/invalidation"
	"github.com/Gravitalia/socialbook/pipeline"
	"github.com/Gravitalia/socialbook/relation"
	"github.com/Gravitalia/socialbook/router"
	"github.com/Gravitalia/socialbook/social"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		slog.Error("cannot load configuration", "error", err)
		os.Exit(1)
	}

	logger := helpers.NewLogger(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, err := database.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	objects, err := cache.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer objects.Close()

	tokens, err := helpers.NewTokens(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.TokenLifetime)
	if err != nil {
		return err
	}

	producer := pipeline.Connect(ctx, pipeline.OptionsFrom(cfg), logger)
	defer producer.Close()

	invalidator := invalidation.New(objects, logger)
	rt := router.New(router.Options{
		Social: social.New(social.Options{
			Store:       store,
			Cache:       objects,
			TTLs:        cache.TTLsFrom(cfg),
			Invalidator: invalidator,
			Publisher:   producer,
			Tokens:      tokens,
			Logger:      logger,
		}),
		Relations:  relation.New(store, invalidator, logger),
		Tokens:     tokens,
		AdminToken: cfg.Auth.AdminToken,
		Media:      media(cfg),
		Logger:     logger,
	})

	handler := newHandler(rt.Handler())
	if cfg.Tracing.ZipkinAddress != "" {
		tracing, reporter, err := helpers.InitTracer(cfg.Tracing.ZipkinAddress, "socialbook", ":"+cfg.Server.Port)
		if err != nil {
			return err
		}
		defer reporter.Close()
		handler = tracing(handler)
	}

	// Create web server
	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		ReadHeaderTimeout: 3 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	errs := make(chan error, 1)
	go func() {
		logger.Info("server is starting", "port", cfg.Server.Port)
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdown); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("server stopped")

	return nil
}

// newHandler mounts the metrics endpoint next to the instrumented API
func newHandler(api http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(helpers.GetRegistery(), promhttp.HandlerOpts{}))
	mux.Handle("/", api)

	return helpers.Instrument(mux)
}

// media serves locally stored blobs, bucket blobs are served by the bucket
func media(cfg *config.Config) http.Handler {
	if cfg.Storage.Driver != "local" {
		return nil
	}
	return http.FileServer(http.Dir(cfg.Storage.Directory))
}
