// Command consumer is the image worker: it resolves the images of new posts
// from the durable queue and acknowledges each message once the post is patched.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
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
	"github.com/Gravitalia/socialbook/storage"
)

// StatsSchedule is how often the pending message gauge is refreshed
const StatsSchedule = "@every 1m"

func main() {
	cfg, err := config.Load("")
	if err != nil {
		slog.Error("cannot load configuration", "error", err)
		os.Exit(1)
	}

	logger := helpers.NewLogger(cfg.Log.Level, cfg.Log.Format).With("process", "consumer")
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("consumer stopped", "error", err)
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

	blobs, err := storage.Open(ctx, cfg)
	if err != nil {
		return err
	}

	health := pipeline.NewHealth()
	lis, err := net.Listen("tcp", ":"+cfg.Server.HealthPort)
	if err != nil {
		return err
	}
	go func() {
		if err := health.Serve(lis); err != nil {
			logger.Error("health server stopped", "error", err)
		}
	}()
	defer health.Stop()

	metrics := &http.Server{
		Addr:              ":" + cfg.Server.MetricsPort,
		Handler:           promhttp.HandlerFor(helpers.GetRegistery(), promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 3 * time.Second,
	}
	go func() {
		if err := metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
	defer metrics.Close()

	// Blocks with linear backoff until the broker answers.
	queue, err := pipeline.Dial(ctx, pipeline.OptionsFrom(cfg), logger)
	if err != nil {
		return err
	}
	defer queue.Close()

	sub, err := queue.Subscribe()
	if err != nil {
		return err
	}

	stats, err := pipeline.ScheduleStats(StatsSchedule, queue, logger)
	if err != nil {
		return err
	}
	defer stats.Stop()

	processor := pipeline.NewProcessor(store, blobs, invalidation.New(objects, logger), logger)
	worker := pipeline.NewWorker(sub, processor, logger)
	worker.RedeliveryDelay = cfg.Queue.Backoff

	health.SetServing(true)
	defer health.SetServing(false)

	return worker.Run(ctx)
}
