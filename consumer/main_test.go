package main

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gravitalia/socialbook/config"
	"github.com/Gravitalia/socialbook/helpers"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Store.Driver = "memory"
	cfg.Cache.Driver = "local"
	cfg.Storage.Directory = t.TempDir()
	cfg.Server.HealthPort = "0"
	cfg.Server.MetricsPort = "0"
	cfg.Queue.Backoff = 10 * time.Millisecond
	cfg.Queue.MaxRetries = 2
	return cfg
}

func TestRun_StopsOnCancel(t *testing.T) {
	ns, err := server.NewServer(&server.Options{
		Host:      "127.0.0.1",
		Port:      -1,
		JetStream: true,
		StoreDir:  t.TempDir(),
		NoLog:     true,
		NoSigs:    true,
	})
	require.NoError(t, err)
	go ns.Start()
	require.True(t, ns.ReadyForConnections(10*time.Second))
	t.Cleanup(ns.Shutdown)

	cfg := testConfig(t)
	cfg.Queue.URL = ns.ClientURL()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	assert.NoError(t, run(ctx, cfg, helpers.DiscardLogger()))
}

func TestRun_BrokerDown(t *testing.T) {
	cfg := testConfig(t)
	cfg.Queue.URL = "nats://127.0.0.1:1"

	err := run(context.Background(), cfg, helpers.DiscardLogger())
	assert.ErrorContains(t, err, "connect broker")
}

func TestRun_UnknownStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Driver = "sqlite"

	err := run(context.Background(), cfg, helpers.DiscardLogger())
	assert.ErrorContains(t, err, "unknown store driver")
}
