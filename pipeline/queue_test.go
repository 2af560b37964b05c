package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gravitalia/socialbook/config"
	"github.com/Gravitalia/socialbook/helpers"
	"github.com/Gravitalia/socialbook/model"
)

// runBroker starts an embedded JetStream server
func runBroker(t *testing.T) *server.Server {
	t.Helper()

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
	if !ns.ReadyForConnections(10 * time.Second) {
		t.Fatal("nats server not ready")
	}
	t.Cleanup(ns.Shutdown)

	return ns
}

func testOptions(url string) Options {
	opts := DefaultOptions()
	opts.URL = url
	opts.AckWait = 2 * time.Second
	opts.Backoff = 10 * time.Millisecond
	opts.MaxRetries = 3
	return opts
}

func TestQueue_PublishSubscribe(t *testing.T) {
	ns := runBroker(t)
	ctx := context.Background()

	q, err := Dial(ctx, testOptions(ns.ClientURL()), helpers.DiscardLogger())
	require.NoError(t, err)
	t.Cleanup(q.Close)
	assert.True(t, q.Connected())

	sub, err := q.Subscribe()
	require.NoError(t, err)

	require.NoError(t, q.Publish(ctx, model.ImageMessage{PostID: "p1", ImageBase64Data: "data:image/png;base64,aGk="}))

	pending, err := q.Pending()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), pending)

	msgs, err := sub.Fetch(1, nats.MaxWait(2*time.Second))
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.JSONEq(t, `{"post_id":"p1","image_base64_data":"data:image/png;base64,aGk="}`, string(msgs[0].Data))
	require.NoError(t, msgs[0].AckSync())

	pending, err = q.Pending()
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestQueue_SurvivesRedeclare(t *testing.T) {
	ns := runBroker(t)
	ctx := context.Background()
	opts := testOptions(ns.ClientURL())

	first, err := Dial(ctx, opts, helpers.DiscardLogger())
	require.NoError(t, err)
	require.NoError(t, first.Publish(ctx, model.ImageMessage{PostID: "p1", ImageBase64Data: "x"}))
	first.Close()

	second, err := Dial(ctx, opts, helpers.DiscardLogger())
	require.NoError(t, err)
	t.Cleanup(second.Close)

	info, err := second.js.StreamInfo(opts.Stream)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), info.State.Msgs, "messages are kept across producers")
	assert.Equal(t, nats.FileStorage, info.Config.Storage)
}

func TestOptionsFrom(t *testing.T) {
	cfg := config.Default()
	cfg.Queue.MaxRetries = 3

	opts := OptionsFrom(cfg)
	assert.Equal(t, "image_processing_queue", opts.Subject)
	assert.Equal(t, -1, opts.MaxDeliver)
	assert.Equal(t, 3, opts.MaxRetries)
	assert.Equal(t, DefaultOptions().Durable, opts.Durable)
}

func TestDial_Unreachable(t *testing.T) {
	opts := testOptions("nats://127.0.0.1:1")
	_, err := Dial(context.Background(), opts, helpers.DiscardLogger())
	assert.Error(t, err)
}

func TestWorker_RedeliversUntilFixed(t *testing.T) {
	ns := runBroker(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := setup(t, nil)
	q, err := Dial(ctx, testOptions(ns.ClientURL()), helpers.DiscardLogger())
	require.NoError(t, err)
	t.Cleanup(q.Close)

	sub, err := q.Subscribe()
	require.NoError(t, err)

	w := NewWorker(sub, f.processor, helpers.DiscardLogger())
	w.FetchWait = 100 * time.Millisecond
	w.RedeliveryDelay = 50 * time.Millisecond
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, q.Publish(ctx, model.ImageMessage{PostID: f.post.ID, ImageBase64Data: "no marker here"}))

	require.Eventually(t, func() bool {
		info, err := q.js.ConsumerInfo(q.opts.Stream, q.opts.Durable)
		return err == nil && info.NumRedelivered > 0
	}, 5*time.Second, 20*time.Millisecond, "an unacknowledged message is redelivered")

	post, err := f.store.GetPost(ctx, f.post.ID)
	require.NoError(t, err)
	assert.False(t, post.HasImage())

	require.NoError(t, q.Publish(ctx, model.ImageMessage{PostID: f.post.ID, ImageBase64Data: dataURL("png")}))

	require.Eventually(t, func() bool {
		post, err := f.store.GetPost(ctx, f.post.ID)
		return err == nil && post.HasImage()
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
}
