// Package pipeline moves image decoding out of the post creation path.
//
// The API publishes {post_id, image_base64_data} on a durable JetStream
// stream and returns at once. The worker pulls one message at a time,
// stores the decoded image, patches the post and acknowledges only then,
// so a crash before the ack redelivers the message.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Gravitalia/socialbook/config"
	"github.com/Gravitalia/socialbook/helpers"
	"github.com/Gravitalia/socialbook/model"
)

// Options configures the stream and its consumer
type Options struct {
	URL string
	// Stream stores every message published on Subject.
	Stream  string
	Subject string
	Durable string
	AckWait time.Duration
	// MaxDeliver of -1 redelivers forever.
	MaxDeliver int
	// Backoff is the connection retry step and the redelivery delay after a failure.
	Backoff    time.Duration
	MaxRetries int
}

// DefaultOptions mirrors the defaults of the configuration
func DefaultOptions() Options {
	return Options{
		URL:        nats.DefaultURL,
		Stream:     "IMAGES",
		Subject:    "image_processing_queue",
		Durable:    "image-worker",
		AckWait:    30 * time.Second,
		MaxDeliver: -1,
		Backoff:    5 * time.Second,
	}
}

// OptionsFrom reads the queue section of the configuration
func OptionsFrom(cfg *config.Config) Options {
	return Options{
		URL:        cfg.Queue.URL,
		Stream:     cfg.Queue.Stream,
		Subject:    cfg.Queue.Name,
		Durable:    cfg.Queue.Durable,
		AckWait:    cfg.Queue.AckWait,
		MaxDeliver: cfg.Queue.MaxDeliver,
		Backoff:    cfg.Queue.Backoff,
		MaxRetries: cfg.Queue.MaxRetries,
	}
}

// Queue is the durable image queue
type Queue struct {
	conn   *nats.Conn
	js     nats.JetStreamContext
	opts   Options
	logger *slog.Logger
}

// Dial connects to the broker with linear backoff and declares the stream
func Dial(ctx context.Context, opts Options, logger *slog.Logger) (*Queue, error) {
	conn, err := Retry(ctx, logger, Backoff{Step: opts.Backoff, MaxRetries: opts.MaxRetries}, func() (*nats.Conn, error) {
		return nats.Connect(opts.URL,
			nats.MaxReconnects(-1),
			nats.ReconnectWait(time.Second),
			nats.PingInterval(20*time.Second),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("connect broker: %w", err)
	}

	q, err := NewQueue(conn, opts, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return q, nil
}

// NewQueue declares the stream on an open connection
func NewQueue(conn *nats.Conn, opts Options, logger *slog.Logger) (*Queue, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("open jetstream: %w", err)
	}

	q := &Queue{conn: conn, js: js, opts: opts, logger: logger}
	if err := q.ensureStream(); err != nil {
		return nil, err
	}
	return q, nil
}

func (q *Queue) ensureStream() error {
	cfg := &nats.StreamConfig{
		Name:     q.opts.Stream,
		Subjects: []string{q.opts.Subject},
		Storage:  nats.FileStorage,
		Replicas: 1,
	}

	_, err := q.js.StreamInfo(q.opts.Stream)
	if errors.Is(err, nats.ErrStreamNotFound) {
		if _, err := q.js.AddStream(cfg); err != nil {
			return fmt.Errorf("create stream: %w", err)
		}
		return nil
	} else if err != nil {
		return fmt.Errorf("read stream: %w", err)
	}

	if _, err := q.js.UpdateStream(cfg); err != nil {
		return fmt.Errorf("update stream: %w", err)
	}
	return nil
}

// Publish stores the message on the stream and waits for the broker's ack
func (q *Queue) Publish(ctx context.Context, msg model.ImageMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	_, err = q.js.Publish(q.opts.Subject, data, nats.Context(ctx))
	helpers.ObservePublish(err)
	if err != nil {
		return fmt.Errorf("%w: publish %s: %v", model.ErrUnavailable, q.opts.Subject, err)
	}
	return nil
}

// Subscribe binds the durable pull consumer of the worker
func (q *Queue) Subscribe() (*nats.Subscription, error) {
	return q.js.PullSubscribe(q.opts.Subject, q.opts.Durable,
		nats.BindStream(q.opts.Stream),
		nats.AckExplicit(),
		nats.AckWait(q.opts.AckWait),
		nats.MaxDeliver(q.opts.MaxDeliver),
	)
}

// Pending returns the messages not yet acknowledged by the durable consumer
func (q *Queue) Pending() (uint64, error) {
	info, err := q.js.ConsumerInfo(q.opts.Stream, q.opts.Durable)
	if err != nil {
		return 0, err
	}
	return info.NumPending + uint64(info.NumAckPending), nil
}

// Connected reports whether the broker connection is up
func (q *Queue) Connected() bool {
	return q.conn.IsConnected()
}

func (q *Queue) Close() {
	if err := q.conn.Drain(); err != nil {
		q.conn.Close()
	}
}
