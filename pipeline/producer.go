package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Gravitalia/socialbook/helpers"
	"github.com/Gravitalia/socialbook/model"
)

// Producer publishes through a queue dialed in the background, so the API
// serves while the broker is still down. Until the dial succeeds Publish
// fails with model.ErrUnavailable.
type Producer struct {
	mu    sync.RWMutex
	queue *Queue
	done  chan struct{}
}

// Connect starts dialing with opts and returns at once
func Connect(ctx context.Context, opts Options, logger *slog.Logger) *Producer {
	p := &Producer{done: make(chan struct{})}

	go func() {
		defer close(p.done)

		q, err := Dial(ctx, opts, logger)
		if err != nil {
			logger.Error("image queue unavailable, posts are stored without image", "error", err)
			return
		}

		p.mu.Lock()
		p.queue = q
		p.mu.Unlock()
		logger.Info("image queue connected", "subject", opts.Subject)
	}()

	return p
}

func (p *Producer) current() *Queue {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.queue
}

func (p *Producer) Publish(ctx context.Context, msg model.ImageMessage) error {
	q := p.current()
	if q == nil {
		helpers.ObservePublish(model.ErrUnavailable)
		return fmt.Errorf("image queue not connected: %w", model.ErrUnavailable)
	}
	return q.Publish(ctx, msg)
}

// Connected reports whether the dial has succeeded
func (p *Producer) Connected() bool {
	q := p.current()
	return q != nil && q.Connected()
}

// Close waits for the dial to end, then drains the queue
func (p *Producer) Close() {
	<-p.done
	if q := p.current(); q != nil {
		q.Close()
	}
}
