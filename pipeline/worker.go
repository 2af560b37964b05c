package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

type natsDelivery struct {
	msg   *nats.Msg
	delay time.Duration
}

func (d natsDelivery) Data() []byte { return d.msg.Data }

func (d natsDelivery) Ack() error { return d.msg.Ack() }

func (d natsDelivery) Nak() error {
	if d.delay > 0 {
		return d.msg.NakWithDelay(d.delay)
	}
	return d.msg.Nak()
}

// Worker pulls messages one at a time and hands them to the processor
type Worker struct {
	sub       *nats.Subscription
	processor *Processor
	logger    *slog.Logger
	// FetchWait bounds a single pull so shutdown is noticed.
	FetchWait time.Duration
	// RedeliveryDelay is asked of the broker when a message fails.
	RedeliveryDelay time.Duration
}

func NewWorker(sub *nats.Subscription, processor *Processor, logger *slog.Logger) *Worker {
	return &Worker{
		sub:       sub,
		processor: processor,
		logger:    logger,
		FetchWait: 5 * time.Second,
	}
}

// Run consumes until ctx is done
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("waiting for messages")

	for {
		if ctx.Err() != nil {
			return nil
		}

		msgs, err := w.sub.Fetch(1, nats.MaxWait(w.FetchWait))
		if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
			continue
		} else if err != nil {
			if ctx.Err() != nil || errors.Is(err, nats.ErrConnectionClosed) || errors.Is(err, nats.ErrBadSubscription) {
				return nil
			}
			w.logger.Warn("fetch failed", "error", err)
			if err := sleep(ctx, time.Second); err != nil {
				return nil
			}
			continue
		}

		for _, msg := range msgs {
			if meta, err := msg.Metadata(); err == nil && meta.NumDelivered > 1 {
				w.logger.Info("message redelivered",
					"sequence", meta.Sequence.Stream,
					"delivered", meta.NumDelivered)
			}
			w.processor.Handle(ctx, natsDelivery{msg: msg, delay: w.RedeliveryDelay})
		}
	}
}
