package pipeline

import (
	"context"
	"log/slog"
	"time"
)

// Backoff waits Step times the attempt number between attempts.
// A MaxRetries of 0 retries forever.
type Backoff struct {
	Step       time.Duration
	MaxRetries int
	// Sleep waits d or until ctx is done, time based when nil.
	Sleep func(ctx context.Context, d time.Duration) error
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Retry calls connect until it succeeds, the retry cap is hit or ctx is done
func Retry[T any](ctx context.Context, logger *slog.Logger, b Backoff, connect func() (T, error)) (T, error) {
	wait := b.Sleep
	if wait == nil {
		wait = sleep
	}

	for attempt := 1; ; attempt++ {
		conn, err := connect()
		if err == nil {
			if attempt > 1 {
				logger.Info("broker connected", "attempts", attempt)
			}
			return conn, nil
		}

		if b.MaxRetries > 0 && attempt >= b.MaxRetries {
			return conn, err
		}

		delay := b.Step * time.Duration(attempt)
		logger.Warn("broker not ready, retrying",
			"attempt", attempt,
			"wait", delay.String(),
			"error", err)
		if err := wait(ctx, delay); err != nil {
			return conn, err
		}
	}
}
