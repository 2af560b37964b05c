package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gravitalia/socialbook/helpers"
)

func TestRetry_LinearBackoff(t *testing.T) {
	var waits []time.Duration
	b := Backoff{
		Step: 5 * time.Second,
		Sleep: func(_ context.Context, d time.Duration) error {
			waits = append(waits, d)
			return nil
		},
	}

	calls := 0
	got, err := Retry(context.Background(), helpers.DiscardLogger(), b, func() (string, error) {
		calls++
		if calls < 4 {
			return "", errors.New("connection refused")
		}
		return "conn", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "conn", got)
	assert.Equal(t, []time.Duration{5 * time.Second, 10 * time.Second, 15 * time.Second}, waits)
}

func TestRetry_Cap(t *testing.T) {
	calls := 0
	b := Backoff{
		Step:       time.Millisecond,
		MaxRetries: 3,
		Sleep:      func(context.Context, time.Duration) error { return nil },
	}

	_, err := Retry(context.Background(), helpers.DiscardLogger(), b, func() (int, error) {
		calls++
		return 0, errors.New("down")
	})
	assert.EqualError(t, err, "down")
	assert.Equal(t, 3, calls)
}

func TestRetry_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Retry(ctx, helpers.DiscardLogger(), Backoff{Step: time.Hour}, func() (int, error) {
		return 0, errors.New("down")
	})
	assert.ErrorIs(t, err, context.Canceled)
}
