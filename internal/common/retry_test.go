package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ratewise/ratewise/internal/service"
)

func fastRetry(attempts int) service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestWithRetry(t *testing.T) {
	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			if calls < 3 {
				return NewError(ErrCompletionTransport, "complete", errors.New("502"))
			}
			return nil
		}, fastRetry(3))

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("non-retryable error returned immediately", func(t *testing.T) {
		calls := 0
		want := NewError(ErrResponseParse, "parse", errors.New("bad json"))
		err := WithRetry(context.Background(), func() error {
			calls++
			return want
		}, fastRetry(5))

		assert.Same(t, want, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("exhausts attempts", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			return NewError(ErrDataAccess, "retrieve", errors.New("timeout"))
		}, fastRetry(3))

		require.Error(t, err)
		assert.Equal(t, 3, calls)
		assert.ErrorIs(t, err, ErrMaxRetries)
		assert.ErrorIs(t, err, ErrDataAccess)
		assert.Contains(t, err.Error(), "after 3 attempts")
	})

	t.Run("context canceled between attempts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := WithRetry(ctx, func() error {
			calls++
			cancel()
			return NewError(ErrCompletionTransport, "complete", errors.New("reset"))
		}, service.RetryOptions{MaxAttempts: 3, InitialDelay: time.Second})

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})

	t.Run("defaults applied", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			return nil
		}, service.RetryOptions{})

		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})
}
