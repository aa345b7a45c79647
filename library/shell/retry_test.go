package shell_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/library-ledger-go/eventstore"
	"github.com/AntonStoeckl/library-ledger-go/library/shell"
	"github.com/AntonStoeckl/library-ledger-go/testutil/logspy"
)

func Test_RetryWithExponentialBackoff_Success_NoRetries(t *testing.T) {
	// arrange
	callCount := 0
	fn := func(_ context.Context) error {
		callCount++
		return nil
	}

	// act
	meta, err := shell.RetryWithExponentialBackoff(context.Background(), fn)

	// assert
	assert.NoError(t, err)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, 1, meta.Attempts)
	assert.Equal(t, time.Duration(0), meta.TotalDelay)
	assert.Equal(t, "none", meta.LastErrorType)
	assert.False(t, meta.RetriesExhausted)
}

func Test_RetryWithExponentialBackoff_RetryOnConcurrencyConflict(t *testing.T) {
	// arrange
	callCount := 0
	fn := func(_ context.Context) error {
		callCount++
		if callCount < 3 {
			return eventstore.ErrConcurrencyConflict
		}
		return nil
	}

	// act
	meta, err := shell.RetryWithExponentialBackoff(context.Background(), fn, shell.WithBaseDelay(time.Millisecond))

	// assert
	assert.NoError(t, err)
	assert.Equal(t, 3, callCount)
	assert.Equal(t, 3, meta.Attempts)
	assert.Greater(t, meta.TotalDelay, time.Duration(0))
	assert.Equal(t, "none", meta.LastErrorType)
}

func Test_RetryWithExponentialBackoff_When_ErrorIsNotRetryable(t *testing.T) {
	// arrange
	permanent := errors.New("disk on fire")
	callCount := 0
	fn := func(_ context.Context) error {
		callCount++
		return permanent
	}

	// act
	meta, err := shell.RetryWithExponentialBackoff(context.Background(), fn)

	// assert
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, "other", meta.LastErrorType)
}

func Test_RetryWithExponentialBackoff_When_MaxAttemptsReached(t *testing.T) {
	// setup
	logger, spy := logspy.NewLogger()

	// arrange
	fn := func(_ context.Context) error {
		return eventstore.ErrConcurrencyConflict
	}

	// act
	meta, err := shell.RetryWithExponentialBackoff(
		context.Background(),
		fn,
		shell.WithMaxAttempts(3),
		shell.WithBaseDelay(0),
		shell.WithJitterFactor(0),
		shell.WithRetryLogger(logger),
	)

	// assert
	assert.ErrorIs(t, err, eventstore.ErrConcurrencyConflict)
	assert.Equal(t, 3, meta.Attempts)
	assert.True(t, meta.RetriesExhausted)
	assert.Equal(t, "concurrency_conflict", meta.LastErrorType)
	assert.True(t, spy.HasLog(slog.LevelWarn, "max retry attempts reached"))
}

func Test_RetryWithExponentialBackoff_When_ContextIsCanceledDuringBackoff(t *testing.T) {
	// arrange
	ctx, cancel := context.WithCancel(context.Background())
	fn := func(_ context.Context) error {
		cancel()
		return eventstore.ErrConcurrencyConflict
	}

	// act
	meta, err := shell.RetryWithExponentialBackoff(ctx, fn, shell.WithBaseDelay(time.Second))

	// assert
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, meta.Attempts)
	assert.Equal(t, "context_canceled", meta.LastErrorType)
}

func Test_RetryOptions_When_Invalid(t *testing.T) {
	testCases := []struct {
		name     string
		option   shell.RetryOption
		expected error
	}{
		{name: "max attempts", option: shell.WithMaxAttempts(0), expected: shell.ErrInvalidMaxAttempts},
		{name: "base delay", option: shell.WithBaseDelay(-time.Second), expected: shell.ErrNegativeBaseDelay},
		{name: "jitter", option: shell.WithJitterFactor(1.5), expected: shell.ErrInvalidJitterFactor},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			_, err := shell.RetryWithExponentialBackoff(context.Background(), func(context.Context) error { return nil }, tc.option)

			// assert
			assert.ErrorIs(t, err, tc.expected)
		})
	}
}
