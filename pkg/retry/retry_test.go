package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesRetryableErrors(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return Retryable(errors.New("transient"))
		}
		return nil
	}, WithMaxAttempts(5), WithInitialDelay(time.Millisecond))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnPermanentError(t *testing.T) {
	permanent := errors.New("bad credentials")

	calls := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return Permanent(permanent)
	}, WithMaxAttempts(5), WithInitialDelay(time.Millisecond))

	assert.Equal(t, permanent, err)
	assert.Equal(t, 1, calls)
}

func TestDo_NonRetryableErrorReturnsImmediately(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.New("plain error")
	}, WithMaxAttempts(5), WithInitialDelay(time.Millisecond))

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	transient := errors.New("still down")

	calls := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return Retryable(transient)
	}, WithMaxAttempts(3), WithInitialDelay(time.Millisecond))

	assert.Equal(t, transient, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := Do(ctx, func(ctx context.Context) error {
		calls++
		cancel()
		return Retryable(errors.New("transient"))
	}, WithMaxAttempts(10), WithInitialDelay(time.Hour))

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetryIf(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("plain but retried anyway")
		}
		return nil
	}, WithMaxAttempts(3), WithInitialDelay(time.Millisecond), WithRetryIf(func(error) bool { return true }))

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestWithOnRetry(t *testing.T) {
	attempts := []int{}
	_ = Do(context.Background(), func(ctx context.Context) error {
		return Retryable(errors.New("transient"))
	},
		WithMaxAttempts(3),
		WithInitialDelay(time.Millisecond),
		WithOnRetry(func(attempt int, err error, delay time.Duration) {
			attempts = append(attempts, attempt)
		}),
	)

	// Последняя попытка не планирует retry и не вызывает callback
	assert.Equal(t, []int{1, 2}, attempts)
}

func TestIsRetryableIsPermanent(t *testing.T) {
	base := errors.New("base")

	assert.True(t, IsRetryable(Retryable(base)))
	assert.False(t, IsRetryable(base))
	assert.True(t, IsPermanent(Permanent(base)))
	assert.False(t, IsPermanent(base))

	assert.ErrorIs(t, Retryable(base), base)
	assert.ErrorIs(t, Permanent(base), base)

	assert.Nil(t, Retryable(nil))
	assert.Nil(t, Permanent(nil))
}

func TestCalculateDelay_RespectsMaxDelay(t *testing.T) {
	r := New(
		WithInitialDelay(100*time.Millisecond),
		WithMaxDelay(200*time.Millisecond),
	)

	for attempt := 1; attempt <= 10; attempt++ {
		delay := r.calculateDelay(attempt)
		// Джиттер 10% может добавить сверх потолка не больше его десятой части
		assert.LessOrEqual(t, delay, 220*time.Millisecond)
	}
}
