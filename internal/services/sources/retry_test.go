package sources

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateBackoff_GrowsExponentiallyWithinCap(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 5, BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second}

	d0 := policy.CalculateBackoff(0)
	d3 := policy.CalculateBackoff(3)

	assert.Greater(t, d3, d0)
	assert.LessOrEqual(t, d3, policy.MaxDelay)
}

func TestCalculateBackoff_CapsAtMaxDelay(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 20, BaseDelay: time.Second, MaxDelay: 2 * time.Second}

	backoff := policy.CalculateBackoff(10)
	assert.LessOrEqual(t, backoff, policy.MaxDelay)
}

func TestExecuteWithRetry_SucceedsFirstTryWithoutSleeping(t *testing.T) {
	policy := DefaultRetryPolicy(3)
	calls := 0

	start := time.Now()
	err := ExecuteWithRetry(context.Background(), policy, func() error {
		calls++
		return nil
	})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Less(t, elapsed, 100*time.Millisecond)
}

func TestExecuteWithRetry_RetriesThenSucceeds(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
	calls := 0

	err := ExecuteWithRetry(context.Background(), policy, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestExecuteWithRetry_ExhaustsRetriesAndReturnsLastError(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
	calls := 0
	sentinel := errors.New("always fails")

	err := ExecuteWithRetry(context.Background(), policy, func() error {
		calls++
		return sentinel
	})

	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 3, calls) // one initial attempt + MaxRetries retries
}

func TestExecuteWithRetry_AbortsOnContextCancellation(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 5, BaseDelay: time.Second, MaxDelay: time.Second}
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	errCh := make(chan error, 1)
	go func() {
		errCh <- ExecuteWithRetry(ctx, policy, func() error {
			calls++
			return errors.New("transient")
		})
	}()

	cancel()
	err := <-errCh
	assert.ErrorIs(t, err, context.Canceled)
}
