// Package sources implements one SourceAdapter per upstream proxy list
// (spec.md §4.2).
package sources

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy implements the adapter contract's exponential backoff: base
// 0.5s, factor 2^attempt, capped to avoid runaway sleeps on high retry counts.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryPolicy builds a policy from an adapter's retries parameter.
func DefaultRetryPolicy(retries int) RetryPolicy {
	return RetryPolicy{
		MaxRetries: retries,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   30 * time.Second,
	}
}

// CalculateBackoff returns base * 2^attempt with +/-20% jitter, capped at MaxDelay.
func (p RetryPolicy) CalculateBackoff(attempt int) time.Duration {
	backoff := float64(p.BaseDelay) * math.Pow(2, float64(attempt))
	jitter := backoff * (0.8 + 0.4*rand.Float64())
	if jitter > float64(p.MaxDelay) {
		jitter = float64(p.MaxDelay)
	}
	return time.Duration(jitter)
}

// ExecuteWithRetry runs fn up to MaxRetries+1 times, sleeping with backoff
// between attempts. It returns the last error if every attempt fails, or nil
// on the first success; ctx cancellation aborts the wait between attempts.
func ExecuteWithRetry(ctx context.Context, policy RetryPolicy, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt == policy.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(policy.CalculateBackoff(attempt)):
		}
	}
	return lastErr
}
