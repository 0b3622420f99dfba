// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package datahugger

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// retryPolicy is an exponential backoff with jitter, grounded on the
// teacher's pkg/hfdownloader/utils.go backoff type but generalized to a
// stateless value so the Crawl and Download Engines can share one policy
// across arbitrarily many concurrent operations.
type retryPolicy struct {
	maxAttempts int
	base        time.Duration
	factor      float64
	jitter      float64
}

func defaultRetryPolicy() retryPolicy {
	return retryPolicy{maxAttempts: 3, base: 500 * time.Millisecond, factor: 2, jitter: 0.25}
}

// delay returns the wait before retry attempt n (0-indexed), exponential in
// n with +/-jitter fraction of randomness.
func (p retryPolicy) delay(n int) time.Duration {
	d := float64(p.base) * math.Pow(p.factor, float64(n))
	spread := d * p.jitter
	d += (rand.Float64()*2 - 1) * spread
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}

// sleepCtx blocks for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// withRetry runs fn up to policy.maxAttempts+1 times, retrying only when the
// returned error is IsRetryable. onRetry, if non-nil, is called before each
// sleep with the 1-indexed attempt number just consumed.
func withRetry(ctx context.Context, policy retryPolicy, onRetry func(attempt int, err error), fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= policy.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == policy.maxAttempts {
			break
		}
		if onRetry != nil {
			onRetry(attempt+1, lastErr)
		}
		if err := sleepCtx(ctx, policy.delay(attempt)); err != nil {
			return err
		}
	}
	return lastErr
}
