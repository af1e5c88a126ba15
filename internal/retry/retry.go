// Package retry implements the single retry-policy object called for by
// spec.md §9 ("Retry-policy duplication → one policy object"). It
// generalizes the exponential-backoff-with-rate-limit-doubling shape the
// teacher hand-rolls separately in its LLM client, store-create path, and
// verifier into one reusable type used by internal/llmclient,
// internal/storeclient, and internal/archive alike.
package retry

import (
	"context"
	"errors"
	"time"
)

// Classification tells the policy what to do with a given attempt's error.
type Classification int

const (
	// ClassifyRetry retries with the policy's standard backoff.
	ClassifyRetry Classification = iota
	// ClassifyRateLimited retries with the backoff doubled (spec §4.8).
	ClassifyRateLimited
	// ClassifyFatal surfaces the error immediately without retrying.
	ClassifyFatal
)

// Policy parameterizes {max_attempts, base_delay, rate_limit_multiplier,
// classify} exactly as spec.md §9 describes.
type Policy struct {
	MaxAttempts         int
	BaseDelay           time.Duration
	RateLimitMultiplier float64
	Classify            func(err error) Classification
	// Sleeper overrides time.Sleep-style waiting; used by tests.
	Sleeper func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy mirrors spec.md §4.8 defaults: 3 attempts, 2s base delay,
// rate-limited attempts wait 2x the normal backoff.
func DefaultPolicy(classify func(error) Classification) Policy {
	return Policy{
		MaxAttempts:         3,
		BaseDelay:           2 * time.Second,
		RateLimitMultiplier: 2,
		Classify:            classify,
	}
}

// Do runs fn up to MaxAttempts times, applying the configured backoff
// between attempts according to how Classify labels each error. It returns
// the last error if every attempt is exhausted, or immediately on a fatal
// classification.
func (p Policy) Do(ctx context.Context, fn func(attempt int) error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	classify := p.Classify
	if classify == nil {
		classify = func(error) Classification { return ClassifyRetry }
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctx != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		err := fn(attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		kind := classify(err)
		if kind == ClassifyFatal || attempt == maxAttempts {
			return err
		}

		delay := p.backoff(attempt, kind == ClassifyRateLimited)
		if sleepErr := p.sleep(ctx, delay); sleepErr != nil {
			return sleepErr
		}
	}
	return lastErr
}

func (p Policy) backoff(attempt int, rateLimited bool) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
	}
	if rateLimited {
		mult := p.RateLimitMultiplier
		if mult <= 0 {
			mult = 2
		}
		delay = time.Duration(float64(delay) * mult)
	}
	return delay
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	if p.Sleeper != nil {
		return p.Sleeper(ctx, d)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ErrAttemptsExhausted is returned by callers that want a sentinel instead of
// propagating the last underlying error.
var ErrAttemptsExhausted = errors.New("retry: attempts exhausted")
