// Package resilience provides the retry helper the llmclient package uses
// to implement spec.md §4.4's transport retry policy: exponential backoff
// on retryable errors, never on parsing failures.
package resilience

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/lookatitude/policyopt/core"
)

// RetryPolicy configures Retry's attempt count and backoff schedule.
type RetryPolicy struct {
	// MaxAttempts is the maximum number of calls to fn, including the
	// first. Zero is normalized to 3.
	MaxAttempts int

	// InitialBackoff is the delay before the second attempt. Zero is
	// normalized to 500ms.
	InitialBackoff time.Duration

	// MaxBackoff caps the delay between attempts. Zero is normalized to 30s.
	MaxBackoff time.Duration

	// BackoffFactor multiplies the backoff after each attempt. Zero is
	// normalized to 2.0.
	BackoffFactor float64

	// Jitter adds up to +/-25% random jitter to each computed backoff.
	Jitter bool

	// RetryableErrors extends core.IsRetryable with additional error codes
	// that should be treated as retryable by this call.
	RetryableErrors []core.ErrorCode
}

// DefaultRetryPolicy returns the policy used when no overrides are given:
// 3 attempts, 500ms initial backoff, 30s cap, factor 2.0, jitter enabled.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
		BackoffFactor:  2.0,
		Jitter:         true,
	}
}

func (p RetryPolicy) normalize() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = 500 * time.Millisecond
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = 30 * time.Second
	}
	if p.BackoffFactor <= 0 {
		p.BackoffFactor = 2.0
	}
	return p
}

func (p RetryPolicy) isRetryable(err error) bool {
	if core.IsRetryable(err) {
		return true
	}
	if len(p.RetryableErrors) == 0 {
		return false
	}
	var e *core.Error
	for _, code := range p.RetryableErrors {
		if asCode(err, &e) && e.Code == code {
			return true
		}
	}
	return false
}

func asCode(err error, target **core.Error) bool {
	type causer interface{ Unwrap() error }
	for err != nil {
		if e, ok := err.(*core.Error); ok {
			*target = e
			return true
		}
		c, ok := err.(causer)
		if !ok {
			return false
		}
		err = c.Unwrap()
	}
	return false
}

// Retry calls fn up to policy.MaxAttempts times, applying exponential
// backoff between attempts, stopping early on success, on a non-retryable
// error, or when ctx is cancelled. Zero numeric fields are normalized to
// DefaultRetryPolicy's values; Jitter is used as given, so a zero-value
// policy retries without jitter.
func Retry[T any](ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	policy = policy.normalize()

	var zero T
	backoff := policy.InitialBackoff
	var lastErr error

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !policy.isRetryable(err) {
			return zero, err
		}
		if attempt == policy.MaxAttempts {
			break
		}

		wait := backoff
		if policy.Jitter {
			jitter := wait.Seconds() * 0.25 * (rand.Float64()*2 - 1)
			wait = time.Duration((wait.Seconds() + jitter) * float64(time.Second))
			if wait < 0 {
				wait = 0
			}
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(wait):
		}

		backoff = time.Duration(float64(backoff) * policy.BackoffFactor)
		if backoff > policy.MaxBackoff {
			backoff = policy.MaxBackoff
		}
	}

	return zero, lastErr
}
