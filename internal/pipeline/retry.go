package pipeline

import (
	"context"
	"time"

	"docfactory/internal/config"
	"docfactory/internal/services"
)

// RetryPolicy bounds how often a transient operation is reattempted. Backoff
// doubles per attempt up to MaxBackoff.
type RetryPolicy struct {
	Attempts       int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// RetryFromConfig builds the policy from configuration.
func RetryFromConfig(cfg *config.Config) RetryPolicy {
	policy := RetryPolicy{
		Attempts:       cfg.Retry.Attempts,
		InitialBackoff: time.Duration(cfg.Retry.InitialBackoffMS) * time.Millisecond,
		MaxBackoff:     time.Duration(cfg.Retry.MaxBackoffMS) * time.Millisecond,
	}
	if policy.Attempts <= 0 {
		policy.Attempts = 1
	}
	if policy.InitialBackoff <= 0 {
		policy.InitialBackoff = 500 * time.Millisecond
	}
	if policy.MaxBackoff < policy.InitialBackoff {
		policy.MaxBackoff = policy.InitialBackoff
	}
	return policy
}

// Do runs op up to Attempts times. Fatal errors and context cancellation
// stop retrying immediately; the last error is returned when all attempts
// are exhausted.
func (p RetryPolicy) Do(ctx context.Context, op func(context.Context) error) error {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	backoff := p.InitialBackoff
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if services.IsFatal(lastErr) || attempt == attempts {
			return lastErr
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
			backoff = p.MaxBackoff
		}
	}
	return lastErr
}
