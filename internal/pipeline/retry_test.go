package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"docfactory/internal/services"
)

func TestRetryStopsAfterAttempts(t *testing.T) {
	policy := RetryPolicy{Attempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}

	calls := 0
	boom := errors.New("boom")
	err := policy.Do(context.Background(), func(context.Context) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	policy := RetryPolicy{Attempts: 3, InitialBackoff: time.Millisecond}

	calls := 0
	err := policy.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("err = %v, want nil", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryDoesNotRetryFatalErrors(t *testing.T) {
	policy := RetryPolicy{Attempts: 3, InitialBackoff: time.Millisecond}

	calls := 0
	fatal := services.Wrap(services.ErrConfiguration, "detected", "watch", "bad input dir", nil)
	err := policy.Do(context.Background(), func(context.Context) error {
		calls++
		return fatal
	})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("err = %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 for fatal error", calls)
	}
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	policy := RetryPolicy{Attempts: 5, InitialBackoff: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- policy.Do(ctx, func(context.Context) error {
			calls++
			return errors.New("transient")
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Do did not return after cancellation")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryFromConfigDefaults(t *testing.T) {
	policy := RetryPolicy{}
	if err := policy.Do(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatalf("zero-value policy failed: %v", err)
	}
}
