package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"ripwatch/internal/retry"
	"ripwatch/internal/services"
)

func transientErr() error {
	return services.Wrap(services.ErrTransient, "test", "op", "flaky", nil)
}

func TestRunSucceedsAfterRetryableFailures(t *testing.T) {
	calls := 0
	outcome := retry.Run(context.Background(), nil, retry.Policy{MaxAttempts: 3, Delay: time.Millisecond}, func(ctx context.Context, attempt int) error {
		calls++
		if calls <= 2 {
			return transientErr()
		}
		return nil
	})

	if !outcome.Success() {
		t.Fatalf("outcome = %v, want success", outcome.Err)
	}
	if outcome.AttemptCount() != 3 {
		t.Errorf("attempts = %d, want 3", outcome.AttemptCount())
	}
	for i, attempt := range outcome.Attempts {
		if attempt.Number != i+1 {
			t.Errorf("attempt[%d].Number = %d", i, attempt.Number)
		}
	}
	if outcome.Attempts[0].Err == nil || outcome.Attempts[2].Err != nil {
		t.Error("attempt records should carry per-attempt errors")
	}
}

func TestRunExhaustsBudget(t *testing.T) {
	calls := 0
	outcome := retry.Run(context.Background(), nil, retry.Policy{MaxAttempts: 3, Delay: 0}, func(ctx context.Context, attempt int) error {
		calls++
		return transientErr()
	})

	if calls != 3 {
		t.Fatalf("calls = %d, want exactly 3", calls)
	}
	if !errors.Is(outcome.Err, retry.ErrExhausted) {
		t.Fatalf("err = %v, want ErrExhausted", outcome.Err)
	}
	if !errors.Is(outcome.Err, services.ErrTransient) {
		t.Errorf("exhausted error should unwrap to the last failure: %v", outcome.Err)
	}
	var exhausted *retry.ExhaustedError
	if !errors.As(outcome.Err, &exhausted) || exhausted.Attempts != 3 {
		t.Errorf("exhausted detail = %+v", exhausted)
	}
}

func TestRunFatalFailureShortCircuits(t *testing.T) {
	fatal := services.Wrap(services.ErrUnreadableMedia, "test", "op", "bad disc", nil)
	calls := 0
	outcome := retry.Run(context.Background(), nil, retry.Policy{MaxAttempts: 5, Delay: 0}, func(ctx context.Context, attempt int) error {
		calls++
		return fatal
	})

	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if !errors.Is(outcome.Err, services.ErrUnreadableMedia) {
		t.Errorf("err = %v", outcome.Err)
	}
	if errors.Is(outcome.Err, retry.ErrExhausted) {
		t.Error("fatal failure should not report exhaustion")
	}
}

func TestRunStopsOnCancelledOperation(t *testing.T) {
	calls := 0
	outcome := retry.Run(context.Background(), nil, retry.Policy{MaxAttempts: 5, Delay: 0}, func(ctx context.Context, attempt int) error {
		calls++
		return services.Wrap(services.ErrCancelled, "test", "op", "stopped", nil)
	})

	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if !services.IsCancelled(outcome.Err) {
		t.Errorf("err = %v, want cancellation", outcome.Err)
	}
}

func TestRunStopsWhenContextEndsDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	outcome := retry.Run(ctx, nil, retry.Policy{MaxAttempts: 5, Delay: time.Minute}, func(ctx context.Context, attempt int) error {
		calls++
		cancel()
		return transientErr()
	})

	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (no retry after cancellation)", calls)
	}
	if !services.IsCancelled(outcome.Err) {
		t.Errorf("err = %v, want cancellation", outcome.Err)
	}
}

func TestRunWaitsFixedDelayBetweenAttempts(t *testing.T) {
	const delay = 20 * time.Millisecond
	start := time.Now()
	outcome := retry.Run(context.Background(), nil, retry.Policy{MaxAttempts: 3, Delay: delay}, func(ctx context.Context, attempt int) error {
		return transientErr()
	})
	elapsed := time.Since(start)

	if outcome.AttemptCount() != 3 {
		t.Fatalf("attempts = %d", outcome.AttemptCount())
	}
	if elapsed < 2*delay {
		t.Errorf("elapsed = %v, want at least %v", elapsed, 2*delay)
	}
}

func TestRunNormalisesBrokenPolicy(t *testing.T) {
	calls := 0
	outcome := retry.Run(context.Background(), nil, retry.Policy{MaxAttempts: 0, Delay: -time.Second}, func(ctx context.Context, attempt int) error {
		calls++
		return nil
	})
	if calls != 1 || !outcome.Success() {
		t.Errorf("calls = %d, err = %v", calls, outcome.Err)
	}
}
