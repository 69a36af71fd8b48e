package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ripwatch/internal/logging"
	"ripwatch/internal/services"
)

// ErrExhausted marks outcomes that used every attempt without success.
var ErrExhausted = errors.New("all retry attempts failed")

// ExhaustedError carries the last failure out of an exhausted run.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all %d attempts failed: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

func (e *ExhaustedError) Is(target error) bool { return target == ErrExhausted }

// Attempt is the audit record of a single try.
type Attempt struct {
	Number    int
	StartedAt time.Time
	Duration  time.Duration
	Err       error
}

// Outcome summarises a supervised run. Err is nil on success, the
// fatal or cancellation error when the run short-circuited, or an
// *ExhaustedError when the attempt budget ran out.
type Outcome struct {
	Err      error
	Attempts []Attempt
}

// Success reports whether any attempt succeeded.
func (o Outcome) Success() bool { return o.Err == nil }

// AttemptCount is the number of attempts actually made.
func (o Outcome) AttemptCount() int { return len(o.Attempts) }

// Policy bounds a supervised run. MaxAttempts is the total attempt
// budget, not the retry count after the first try. Delay is the fixed
// wait between attempts.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Delay < 0 {
		p.Delay = 0
	}
	return p
}

// Run executes op until it succeeds, fails fatally, or exhausts the
// attempt budget. Retryability follows services.IsRetryable, so
// transient and timeout failures are retried while everything else
// short-circuits with the remaining attempts unused. Cancellation
// stops the loop immediately. Every attempt is recorded in the
// outcome, including the successful one.
func Run(ctx context.Context, logger *slog.Logger, policy Policy, op func(ctx context.Context, attempt int) error) Outcome {
	policy = policy.normalized()
	if logger == nil {
		logger = logging.NewNop()
	}

	var outcome Outcome
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		start := time.Now()
		err := op(ctx, attempt)
		outcome.Attempts = append(outcome.Attempts, Attempt{
			Number:    attempt,
			StartedAt: start,
			Duration:  time.Since(start),
			Err:       err,
		})
		if err == nil {
			if attempt > 1 {
				logger.Info("operation recovered after retry", logging.Int(logging.FieldAttempt, attempt))
			}
			return outcome
		}
		if services.IsCancelled(err) || ctx.Err() != nil {
			outcome.Err = err
			return outcome
		}
		if !services.IsRetryable(err) {
			logger.Warn("operation failed fatally, not retrying",
				logging.Int(logging.FieldAttempt, attempt),
				logging.Error(err),
			)
			outcome.Err = err
			return outcome
		}
		if attempt == policy.MaxAttempts {
			break
		}
		logger.Warn("operation failed, retrying",
			logging.Int(logging.FieldAttempt, attempt),
			logging.Int("attempts_left", policy.MaxAttempts-attempt),
			logging.Duration("delay", policy.Delay),
			logging.Error(err),
		)
		select {
		case <-time.After(policy.Delay):
		case <-ctx.Done():
			outcome.Err = services.Wrap(services.ErrCancelled, "retry", "wait", "retry wait interrupted", ctx.Err())
			return outcome
		}
	}

	last := outcome.Attempts[len(outcome.Attempts)-1].Err
	outcome.Err = &ExhaustedError{Attempts: len(outcome.Attempts), Last: last}
	logger.Error("operation exhausted its attempt budget",
		logging.Int("attempts", len(outcome.Attempts)),
		logging.Error(last),
	)
	return outcome
}
