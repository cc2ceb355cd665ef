package agent

import (
	"context"
	"errors"
	"time"

	"github.com/ShayCichocki/matchday/pkg/models"
)

// RetryDecision is the outcome of evaluating a failed attempt.
type RetryDecision int

const (
	// Retry indicates the attempt should be repeated after a backoff.
	Retry RetryDecision = iota
	// Abort indicates the failure is final.
	Abort
)

// String returns a human-readable representation of the retry decision.
func (d RetryDecision) String() string {
	switch d {
	case Retry:
		return "retry"
	case Abort:
		return "abort"
	default:
		return "unknown"
	}
}

// permanentError stops retries even when the wrapped error is transient.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as final. The error chain is kept for errors.Is.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// RetryPolicy bounds how transient agent failures are retried.
type RetryPolicy struct {
	// MaxAttempts counts the first attempt. Values below 1 mean 1.
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// DefaultRetryPolicy returns three attempts with exponential backoff from 200ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseBackoff: 200 * time.Millisecond,
		MaxBackoff:  2 * time.Second,
	}
}

func (p RetryPolicy) maxAttempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Decide evaluates the error from the given 1-indexed attempt.
// Only transient errors are retried, and never after cancellation.
func (p RetryPolicy) Decide(err error, attempt int) RetryDecision {
	if err == nil || !models.IsTransient(err) {
		return Abort
	}
	var pe *permanentError
	if errors.As(err, &pe) {
		return Abort
	}
	if errors.Is(err, context.Canceled) {
		return Abort
	}
	if attempt >= p.maxAttempts() {
		return Abort
	}
	return Retry
}

// Backoff returns the wait before the attempt after the given one.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if p.BaseBackoff <= 0 {
		return 0
	}
	d := p.BaseBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxBackoff > 0 && d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}

// Run calls fn until it succeeds, fails permanently, or attempts run out.
// It returns the number of attempts made and the last error. Waiting between
// attempts stops early when ctx is done.
func (p RetryPolicy) Run(ctx context.Context, fn func(attempt int) error) (int, error) {
	attempt := 0
	for {
		attempt++
		err := fn(attempt)
		if err == nil {
			return attempt, nil
		}
		if p.Decide(err, attempt) == Abort {
			return attempt, err
		}

		timer := time.NewTimer(p.Backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt, ctx.Err()
		case <-timer.C:
		}
	}
}
