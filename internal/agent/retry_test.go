package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ShayCichocki/matchday/pkg/models"
)

func TestRetryDecision_String(t *testing.T) {
	assert.Equal(t, "retry", Retry.String())
	assert.Equal(t, "abort", Abort.String())
	assert.Equal(t, "unknown", RetryDecision(9).String())
}

func TestRetryPolicy_Decide(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3}
	transient := models.Transient(errors.New("timeout"))

	tests := []struct {
		name    string
		err     error
		attempt int
		want    RetryDecision
	}{
		{"nil error", nil, 1, Abort},
		{"permanent", errors.New("bad input"), 1, Abort},
		{"transient first", transient, 1, Retry},
		{"transient second", transient, 2, Retry},
		{"transient exhausted", transient, 3, Abort},
		{"cancelled", models.Transient(context.Canceled), 1, Abort},
		{"marked permanent", Permanent(transient), 1, Abort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Decide(tt.err, tt.attempt))
		})
	}

	assert.Equal(t, Abort, RetryPolicy{}.Decide(transient, 1))
}

func TestPermanent(t *testing.T) {
	assert.NoError(t, Permanent(nil))

	cause := models.Transient(models.ErrModelUnavailable)
	err := Permanent(cause)
	assert.ErrorIs(t, err, models.ErrModelUnavailable)
	assert.True(t, models.IsTransient(err))
	assert.Equal(t, cause.Error(), err.Error())
}

func TestRetryPolicy_Backoff(t *testing.T) {
	p := RetryPolicy{BaseBackoff: 100 * time.Millisecond, MaxBackoff: 300 * time.Millisecond}
	assert.Equal(t, 100*time.Millisecond, p.Backoff(1))
	assert.Equal(t, 200*time.Millisecond, p.Backoff(2))
	assert.Equal(t, 300*time.Millisecond, p.Backoff(3))
	assert.Equal(t, 300*time.Millisecond, p.Backoff(10))
	assert.Equal(t, time.Duration(0), RetryPolicy{}.Backoff(3))
}

func TestRetryPolicy_Run(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, BaseBackoff: time.Millisecond}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		attempts, err := p.Run(context.Background(), func(n int) error {
			if n < 3 {
				return models.Transient(errors.New("flaky"))
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("permanent error stops", func(t *testing.T) {
		attempts, err := p.Run(context.Background(), func(int) error { return errors.New("nope") })
		assert.EqualError(t, err, "nope")
		assert.Equal(t, 1, attempts)
	})

	t.Run("cancel during backoff", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		slow := RetryPolicy{MaxAttempts: 5, BaseBackoff: time.Hour}
		attempts, err := slow.Run(ctx, func(int) error {
			cancel()
			return models.Transient(errors.New("flaky"))
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, attempts)
	})
}
