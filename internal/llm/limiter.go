package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/ShayCichocki/matchday/pkg/models"
)

// RateLimited throttles calls to an underlying Completer with a token bucket.
type RateLimited struct {
	next    Completer
	limiter *rate.Limiter
}

// NewRateLimited wraps next so at most perSecond calls start each second,
// with bursts of up to burst. A burst below one is treated as one.
func NewRateLimited(next Completer, perSecond float64, burst int) *RateLimited {
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Complete waits for a token then delegates. A wait cut short by the context
// deadline is reported as transient.
func (r *RateLimited) Complete(ctx context.Context, prompt, schemaHint string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		if ctx.Err() == context.Canceled {
			return "", ctx.Err()
		}
		return "", models.Transient(fmt.Errorf("rate limiter: %w", err))
	}
	return r.next.Complete(ctx, prompt, schemaHint)
}
