package orchestrator

import (
	"github.com/rs/zerolog"

	"github.com/ShayCichocki/matchday/internal/agent"
)

// Option configures an Orchestrator. Use With* functions to create Options.
type Option func(*Orchestrator)

// WithRetryPolicy sets how transient agent failures are retried.
func WithRetryPolicy(p agent.RetryPolicy) Option {
	return func(o *Orchestrator) { o.retry = p }
}

// WithLogger sets the orchestrator logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// WithTransitionHook registers a callback for every status change.
// The hook runs on the scheduling goroutine and must not block.
func WithTransitionHook(fn func(Transition)) Option {
	return func(o *Orchestrator) { o.onTransition = fn }
}

// WithFallbackText sets the text that replaces a blocked answer.
func WithFallbackText(s string) Option {
	return func(o *Orchestrator) {
		if s != "" {
			o.fallback = s
		}
	}
}

// WithPartialNote sets the note appended when some subtasks failed.
func WithPartialNote(s string) Option {
	return func(o *Orchestrator) {
		if s != "" {
			o.partialNote = s
		}
	}
}
