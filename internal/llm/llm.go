// Package llm provides the text-completion service used by the classifier,
// the decomposer and tool-calling agents.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/ShayCichocki/matchday/pkg/models"
)

// Completer is a single-turn text completion service.
// Implementations must be safe for concurrent use. Output is untrusted:
// callers parse it into typed values and fall back when parsing fails.
type Completer interface {
	// Complete sends prompt and returns the model's text. schemaHint, when set,
	// describes the structured output the caller expects.
	Complete(ctx context.Context, prompt, schemaHint string) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, prompt, schemaHint string) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, prompt, schemaHint string) (string, error) {
	return f(ctx, prompt, schemaHint)
}

// Provider names accepted by New.
const (
	ProviderAnthropic = "anthropic"
	ProviderBedrock   = "bedrock"
	ProviderOpenAI    = "openai"
)

// Config selects and configures a backend.
type Config struct {
	Provider  string
	Model     string
	APIKey    string
	BaseURL   string
	AWSRegion string
	// AWSProfile is the optional shared-config profile for Bedrock.
	AWSProfile string
	MaxTokens  int64
	// RatePerSecond limits outbound calls; zero disables limiting.
	RatePerSecond float64
	Burst         int
}

// New builds a Completer for cfg.Provider, wrapped in a rate limiter when configured.
func New(cfg Config) (Completer, error) {
	var (
		c   Completer
		err error
	)
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderAnthropic:
		c, err = NewAnthropic(cfg)
	case ProviderBedrock:
		c, err = NewBedrock(context.Background(), cfg)
	case ProviderOpenAI:
		c, err = NewOpenAI(cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	if cfg.RatePerSecond > 0 {
		c = NewRateLimited(c, cfg.RatePerSecond, cfg.Burst)
	}
	return c, nil
}

// Unavailable is a Completer that always fails with models.ErrModelUnavailable.
// It stands in when no backend could be configured.
type Unavailable struct {
	Reason string
}

// Complete always fails.
func (u Unavailable) Complete(context.Context, string, string) (string, error) {
	if u.Reason == "" {
		return "", models.ErrModelUnavailable
	}
	return "", fmt.Errorf("%w: %s", models.ErrModelUnavailable, u.Reason)
}

// classify maps a backend error onto the shared error taxonomy.
// Status codes come from the provider SDK error types.
func classify(err error, status int) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return models.Transient(err)
	case status == 401 || status == 403 || status == 404:
		return fmt.Errorf("%w: %v", models.ErrModelUnavailable, err)
	case status == 408 || status == 409 || status == 429 || status >= 500:
		return models.Transient(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return models.Transient(err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return models.Transient(err)
	}
	return err
}

// systemPrompt is shared by every backend.
const systemPrompt = "You assist a football team management bot. Answer concisely. " +
	"When a response format is requested, reply with that format only and no commentary."

func withHint(prompt, schemaHint string) string {
	if schemaHint == "" {
		return prompt
	}
	return prompt + "\n\nRespond ONLY with JSON matching: " + schemaHint
}
