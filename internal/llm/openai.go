package llm

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/ShayCichocki/matchday/pkg/models"
)

// OpenAICompleter calls the Chat Completions API. BaseURL allows any
// OpenAI-compatible endpoint.
type OpenAICompleter struct {
	inner     openai.Client
	model     string
	maxTokens int64
	tracker   *TokenTracker
}

// NewOpenAI creates a completer. If cfg.APIKey is empty OPENAI_API_KEY is used.
func NewOpenAI(cfg Config) (*OpenAICompleter, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &OpenAICompleter{
		inner:     openai.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
		tracker:   NewTokenTracker(),
	}, nil
}

// Model returns the configured model name.
func (c *OpenAICompleter) Model() string {
	return c.model
}

// Tracker returns the token tracker for this completer.
func (c *OpenAICompleter) Tracker() *TokenTracker {
	return c.tracker
}

// Complete sends one system and one user message and returns the first choice.
func (c *OpenAICompleter) Complete(ctx context.Context, prompt, schemaHint string) (string, error) {
	resp, err := c.inner.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(withHint(prompt, schemaHint)),
		},
		MaxCompletionTokens: openai.Int(c.maxTokens),
	})
	if err != nil {
		status := 0
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			status = apiErr.StatusCode
		}
		return "", classify(fmt.Errorf("openai completion: %w", err), status)
	}

	c.tracker.Add(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	if len(resp.Choices) == 0 {
		return "", models.Transient(errors.New("openai completion returned no choices"))
	}
	return resp.Choices[0].Message.Content, nil
}
