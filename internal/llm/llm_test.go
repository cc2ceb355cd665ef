package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShayCichocki/matchday/pkg/models"
)

func TestClassify(t *testing.T) {
	base := errors.New("boom")
	tests := []struct {
		name          string
		err           error
		status        int
		wantTransient bool
		wantDown      bool
	}{
		{"nil", nil, 0, false, false},
		{"plain", base, 0, false, false},
		{"deadline", context.DeadlineExceeded, 0, true, false},
		{"canceled", context.Canceled, 0, false, false},
		{"rate limited", base, 429, true, false},
		{"server error", base, 503, true, false},
		{"unauthorized", base, 401, false, true},
		{"bad request", base, 400, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err, tt.status)
			assert.Equal(t, tt.wantTransient, models.IsTransient(got))
			assert.Equal(t, tt.wantDown, errors.Is(got, models.ErrModelUnavailable))
		})
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(Config{Provider: "carrier-pigeon"})
	assert.Error(t, err)
}

func TestNew_AnthropicMissingKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	_, err := New(Config{Provider: ProviderAnthropic})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY")
}

func TestNew_OpenAIMissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := New(Config{Provider: ProviderOpenAI})
	assert.Error(t, err)
}

func TestNew_WrapsLimiter(t *testing.T) {
	c, err := New(Config{Provider: ProviderAnthropic, APIKey: "k", RatePerSecond: 2})
	require.NoError(t, err)
	_, ok := c.(*RateLimited)
	assert.True(t, ok)
}

func TestUnavailable(t *testing.T) {
	_, err := Unavailable{Reason: "no key"}.Complete(context.Background(), "x", "")
	assert.ErrorIs(t, err, models.ErrModelUnavailable)
	assert.Contains(t, err.Error(), "no key")
}

func TestTranslateModelForBedrock(t *testing.T) {
	assert.Equal(t,
		anthropic.Model("us.anthropic.claude-haiku-4-5-20251001-v1:0"),
		translateModelForBedrock(anthropic.ModelClaudeHaiku4_5_20251001))
	assert.Equal(t, anthropic.Model("custom"), translateModelForBedrock("custom"))
	assert.Equal(t, anthropic.Model("us.anthropic.x"), translateModelForBedrock("us.anthropic.x"))
}

func TestWithHint(t *testing.T) {
	assert.Equal(t, "p", withHint("p", ""))
	assert.True(t, strings.HasSuffix(withHint("p", `{"a":1}`), `{"a":1}`))
}

func TestAnthropicCompleter_Complete(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"msg_1","type":"message","role":"assistant","model":"m",
			"content":[{"type":"text","text":"hello "},{"type":"text","text":"there"}],
			"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":2}}`)
	}))
	defer srv.Close()

	c, err := NewAnthropic(Config{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), "say hi", `{"x":"string"}`)
	require.NoError(t, err)
	assert.Equal(t, "hello there", out)
	assert.Contains(t, body, "say hi")

	in, outTok := c.Tracker().Total()
	assert.Equal(t, int64(3), in)
	assert.Equal(t, int64(2), outTok)
}

func TestAnthropicCompleter_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"type":"error","error":{"type":"authentication_error","message":"bad key"}}`)
	}))
	defer srv.Close()

	c, err := NewAnthropic(Config{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "x", "")
	assert.ErrorIs(t, err, models.ErrModelUnavailable)
}

func TestOpenAICompleter_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"m",
			"choices":[{"index":0,"message":{"role":"assistant","content":"hi"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":4,"completion_tokens":1,"total_tokens":5}}`)
	}))
	defer srv.Close()

	c, err := NewOpenAI(Config{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), "x", "")
	require.NoError(t, err)
	assert.Equal(t, "hi", out)
	assert.Equal(t, 1, c.Tracker().Calls())
}

func TestRateLimited_Delegates(t *testing.T) {
	var calls atomic.Int32
	next := CompleterFunc(func(ctx context.Context, prompt, hint string) (string, error) {
		calls.Add(1)
		return "ok:" + prompt, nil
	})
	r := NewRateLimited(next, 1000, 0)

	out, err := r.Complete(context.Background(), "a", "")
	require.NoError(t, err)
	assert.Equal(t, "ok:a", out)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRateLimited_DeadlineIsTransient(t *testing.T) {
	next := CompleterFunc(func(ctx context.Context, prompt, hint string) (string, error) {
		return "ok", nil
	})
	r := NewRateLimited(next, 0.001, 1)

	_, err := r.Complete(context.Background(), "first", "")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = r.Complete(ctx, "second", "")
	require.Error(t, err)
	assert.True(t, models.IsTransient(err))
}

func TestRateLimited_CancelledIsNotTransient(t *testing.T) {
	next := CompleterFunc(func(ctx context.Context, prompt, hint string) (string, error) {
		return "ok", nil
	})
	r := NewRateLimited(next, 0.001, 1)
	_, _ = r.Complete(context.Background(), "drain", "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Complete(ctx, "x", "")
	require.Error(t, err)
	assert.False(t, models.IsTransient(err))
}
