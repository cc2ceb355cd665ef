package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/ShayCichocki/matchday/internal/llm"
	"github.com/ShayCichocki/matchday/internal/logging"
	"github.com/ShayCichocki/matchday/internal/tools"
	"github.com/ShayCichocki/matchday/pkg/models"
)

// ToolAgent answers a subtask by letting the model pick tools step by step
// until it produces an answer. It can only see tools its invoker allows.
type ToolAgent struct {
	id        string
	completer llm.Completer
	maxSteps  int
	log       zerolog.Logger
}

// ToolAgentOption configures a ToolAgent.
type ToolAgentOption func(*ToolAgent)

// WithMaxSteps bounds the number of model calls per subtask.
func WithMaxSteps(n int) ToolAgentOption {
	return func(a *ToolAgent) {
		if n > 0 {
			a.maxSteps = n
		}
	}
}

// WithLogger sets the agent logger.
func WithLogger(l zerolog.Logger) ToolAgentOption {
	return func(a *ToolAgent) {
		a.log = l
	}
}

// NewToolAgent creates a model-driven agent.
func NewToolAgent(id string, completer llm.Completer, opts ...ToolAgentOption) *ToolAgent {
	a := &ToolAgent{
		id:        id,
		completer: completer,
		maxSteps:  4,
		log:       logging.Component("agent"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ID returns the agent ID.
func (a *ToolAgent) ID() string { return a.id }

// Execute runs the tool loop.
func (a *ToolAgent) Execute(ctx context.Context, req Request) (Response, error) {
	if a.completer == nil {
		return Response{}, fmt.Errorf("agent %s: %w", a.id, models.ErrModelUnavailable)
	}

	var transcript []string
	for step := 1; step <= a.maxSteps; step++ {
		out, err := a.completer.Complete(ctx, buildToolPrompt(a.id, req, transcript), toolAgentHint)
		if err != nil {
			return Response{}, err
		}

		call, answer, ok := parseStep(out)
		if !ok {
			return Response{}, fmt.Errorf("agent %s: empty model response", a.id)
		}
		if call == nil {
			return Response{Answer: answer}, nil
		}

		result, err := req.Tools.Invoke(ctx, call.name, call.input)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Response{}, err
		}
		a.log.Debug().
			Str("agent", a.id).
			Str("subtask", req.Subtask.ID).
			Str("tool", call.name).
			Int("step", step).
			Bool("failed", err != nil).
			Msg("tool_step")
		transcript = append(transcript, describeResult(call, result, err))
	}
	return Response{}, fmt.Errorf("agent %s: no answer after %d steps", a.id, a.maxSteps)
}

type toolCall struct {
	name  string
	input tools.Input
}

// parseStep reads one model reply. Replies without a JSON object are taken
// as a plain answer.
func parseStep(out string) (*toolCall, string, bool) {
	obj, err := llm.ExtractObject(out)
	if err != nil {
		text := strings.TrimSpace(out)
		return nil, text, text != ""
	}
	if name := strings.TrimSpace(obj.Get("tool").String()); name != "" {
		call := &toolCall{name: name, input: tools.Input{}}
		obj.Get("input").ForEach(func(k, v gjson.Result) bool {
			call.input[k.String()] = v.String()
			return true
		})
		return call, "", true
	}
	answer := strings.TrimSpace(obj.Get("answer").String())
	return nil, answer, answer != ""
}

func describeResult(call *toolCall, out tools.Output, err error) string {
	head := fmt.Sprintf("%s(%s)", call.name, tools.FormatInput(call.input))
	if err != nil {
		return head + " failed: " + err.Error()
	}
	if out.Text == "" {
		return head + " returned nothing"
	}
	return fmt.Sprintf("%s returned %d records:\n%s", head, len(out.Items), out.Text)
}
