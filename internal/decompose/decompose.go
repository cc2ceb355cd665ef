// Package decompose turns one classified request into an ordered list of subtasks.
package decompose

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/ShayCichocki/matchday/internal/graph"
	"github.com/ShayCichocki/matchday/internal/llm"
	"github.com/ShayCichocki/matchday/internal/logging"
	"github.com/ShayCichocki/matchday/pkg/models"
)

// DefaultMaxSubtasks caps how many subtasks a model proposal may contain.
const DefaultMaxSubtasks = 6

// DefaultTimeout bounds the decomposition model call.
const DefaultTimeout = 15 * time.Second

// Plan is the decomposer's output.
type Plan struct {
	// Subtasks in decomposition order. Never empty.
	Subtasks []models.Subtask
	// Fallback is set when a model proposal was attempted and rejected.
	Fallback bool
	// Reason explains the fallback.
	Reason string
}

// Decomposer produces subtask plans. SIMPLE requests never reach the model.
type Decomposer struct {
	completer   llm.Completer
	maxSubtasks int
	timeout     time.Duration
	log         zerolog.Logger
}

// Option configures a Decomposer.
type Option func(*Decomposer)

// WithMaxSubtasks sets the largest accepted proposal.
func WithMaxSubtasks(n int) Option {
	return func(d *Decomposer) {
		if n > 0 {
			d.maxSubtasks = n
		}
	}
}

// WithTimeout sets the model call timeout.
func WithTimeout(t time.Duration) Option {
	return func(d *Decomposer) {
		if t > 0 {
			d.timeout = t
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Decomposer) { d.log = l }
}

// New creates a Decomposer. completer may be nil, in which case every
// request gets the single-subtask plan.
func New(completer llm.Completer, opts ...Option) *Decomposer {
	d := &Decomposer{
		completer:   completer,
		maxSubtasks: DefaultMaxSubtasks,
		timeout:     DefaultTimeout,
		log:         logging.Component("decompose"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decompose never fails. A rejected or failed model proposal falls back to
// the single-subtask plan with Fallback set.
func (d *Decomposer) Decompose(ctx context.Context, in models.Intent, sctx models.StandardizedContext, tier models.ComplexityTier) Plan {
	if tier == models.ComplexitySimple || d.completer == nil {
		return Plan{Subtasks: SinglePlan(in, sctx)}
	}

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	prompt := fmt.Sprintf(decompositionPrompt,
		sctx.RawText(), in.Tag, formatEntities(in.Entities), capabilityList(), d.maxSubtasks)
	out, err := d.completer.Complete(callCtx, prompt, decompositionHint)
	if err != nil {
		d.log.Warn().Err(err).Str("intent", string(in.Tag)).Msg("decomposition_model_failed")
		return d.fallback(in, sctx, fmt.Sprintf("model call failed: %v", err))
	}

	subtasks, err := ParseResponse(out, in.Tag.Capabilities(), d.maxSubtasks)
	if err != nil {
		d.log.Warn().Err(err).Str("intent", string(in.Tag)).Msg("decomposition_rejected")
		return d.fallback(in, sctx, err.Error())
	}

	d.log.Debug().Int("subtasks", len(subtasks)).Str("intent", string(in.Tag)).Msg("decomposition_accepted")
	return Plan{Subtasks: subtasks}
}

func (d *Decomposer) fallback(in models.Intent, sctx models.StandardizedContext, reason string) Plan {
	return Plan{Subtasks: SinglePlan(in, sctx), Fallback: true, Reason: reason}
}

// SinglePlan is the one-subtask plan carrying the intent's static capabilities.
func SinglePlan(in models.Intent, sctx models.StandardizedContext) []models.Subtask {
	return []models.Subtask{{
		ID:                   subtaskID(0),
		Description:          describe(in, sctx),
		RequiredCapabilities: in.Tag.Capabilities(),
	}}
}

// ParseResponse validates a model proposal:
//   - the response must contain a non-empty JSON array of at most max items
//   - every item needs a description
//   - depends_on entries must be integer indices of earlier items
//   - unknown capabilities are dropped; an item left with none gets fallbackCaps
//
// The resulting graph is checked for cycles as a final guard.
func ParseResponse(response string, fallbackCaps []models.Capability, max int) ([]models.Subtask, error) {
	arr, err := llm.ExtractArray(response)
	if err != nil {
		return nil, err
	}
	items := arr.Array()
	if len(items) == 0 {
		return nil, errors.New("empty subtask list returned")
	}
	if max > 0 && len(items) > max {
		return nil, fmt.Errorf("proposal has %d subtasks, limit is %d", len(items), max)
	}

	subtasks := make([]models.Subtask, len(items))
	for i, item := range items {
		if !item.IsObject() {
			return nil, fmt.Errorf("subtask %d is not an object", i)
		}
		desc := strings.TrimSpace(item.Get("description").String())
		if desc == "" {
			return nil, fmt.Errorf("subtask %d has no description", i)
		}

		deps, err := parseDependsOn(i, item.Get("depends_on"))
		if err != nil {
			return nil, err
		}

		var caps []models.Capability
		for _, c := range item.Get("required_capabilities").Array() {
			capability := models.Capability(strings.TrimSpace(c.String()))
			if capability.Valid() {
				caps = append(caps, capability)
			}
		}
		if len(caps) == 0 {
			caps = fallbackCaps
		}

		subtasks[i] = models.Subtask{
			ID:                   subtaskID(i),
			Description:          desc,
			RequiredCapabilities: models.NormalizeCapabilities(caps),
			DependsOn:            deps,
		}
	}

	if err := graph.New().Build(subtasks); err != nil {
		return nil, fmt.Errorf("validate dependencies: %w", err)
	}
	return subtasks, nil
}

func parseDependsOn(i int, raw gjson.Result) ([]string, error) {
	if !raw.Exists() || raw.Type == gjson.Null {
		return nil, nil
	}
	if !raw.IsArray() {
		return nil, fmt.Errorf("subtask %d depends_on is not an array", i)
	}

	seen := make(map[int]bool)
	var idx []int
	for _, dep := range raw.Array() {
		if dep.Type != gjson.Number || dep.Num != float64(int(dep.Num)) {
			return nil, fmt.Errorf("subtask %d has non-integer dependency %s", i, dep.Raw)
		}
		n := int(dep.Num)
		if n < 0 || n >= i {
			return nil, fmt.Errorf("subtask %d depends on %d, which is not an earlier subtask", i, n)
		}
		if !seen[n] {
			seen[n] = true
			idx = append(idx, n)
		}
	}
	sort.Ints(idx)

	deps := make([]string, len(idx))
	for k, n := range idx {
		deps[k] = subtaskID(n)
	}
	return deps, nil
}

// ValidateNoCycles checks that subtasks form a DAG.
func ValidateNoCycles(subtasks []models.Subtask) error {
	return graph.New().Build(subtasks)
}

func subtaskID(i int) string {
	return fmt.Sprintf("st-%d", i+1)
}

func describe(in models.Intent, sctx models.StandardizedContext) string {
	text := strings.TrimSpace(sctx.RawText())
	if text == "" {
		return fmt.Sprintf("Handle %s request", in.Tag)
	}
	return fmt.Sprintf("Handle %s request: %s", in.Tag, text)
}

func formatEntities(entities map[string]string) string {
	if len(entities) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(entities))
	for k := range entities {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + entities[k]
	}
	return strings.Join(parts, ", ")
}

func capabilityList() string {
	caps := models.AllCapabilities()
	names := make([]string, len(caps))
	for i, c := range caps {
		names[i] = "- " + string(c)
	}
	return strings.Join(names, "\n")
}
