package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ShayCichocki/matchday/internal/agent"
	"github.com/ShayCichocki/matchday/internal/capture"
	"github.com/ShayCichocki/matchday/internal/graph"
	"github.com/ShayCichocki/matchday/internal/logging"
	"github.com/ShayCichocki/matchday/internal/router"
	"github.com/ShayCichocki/matchday/internal/tools"
	"github.com/ShayCichocki/matchday/internal/validation"
	"github.com/ShayCichocki/matchday/pkg/models"
)

const (
	// DefaultPartialNote is appended when some subtasks failed.
	DefaultPartialNote = "Some information could not be retrieved."
	// NoResultText is returned when no subtask succeeded.
	NoResultText = "Sorry, I couldn't complete that request."
)

// Agents resolves routed agent IDs.
type Agents interface {
	Get(id string) (agent.Agent, error)
}

// Validator checks a subtask answer against its tool records.
type Validator interface {
	Validate(subtaskID, answer string, records []models.ToolInvocationRecord) []models.ValidationFinding
}

// Plan is one request's routed subtasks.
type Plan struct {
	// Subtasks are in decomposition order.
	Subtasks []models.Subtask
	Routes   map[string]router.Result
	Context  models.StandardizedContext
	// Capture receives the tool records of this request.
	Capture *capture.Capture
}

// Result is the aggregated outcome of a plan.
type Result struct {
	Text string
	// Diagnostics are in decomposition order.
	Diagnostics []models.SubtaskDiagnostic
	// Partial is set when at least one subtask failed.
	Partial bool
	// Errors holds the failure of every FAILED subtask keyed by ID.
	Errors map[string]error
}

// Orchestrator runs subtask plans. It holds no per-request state and can
// execute plans for concurrent requests.
type Orchestrator struct {
	agents       Agents
	catalog      *tools.Catalog
	validator    Validator
	retry        agent.RetryPolicy
	fallback     string
	partialNote  string
	onTransition func(Transition)
	log          zerolog.Logger
}

// New creates an orchestrator.
func New(agents Agents, catalog *tools.Catalog, validator Validator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		agents:      agents,
		catalog:     catalog,
		validator:   validator,
		retry:       agent.DefaultRetryPolicy(),
		fallback:    validation.FallbackAnswer,
		partialNote: DefaultPartialNote,
		log:         logging.Component("orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// run is the mutable state of one subtask during Execute. Only the
// scheduling goroutine touches it.
type run struct {
	subtask  models.Subtask
	status   models.SubtaskStatus
	route    router.Result
	attempts int
	answer   string
	err      error
	findings []models.ValidationFinding
	blocked  bool
}

// completion is what a subtask goroutine reports back.
type completion struct {
	id       string
	answer   string
	attempts int
	err      error
	findings []models.ValidationFinding
	blocked  bool
}

// Execute runs the plan to completion and aggregates the answers of the
// final successful subtasks in decomposition order. On cancellation it waits
// for in-flight subtasks and returns models.ErrCancelled.
func (o *Orchestrator) Execute(ctx context.Context, plan Plan) (Result, error) {
	g := graph.New()
	if err := g.Build(plan.Subtasks); err != nil {
		return Result{}, fmt.Errorf("build subtask graph: %w", err)
	}

	runs := make(map[string]*run, len(plan.Subtasks))
	for _, st := range plan.Subtasks {
		route, ok := plan.Routes[st.ID]
		if !ok {
			route = router.Result{Err: fmt.Errorf("subtask %s not routed: %w", st.ID, models.ErrNoEligibleAgent)}
		}
		runs[st.ID] = &run{subtask: st, status: models.SubtaskPending, route: route}
	}

	for _, st := range plan.Subtasks {
		r := runs[st.ID]
		if r.route.Err != nil && r.status == models.SubtaskPending {
			o.fail(g, runs, r, r.route.Err)
		}
	}

	execCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan completion, len(plan.Subtasks))
	inflight := 0

	for {
		if ctx.Err() == nil {
			inflight += o.dispatch(execCtx, g, runs, plan, done)
		}
		if inflight == 0 {
			break
		}

		select {
		case c := <-done:
			inflight--
			o.complete(g, runs, c)
		case <-ctx.Done():
			cancel()
			for ; inflight > 0; inflight-- {
				o.complete(g, runs, <-done)
			}
		}
	}

	if err := ctx.Err(); err != nil {
		o.log.Info().Err(err).Msg("execution_cancelled")
		return Result{}, fmt.Errorf("execute plan: %w", errors.Join(models.ErrCancelled, err))
	}
	return o.aggregate(g, runs, plan.Subtasks), nil
}

// dispatch starts every subtask whose dependencies all succeeded.
func (o *Orchestrator) dispatch(ctx context.Context, g *graph.DependencyGraph, runs map[string]*run, plan Plan, done chan<- completion) int {
	started := 0
	for _, st := range plan.Subtasks {
		r := runs[st.ID]
		if r.status != models.SubtaskPending {
			continue
		}

		inputs := make(map[string]string)
		ready := true
		for _, dep := range g.Dependencies(st.ID) {
			d := runs[dep]
			if d.status != models.SubtaskSucceeded {
				ready = false
				break
			}
			inputs[dep] = d.answer
		}
		if !ready {
			continue
		}

		o.transition(r, models.SubtaskReady)
		o.transition(r, models.SubtaskRunning)
		started++

		req := agent.Request{
			Subtask: st,
			Context: plan.Context,
			Inputs:  inputs,
			Tools:   tools.NewInvoker(o.catalog, plan.Capture, st.ID, plan.Context, st.RequiredCapabilities),
		}
		go func(agentID string) {
			done <- o.runSubtask(ctx, agentID, req, plan.Capture)
		}(r.route.Decision.ChosenAgentID)
	}
	return started
}

// runSubtask executes one subtask with retries and validates the answer.
func (o *Orchestrator) runSubtask(ctx context.Context, agentID string, req agent.Request, c *capture.Capture) completion {
	id := req.Subtask.ID
	a, err := o.agents.Get(agentID)
	if err != nil {
		return completion{id: id, err: err}
	}

	// mark is where the current attempt's records start in the capture.
	// Earlier attempts keep their records but never ground a later answer.
	var answer string
	var mark int
	attempts, err := o.retry.Run(ctx, func(attempt int) error {
		if c != nil {
			mark = c.Count(id)
		}
		resp, err := safeExecute(ctx, a, req)
		if err != nil {
			o.log.Debug().Err(err).
				Str("subtask", id).
				Str("agent", agentID).
				Int("attempt", attempt).
				Bool("transient", models.IsTransient(err)).
				Msg("attempt_failed")
			if tool := committedWrite(attemptRecords(c, id, mark)); tool != "" {
				return agent.Permanent(fmt.Errorf("not retried after %s succeeded: %w", tool, err))
			}
			return err
		}
		answer = resp.Answer
		return nil
	})
	if err != nil {
		return completion{id: id, attempts: attempts, err: err}
	}

	res := completion{id: id, answer: answer, attempts: attempts}
	if o.validator != nil {
		res.findings = o.validator.Validate(id, answer, attemptRecords(c, id, mark))
		if models.HasBlocking(res.findings) {
			res.blocked = true
			res.answer = o.fallback
		}
	}
	return res
}

// attemptRecords returns the subtask's records from index mark on.
func attemptRecords(c *capture.Capture, id string, mark int) []models.ToolInvocationRecord {
	if c == nil {
		return nil
	}
	recs := c.OutputsFor(id)
	if mark >= len(recs) {
		return nil
	}
	return recs[mark:]
}

// committedWrite returns the first write tool in records that succeeded.
func committedWrite(records []models.ToolInvocationRecord) string {
	for _, r := range records {
		if r.Committed() {
			return r.ToolName
		}
	}
	return ""
}

// safeExecute runs the agent, turning a panic into a permanent error and an
// empty answer into a failure.
func safeExecute(ctx context.Context, a agent.Agent, req agent.Request) (resp agent.Response, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("agent %s panicked: %v", a.ID(), p)
		}
	}()
	resp, err = a.Execute(ctx, req)
	if err == nil && strings.TrimSpace(resp.Answer) == "" {
		err = fmt.Errorf("agent %s returned an empty answer", a.ID())
	}
	return resp, err
}

func (o *Orchestrator) complete(g *graph.DependencyGraph, runs map[string]*run, c completion) {
	r := runs[c.id]
	r.attempts = c.attempts
	if c.err != nil {
		o.fail(g, runs, r, c.err)
		return
	}
	r.answer = c.answer
	r.findings = c.findings
	r.blocked = c.blocked
	if c.blocked {
		o.log.Warn().Str("subtask", c.id).Int("findings", len(c.findings)).Msg("answer_blocked")
	}
	o.transition(r, models.SubtaskSucceeded)
}

// fail marks r FAILED and every pending transitive dependent with it.
func (o *Orchestrator) fail(g *graph.DependencyGraph, runs map[string]*run, r *run, err error) {
	r.err = err
	o.transition(r, models.SubtaskFailed)
	o.log.Warn().Err(err).Str("subtask", r.subtask.ID).Msg("subtask_failed")

	for _, id := range g.TransitiveDependents(r.subtask.ID) {
		d := runs[id]
		if d.status.Terminal() {
			continue
		}
		d.err = fmt.Errorf("dependency %s failed", r.subtask.ID)
		o.transition(d, models.SubtaskFailed)
	}
}

func (o *Orchestrator) transition(r *run, to models.SubtaskStatus) {
	from := r.status
	r.status = to
	if o.onTransition == nil {
		return
	}
	o.onTransition(Transition{
		SubtaskID: r.subtask.ID,
		From:      from,
		To:        to,
		AgentID:   r.route.Decision.ChosenAgentID,
		Attempts:  r.attempts,
		Err:       r.err,
		Time:      time.Now(),
	})
}

// aggregate joins the answers of succeeded subtasks that no other succeeded
// subtask builds on. With no failures these are exactly the graph leaves.
func (o *Orchestrator) aggregate(g *graph.DependencyGraph, runs map[string]*run, subtasks []models.Subtask) Result {
	res := Result{Errors: make(map[string]error)}

	var parts []string
	for _, st := range subtasks {
		r := runs[st.ID]
		res.Diagnostics = append(res.Diagnostics, diagnostic(r))

		if r.status == models.SubtaskFailed {
			res.Partial = true
			res.Errors[st.ID] = r.err
			continue
		}
		final := true
		for _, dep := range g.Dependents(st.ID) {
			if runs[dep].status == models.SubtaskSucceeded {
				final = false
				break
			}
		}
		if final {
			parts = append(parts, r.answer)
		}
	}

	switch {
	case len(parts) == 0:
		res.Text = NoResultText
	case res.Partial:
		res.Text = strings.Join(parts, "\n\n") + "\n\n" + o.partialNote
	default:
		res.Text = strings.Join(parts, "\n\n")
	}
	return res
}

func diagnostic(r *run) models.SubtaskDiagnostic {
	d := models.SubtaskDiagnostic{
		SubtaskID:   r.subtask.ID,
		Description: r.subtask.Description,
		Status:      r.status,
		Attempts:    r.attempts,
		Findings:    r.findings,
		Blocked:     r.blocked,
	}
	if r.route.Err == nil {
		decision := r.route.Decision
		d.Routing = &decision
	}
	if r.err != nil {
		d.Error = r.err.Error()
	}
	return d
}
