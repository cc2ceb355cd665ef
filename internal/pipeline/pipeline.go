// Package pipeline is the request entry point: it threads one request
// through classification, assessment, decomposition, routing and execution.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ShayCichocki/matchday/internal/capture"
	"github.com/ShayCichocki/matchday/internal/complexity"
	"github.com/ShayCichocki/matchday/internal/decompose"
	"github.com/ShayCichocki/matchday/internal/intent"
	"github.com/ShayCichocki/matchday/internal/logging"
	"github.com/ShayCichocki/matchday/internal/orchestrator"
	"github.com/ShayCichocki/matchday/internal/router"
	"github.com/ShayCichocki/matchday/internal/store"
	"github.com/ShayCichocki/matchday/pkg/models"
)

// Agents is the agent set the router chooses from.
type Agents interface {
	orchestrator.Agents
	IDs() []string
}

// RegistrationSource resolves a user's registration for a team.
type RegistrationSource interface {
	Registration(ctx context.Context, teamID, userID string) (models.RegistrationStatus, error)
}

// Recorder persists one audit record per handled request.
type Recorder interface {
	RecordRequest(ctx context.Context, r store.AuditRecord) error
}

// RequiredConfig contains the components a Pipeline cannot run without.
type RequiredConfig struct {
	Classifier   *intent.Classifier
	Assessor     *complexity.Assessor
	Decomposer   *decompose.Decomposer
	Router       *router.Router
	Agents       Agents
	Orchestrator *orchestrator.Orchestrator
}

func (c RequiredConfig) validate() error {
	switch {
	case c.Classifier == nil:
		return errors.New("pipeline: classifier is required")
	case c.Assessor == nil:
		return errors.New("pipeline: assessor is required")
	case c.Decomposer == nil:
		return errors.New("pipeline: decomposer is required")
	case c.Router == nil:
		return errors.New("pipeline: router is required")
	case c.Agents == nil:
		return errors.New("pipeline: agents are required")
	case c.Orchestrator == nil:
		return errors.New("pipeline: orchestrator is required")
	}
	return nil
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRegistrationSource enables registration enrichment of the context.
func WithRegistrationSource(s RegistrationSource) Option {
	return func(p *Pipeline) { p.registration = s }
}

// WithRecorder enables the request audit log.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithRequestTimeout bounds the whole request. Zero means no bound.
func WithRequestTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.timeout = d }
}

// WithLogger sets the pipeline logger.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// WithIDGenerator replaces the request ID source.
func WithIDGenerator(fn func() string) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// Pipeline handles requests. It is safe for concurrent use; all
// per-request state lives in HandleRequest.
type Pipeline struct {
	RequiredConfig
	registration RegistrationSource
	recorder     Recorder
	timeout      time.Duration
	log          zerolog.Logger
	newID        func() string
}

// New creates a pipeline.
func New(cfg RequiredConfig, opts ...Option) (*Pipeline, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{
		RequiredConfig: cfg,
		log:            logging.Component("pipeline"),
		newID:          func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// HandleRequest answers one request. Degradations are reported on the
// answer; only cancellation and total loss of the model service are errors.
// The returned answer always carries the request ID.
func (p *Pipeline) HandleRequest(ctx context.Context, text string, fields models.ContextFields) (models.FinalAnswer, error) {
	requestID := p.newID()
	answer := models.FinalAnswer{RequestID: requestID, Intent: models.IntentUnknown}
	log := p.log.With().Str("request", requestID).Logger()

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return answer, fmt.Errorf("handle request %s: %w", requestID, errors.Join(models.ErrCancelled, err))
	}

	sctx := p.enrich(ctx, models.NewContext(text, fields), log)

	// Fresh per request so concurrent requests never see each other's records.
	c := capture.New()
	c.Begin(requestID)

	in := p.Classifier.Classify(ctx, text, sctx)
	tier := p.Assessor.Assess(in, sctx)
	plan := p.Decomposer.Decompose(ctx, in, sctx, tier)
	routes := p.Router.RoutePlan(plan.Subtasks, p.Agents.IDs())

	answer.Intent = in.Tag
	answer.Complexity = tier
	answer.ClassificationDegraded = in.Degraded
	answer.DecompositionFallback = plan.Fallback

	log.Debug().
		Str("intent", string(in.Tag)).
		Str("source", string(in.Source)).
		Str("complexity", string(tier)).
		Int("subtasks", len(plan.Subtasks)).
		Bool("fallback", plan.Fallback).
		Msg("request_planned")

	res, err := p.Orchestrator.Execute(ctx, orchestrator.Plan{
		Subtasks: plan.Subtasks,
		Routes:   routes,
		Context:  sctx,
		Capture:  c,
	})
	if err != nil {
		st := StatusFailed
		if errors.Is(err, models.ErrCancelled) {
			st = StatusCancelled
		}
		p.audit(ctx, sctx, in, plan, answer, st, log)
		return answer, fmt.Errorf("handle request %s: %w", requestID, err)
	}

	answer.Text = res.Text
	answer.Diagnostics = res.Diagnostics
	answer.Partial = res.Partial

	if modelLost(res) {
		p.audit(ctx, sctx, in, plan, answer, StatusModelUnavailable, log)
		return answer, fmt.Errorf("handle request %s: %w", requestID, models.ErrModelUnavailable)
	}

	p.audit(ctx, sctx, in, plan, answer, status(answer), log)
	log.Info().
		Str("intent", string(in.Tag)).
		Bool("partial", answer.Partial).
		Int("findings", len(answer.Findings())).
		Msg("request_handled")
	return answer, nil
}

func (p *Pipeline) enrich(ctx context.Context, sctx models.StandardizedContext, log zerolog.Logger) models.StandardizedContext {
	if p.registration == nil || sctx.TeamID() == "" || sctx.UserID() == "" {
		return sctx
	}
	status, err := p.registration.Registration(ctx, sctx.TeamID(), sctx.UserID())
	if err != nil {
		log.Warn().Err(err).Msg("registration_lookup_failed")
		return sctx
	}
	return sctx.WithRegistration(status)
}

// modelLost reports a request where nothing succeeded and the model
// service was unreachable.
func modelLost(res orchestrator.Result) bool {
	for _, d := range res.Diagnostics {
		if d.Status == models.SubtaskSucceeded {
			return false
		}
	}
	for _, err := range res.Errors {
		if errors.Is(err, models.ErrModelUnavailable) {
			return true
		}
	}
	return false
}
