// Package router picks the best-fit agent for each subtask from the capability matrix.
package router

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/ShayCichocki/matchday/internal/logging"
	"github.com/ShayCichocki/matchday/pkg/models"
)

// Scorer looks up an agent's proficiency for one capability. Missing entries score 0.
type Scorer interface {
	Score(agentID string, c models.Capability) float64
}

// Router is stateless apart from its scorer and is safe for concurrent use.
type Router struct {
	scorer Scorer
	log    zerolog.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Router) { r.log = l }
}

// New creates a Router over scorer.
func New(scorer Scorer, opts ...Option) *Router {
	r := &Router{scorer: scorer, log: logging.Component("router")}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type candidate struct {
	id    string
	score float64
	load  int
}

// Score is the mean matrix score of agentID over caps. An empty capability
// set makes every agent fully eligible.
func (r *Router) Score(agentID string, caps []models.Capability) float64 {
	if len(caps) == 0 {
		return 1.0
	}
	var sum float64
	for _, c := range caps {
		sum += r.scorer.Score(agentID, c)
	}
	return sum / float64(len(caps))
}

// Route picks an agent for st among available. load holds how many subtasks
// of the current decomposition each agent already has; it may be nil.
//
// Candidates are ranked by score, then by lower load, then by agent ID, so
// the same inputs always produce the same decision. A best score of zero
// returns models.ErrNoEligibleAgent.
func (r *Router) Route(st models.Subtask, available []string, load map[string]int) (models.RoutingDecision, error) {
	ranked := r.rank(st, available, load)
	if len(ranked) == 0 || ranked[0].score <= 0 {
		r.log.Warn().Str("subtask_id", st.ID).Int("agents", len(ranked)).Msg("no_eligible_agent")
		return models.RoutingDecision{}, fmt.Errorf("subtask %s: %w", st.ID, models.ErrNoEligibleAgent)
	}

	decision := models.RoutingDecision{
		SubtaskID:     st.ID,
		ChosenAgentID: ranked[0].id,
		Score:         ranked[0].score,
	}
	if len(ranked) > 1 {
		decision.RunnerUpAgentID = ranked[1].id
		decision.RunnerUpScore = ranked[1].score
	}

	r.log.Debug().
		Str("subtask_id", st.ID).
		Str("agent_id", decision.ChosenAgentID).
		Float64("score", decision.Score).
		Str("runner_up", decision.RunnerUpAgentID).
		Msg("subtask_routed")
	return decision, nil
}

func (r *Router) rank(st models.Subtask, available []string, load map[string]int) []candidate {
	seen := make(map[string]bool, len(available))
	ranked := make([]candidate, 0, len(available))
	for _, id := range available {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ranked = append(ranked, candidate{
			id:    id,
			score: roundScore(r.Score(id, st.RequiredCapabilities)),
			load:  load[id],
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.load != b.load {
			return a.load < b.load
		}
		return a.id < b.id
	})
	return ranked
}

// roundScore removes floating point noise from means so equal scores tie.
func roundScore(s float64) float64 {
	return math.Round(s*1e9) / 1e9
}

// Result is the routing outcome for one subtask of a plan.
type Result struct {
	Decision models.RoutingDecision
	// Err is set when no agent could be chosen; Decision is then zero.
	Err error
}

// RoutePlan routes subtasks in decomposition order, counting each choice
// toward the load used for later tie-breaks.
func (r *Router) RoutePlan(subtasks []models.Subtask, available []string) map[string]Result {
	load := make(map[string]int)
	results := make(map[string]Result, len(subtasks))
	for _, st := range subtasks {
		decision, err := r.Route(st, available, load)
		if err != nil {
			results[st.ID] = Result{Err: err}
			continue
		}
		load[decision.ChosenAgentID]++
		results[st.ID] = Result{Decision: decision}
	}
	return results
}
