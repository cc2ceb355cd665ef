package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/ShayCichocki/matchday/internal/agent"
	"github.com/ShayCichocki/matchday/internal/capability"
	"github.com/ShayCichocki/matchday/internal/complexity"
	"github.com/ShayCichocki/matchday/internal/decompose"
	"github.com/ShayCichocki/matchday/internal/intent"
	"github.com/ShayCichocki/matchday/internal/llm"
	"github.com/ShayCichocki/matchday/internal/logging"
	"github.com/ShayCichocki/matchday/internal/orchestrator"
	"github.com/ShayCichocki/matchday/internal/router"
	"github.com/ShayCichocki/matchday/internal/store"
	"github.com/ShayCichocki/matchday/internal/tools"
	"github.com/ShayCichocki/matchday/internal/validation"
	"github.com/ShayCichocki/matchday/pkg/models"
)

var today = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// scripted returns canned replies in order.
type scripted struct {
	mu      sync.Mutex
	replies []string
	calls   int
}

func (s *scripted) Complete(context.Context, string, string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.replies) == 0 {
		return "", models.Transient(errors.New("script exhausted"))
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r, nil
}

func (s *scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fixture struct {
	pipeline *Pipeline
	db       *store.DB
}

func newFixture(t *testing.T, completer llm.Completer, agentIDs ...string) fixture {
	t.Helper()
	nop := logging.Nop()

	db, err := store.Open(filepath.Join(t.TempDir(), "pipeline.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())
	require.NoError(t, db.Seed(context.Background(), "t1", "Reds", today))

	catalog, err := tools.DefaultCatalog(db, tools.WithClock(func() time.Time { return today }))
	require.NoError(t, err)

	all, err := agent.DefaultRegistry(completer, agent.WithLogger(nop))
	require.NoError(t, err)
	registry := all
	if len(agentIDs) > 0 {
		var subset []agent.Agent
		for _, id := range agentIDs {
			a, err := all.Get(id)
			require.NoError(t, err)
			subset = append(subset, a)
		}
		registry, err = agent.NewRegistry(subset...)
		require.NoError(t, err)
	}

	validator := validation.New(validation.DefaultConfig(), validation.WithLogger(nop))
	orch := orchestrator.New(registry, catalog, validator,
		orchestrator.WithRetryPolicy(agent.RetryPolicy{MaxAttempts: 2, BaseBackoff: time.Millisecond}),
		orchestrator.WithLogger(nop),
	)

	var seq atomic.Int32
	p, err := New(RequiredConfig{
		Classifier:   intent.New(completer, intent.WithLogger(nop)),
		Assessor:     complexity.New(nil),
		Decomposer:   decompose.New(completer, decompose.WithLogger(nop)),
		Router:       router.New(capability.DefaultMatrix(), router.WithLogger(nop)),
		Agents:       registry,
		Orchestrator: orch,
	},
		WithRegistrationSource(db),
		WithRecorder(db),
		WithLogger(nop),
		WithIDGenerator(func() string { return fmt.Sprintf("req-%d", seq.Add(1)) }),
	)
	require.NoError(t, err)
	return fixture{pipeline: p, db: db}
}

func member(user string) models.ContextFields {
	return models.ContextFields{
		UserID: user, TeamID: "t1", ChannelID: "c1",
		ChannelKind: models.ChannelPublic, DisplayName: "Alex",
	}
}

func admin() models.ContextFields {
	return models.ContextFields{
		UserID: "u-coach", TeamID: "t1", ChannelID: "c-admin",
		ChannelKind: models.ChannelPrivileged,
		Permissions: []models.Permission{models.PermissionTeamAdmin},
	}
}

func TestNew_RequiresComponents(t *testing.T) {
	_, err := New(RequiredConfig{})
	assert.Error(t, err)
}

func TestHandleRequest_SelfStatus(t *testing.T) {
	model := &scripted{}
	f := newFixture(t, model)

	answer, err := f.pipeline.HandleRequest(context.Background(), "what is my status", member("u-alex"))
	require.NoError(t, err)

	assert.Equal(t, "req-1", answer.RequestID)
	assert.Equal(t, models.IntentSelfStatus, answer.Intent)
	assert.Equal(t, models.ComplexitySimple, answer.Complexity)
	require.Len(t, answer.Diagnostics, 1)

	d := answer.Diagnostics[0]
	assert.Equal(t, models.SubtaskSucceeded, d.Status)
	require.NotNil(t, d.Routing)
	assert.Equal(t, capability.AgentStatus, d.Routing.ChosenAgentID)
	assert.Equal(t, 1.0, d.Routing.Score)

	assert.True(t, strings.HasPrefix(answer.Text, "Your status:"))
	assert.Contains(t, answer.Text, "Registration: registered")
	assert.Contains(t, answer.Text, "Player: Alex Morgan (active), 7 goals in 10 appearances")
	assert.Empty(t, answer.Findings())
	assert.Zero(t, model.Calls())
}

func TestHandleRequest_UnregisteredUser(t *testing.T) {
	f := newFixture(t, &scripted{})

	answer, err := f.pipeline.HandleRequest(context.Background(), "/status", member("u-jo"))
	require.NoError(t, err)
	assert.Contains(t, answer.Text, "Registration: unregistered")
}

func TestHandleRequest_HelpListing(t *testing.T) {
	f := newFixture(t, &scripted{})

	answer, err := f.pipeline.HandleRequest(context.Background(), "/help", member("u-alex"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(answer.Text, agent.HelpHeader))
	assert.Contains(t, answer.Text, "list the players in the squad")
	assert.Empty(t, answer.Findings())
	assert.Equal(t, capability.AgentHelp, answer.Diagnostics[0].Routing.ChosenAgentID)
}

func TestHandleRequest_UngroundedRosterIsBlocked(t *testing.T) {
	model := &scripted{replies: []string{
		`{"answer": "The squad:\n- Alex Morgan\n- Sam Kerr\n- Zed Unknown"}`,
	}}
	f := newFixture(t, model)

	answer, err := f.pipeline.HandleRequest(context.Background(), "/players", member("u-alex"))
	require.NoError(t, err)

	assert.Equal(t, validation.FallbackAnswer, answer.Text)
	findings := answer.Findings()
	require.Len(t, findings, 1)
	assert.Equal(t, models.SeverityBlocking, findings[0].Severity)
	assert.True(t, answer.Diagnostics[0].Blocked)
	assert.Equal(t, capability.AgentPlayer, answer.Diagnostics[0].Routing.ChosenAgentID)

	recs, err := f.db.RecentRequests(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, StatusBlocked, recs[0].Status)
}

func TestHandleRequest_GroundedRoster(t *testing.T) {
	roster := "The squad:\n- Alex Morgan\n- Jo Potter\n- Mary Earps\n- Sam Kerr"
	model := &scripted{replies: []string{
		`{"tool": "list_players", "input": {}}`,
		`{"answer": "The squad:\n- Alex Morgan\n- Jo Potter\n- Mary Earps\n- Sam Kerr"}`,
	}}
	f := newFixture(t, model)

	answer, err := f.pipeline.HandleRequest(context.Background(), "/players", member("u-alex"))
	require.NoError(t, err)
	assert.Equal(t, roster, answer.Text)
	assert.Empty(t, answer.Findings())
	assert.False(t, answer.Partial)
}

func TestHandleRequest_NoEligibleAgentCascades(t *testing.T) {
	model := &scripted{replies: []string{
		`[{"description": "book the fixture", "required_capabilities": ["scheduling"]},
		  {"description": "announce it", "required_capabilities": ["messaging"], "depends_on": [0]}]`,
	}}
	f := newFixture(t, model, capability.AgentHelp, capability.AgentComms, capability.AgentTeam)

	answer, err := f.pipeline.HandleRequest(context.Background(), "/schedule United 2024-06-01", admin())
	require.NoError(t, err)

	assert.Equal(t, models.IntentScheduleMatch, answer.Intent)
	assert.Equal(t, models.ComplexityModerate, answer.Complexity)
	assert.False(t, answer.DecompositionFallback)
	require.Len(t, answer.Diagnostics, 2)

	a, b := answer.Diagnostics[0], answer.Diagnostics[1]
	assert.Equal(t, models.SubtaskFailed, a.Status)
	assert.Nil(t, a.Routing)
	assert.Contains(t, a.Error, models.ErrNoEligibleAgent.Error())

	assert.Equal(t, models.SubtaskFailed, b.Status)
	assert.Zero(t, b.Attempts)
	assert.Equal(t, "dependency st-1 failed", b.Error)

	assert.True(t, answer.Partial)
	assert.Equal(t, orchestrator.NoResultText, answer.Text)
	assert.Equal(t, 1, model.Calls())
}

func TestHandleRequest_DecompositionFallback(t *testing.T) {
	model := &scripted{replies: []string{
		`[{"description": "a", "depends_on": [1]}, {"description": "b"}]`,
		`{"tool": "team_overview"}`,
		`{"answer": "Reds have 4 players and 2 upcoming matches."}`,
	}}
	f := newFixture(t, model)

	answer, err := f.pipeline.HandleRequest(context.Background(), "/team", admin())
	require.NoError(t, err)
	assert.True(t, answer.DecompositionFallback)
	require.Len(t, answer.Diagnostics, 1)
	assert.Equal(t, "Reds have 4 players and 2 upcoming matches.", answer.Text)
}

func TestHandleRequest_ModelUnavailable(t *testing.T) {
	f := newFixture(t, llm.Unavailable{Reason: "no api key"})

	answer, err := f.pipeline.HandleRequest(context.Background(), "/players", member("u-alex"))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrModelUnavailable)
	assert.Equal(t, "req-1", answer.RequestID)

	recs, err := f.db.RecentRequests(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, StatusModelUnavailable, recs[0].Status)
}

func TestHandleRequest_RuleOnlyRequestsSurviveModelLoss(t *testing.T) {
	f := newFixture(t, llm.Unavailable{})

	answer, err := f.pipeline.HandleRequest(context.Background(), "/help", member("u-alex"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(answer.Text, agent.HelpHeader))
}

func TestHandleRequest_ClassificationDegraded(t *testing.T) {
	model := &scripted{replies: []string{
		"I am not sure what that means",
		"Happy to chat!",
	}}
	f := newFixture(t, model)

	answer, err := f.pipeline.HandleRequest(context.Background(), "blorp the zorp", member("u-alex"))
	require.NoError(t, err)
	assert.True(t, answer.ClassificationDegraded)
	assert.Equal(t, models.IntentUnknown, answer.Intent)
	assert.Equal(t, "Happy to chat!", answer.Text)
	assert.Equal(t, capability.AgentChat, answer.Diagnostics[0].Routing.ChosenAgentID)
}

func TestHandleRequest_Cancelled(t *testing.T) {
	f := newFixture(t, &scripted{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.pipeline.HandleRequest(ctx, "/help", member("u-alex"))
	assert.ErrorIs(t, err, models.ErrCancelled)
}

func TestHandleRequest_AuditPayload(t *testing.T) {
	f := newFixture(t, &scripted{})

	_, err := f.pipeline.HandleRequest(context.Background(), "/help", member("u-alex"))
	require.NoError(t, err)

	recs, err := f.db.RecentRequests(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	r := recs[0]
	assert.Equal(t, "req-1", r.RequestID)
	assert.Equal(t, "u-alex", r.UserID)
	assert.Equal(t, string(models.IntentHelp), r.Intent)
	assert.Equal(t, StatusOK, r.Status)

	assert.Equal(t, "help", gjson.Get(r.Payload, "intent.tag").String())
	assert.Equal(t, "command_help", gjson.Get(r.Payload, "intent.rule").String())
	assert.Equal(t, capability.AgentHelp, gjson.Get(r.Payload, "diagnostics.0.routing.chosen_agent_id").String())
	assert.False(t, gjson.Get(r.Payload, "decomposition.fallback").Bool())
}

func TestHandleRequest_ConcurrentRequestsAreIsolated(t *testing.T) {
	f := newFixture(t, &scripted{})

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			text := "/help"
			if i%2 == 0 {
				text = "/status"
			}
			answer, err := f.pipeline.HandleRequest(context.Background(), text, member("u-alex"))
			if err != nil {
				errs <- err
				return
			}
			if len(answer.Findings()) != 0 {
				errs <- fmt.Errorf("%s: unexpected findings %v", text, answer.Findings())
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
