package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ShayCichocki/matchday/internal/logging"
	"github.com/ShayCichocki/matchday/pkg/models"
)

// StatusHeader opens every self-status answer.
const StatusHeader = "Your status:"

// StatusTool is the tool the status agent uses for the player record.
const StatusTool = "my_status"

// StatusAgent reports the requester's own status from the request context,
// adding the linked player record when the status tool is available.
type StatusAgent struct {
	id  string
	log zerolog.Logger
}

// NewStatusAgent creates a status agent.
func NewStatusAgent(id string) *StatusAgent {
	return &StatusAgent{id: id, log: logging.Component("agent")}
}

// ID returns the agent ID.
func (a *StatusAgent) ID() string { return a.id }

// Execute builds the status answer.
func (a *StatusAgent) Execute(ctx context.Context, req Request) (Response, error) {
	sctx := req.Context

	perms := make([]string, 0)
	for _, p := range sctx.Permissions() {
		perms = append(perms, string(p))
	}
	if len(perms) == 0 {
		perms = append(perms, string(models.PermissionMember))
	}

	lines := []string{
		StatusHeader,
		"Name: " + sctx.Name(),
		"Registration: " + string(sctx.Registration()),
		"Permissions: " + strings.Join(perms, ", "),
		"Channel: " + string(sctx.ChannelKind()),
	}

	if hasTool(req, StatusTool) {
		out, err := req.Tools.Invoke(ctx, StatusTool, nil)
		switch {
		case err == nil && len(out.Items) > 0:
			p := out.Items[0]
			lines = append(lines, fmt.Sprintf("Player: %s (%s), %s goals in %s appearances",
				p["name"], p["status"], p["goals"], p["appearances"]))
		case err == nil:
			lines = append(lines, "Player: not linked")
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return Response{}, err
		default:
			a.log.Warn().Err(err).Str("agent", a.id).Msg("status_lookup_failed")
		}
	}
	return Response{Answer: strings.Join(lines, "\n")}, nil
}

func hasTool(req Request, name string) bool {
	for _, t := range req.Tools.Tools() {
		if t.Name() == name {
			return true
		}
	}
	return false
}
