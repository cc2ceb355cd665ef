package agent

import (
	"context"
	"strings"

	"github.com/ShayCichocki/matchday/pkg/models"
)

// HelpHeader opens every help listing.
const HelpHeader = "Available commands:"

// Command is one entry in the help listing.
type Command struct {
	Usage       string
	Description string
	// AdminOnly commands are listed only in privileged channels.
	AdminOnly bool
}

// DefaultCommands is the listing shown by /help.
var DefaultCommands = []Command{
	{Usage: "/help", Description: "show this list"},
	{Usage: "/status", Description: "show your registration and player status"},
	{Usage: "/players", Description: "list the players in the squad"},
	{Usage: "/player <name>", Description: "look up a player"},
	{Usage: "/matches", Description: "show upcoming matches"},
	{Usage: "/team", Description: "team overview"},
	{Usage: "/availability", Description: "who is available for the next match"},
	{Usage: "/message <text>", Description: "send an announcement to the team", AdminOnly: true},
	{Usage: "/schedule <opponent> <date>", Description: "schedule a match", AdminOnly: true},
}

// HelpAgent answers with a static command listing and calls no tools.
type HelpAgent struct {
	id       string
	commands []Command
}

// NewHelpAgent creates a help agent. Nil commands means DefaultCommands.
func NewHelpAgent(id string, commands []Command) *HelpAgent {
	if commands == nil {
		commands = DefaultCommands
	}
	return &HelpAgent{id: id, commands: commands}
}

// ID returns the agent ID.
func (a *HelpAgent) ID() string { return a.id }

// Execute renders the listing for the requester's channel.
func (a *HelpAgent) Execute(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	privileged := req.Context.Privileged() || req.Context.HasPermission(models.PermissionTeamAdmin)

	var b strings.Builder
	b.WriteString(HelpHeader)
	for _, c := range a.commands {
		if c.AdminOnly && !privileged {
			continue
		}
		b.WriteString("\n")
		b.WriteString(c.Usage)
		b.WriteString(" - ")
		b.WriteString(c.Description)
	}
	return Response{Answer: b.String()}, nil
}
