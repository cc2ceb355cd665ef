package agent

import (
	"github.com/ShayCichocki/matchday/internal/capability"
	"github.com/ShayCichocki/matchday/internal/llm"
)

// DefaultRegistry builds the standard agent set matching the default
// capability matrix. Model-driven agents share the completer.
func DefaultRegistry(completer llm.Completer, opts ...ToolAgentOption) (*Registry, error) {
	return NewRegistry(
		NewHelpAgent(capability.AgentHelp, nil),
		NewStatusAgent(capability.AgentStatus),
		NewToolAgent(capability.AgentPlayer, completer, opts...),
		NewToolAgent(capability.AgentTeam, completer, opts...),
		NewToolAgent(capability.AgentComms, completer, opts...),
		NewToolAgent(capability.AgentSchedule, completer, opts...),
		NewToolAgent(capability.AgentChat, completer, opts...),
	)
}
