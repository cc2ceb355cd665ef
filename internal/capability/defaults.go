package capability

import "github.com/ShayCichocki/matchday/pkg/models"

// Agent IDs registered by default.
const (
	AgentHelp     = "help_agent"
	AgentStatus   = "status_agent"
	AgentPlayer   = "player_agent"
	AgentTeam     = "team_agent"
	AgentComms    = "comms_agent"
	AgentSchedule = "schedule_agent"
	AgentChat     = "chat_agent"
)

// DefaultEntries is the built-in proficiency table used when no matrix file is configured.
var DefaultEntries = []Entry{
	{AgentHelp, models.CapabilityHelp, 1.0},
	{AgentHelp, models.CapabilityGeneralChat, 0.3},

	{AgentStatus, models.CapabilitySelfStatusRead, 1.0},
	{AgentStatus, models.CapabilityPlayerDataRead, 0.4},

	{AgentPlayer, models.CapabilityPlayerDataRead, 0.9},
	{AgentPlayer, models.CapabilityPlayerDataWrite, 0.8},
	{AgentPlayer, models.CapabilityTeamDataRead, 0.5},
	{AgentPlayer, models.CapabilitySelfStatusRead, 0.5},

	{AgentTeam, models.CapabilityTeamDataRead, 0.9},
	{AgentTeam, models.CapabilityPlayerDataRead, 0.7},
	{AgentTeam, models.CapabilityMatchDataRead, 0.7},

	{AgentComms, models.CapabilityMessaging, 1.0},
	{AgentComms, models.CapabilityTeamDataRead, 0.3},

	{AgentSchedule, models.CapabilityScheduling, 1.0},
	{AgentSchedule, models.CapabilityMatchDataRead, 0.9},

	{AgentChat, models.CapabilityGeneralChat, 1.0},
}

// DefaultMatrix returns the built-in matrix.
func DefaultMatrix() *Matrix {
	m, err := NewMatrix(DefaultEntries)
	if err != nil {
		panic("invalid default capability matrix: " + err.Error())
	}
	return m
}
