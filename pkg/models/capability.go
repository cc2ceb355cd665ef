package models

import "sort"

// Capability is a named skill tag used to match subtasks to agents.
type Capability string

const (
	CapabilityPlayerDataRead  Capability = "player_data_read"
	CapabilityPlayerDataWrite Capability = "player_data_write"
	CapabilityTeamDataRead    Capability = "team_data_read"
	CapabilityMatchDataRead   Capability = "match_data_read"
	CapabilityMessaging       Capability = "messaging"
	CapabilityScheduling      Capability = "scheduling"
	CapabilitySelfStatusRead  Capability = "self_status_read"
	CapabilityHelp            Capability = "help"
	CapabilityGeneralChat     Capability = "general_chat"
)

var knownCapabilities = map[Capability]bool{
	CapabilityPlayerDataRead:  true,
	CapabilityPlayerDataWrite: true,
	CapabilityTeamDataRead:    true,
	CapabilityMatchDataRead:   true,
	CapabilityMessaging:       true,
	CapabilityScheduling:      true,
	CapabilitySelfStatusRead:  true,
	CapabilityHelp:            true,
	CapabilityGeneralChat:     true,
}

// Valid returns true if the capability is part of the known taxonomy.
func (c Capability) Valid() bool {
	return knownCapabilities[c]
}

// AllCapabilities returns every known capability in lexical order.
func AllCapabilities() []Capability {
	caps := make([]Capability, 0, len(knownCapabilities))
	for c := range knownCapabilities {
		caps = append(caps, c)
	}
	SortCapabilities(caps)
	return caps
}

// SortCapabilities sorts caps in place in lexical order.
func SortCapabilities(caps []Capability) {
	sort.Slice(caps, func(i, j int) bool { return caps[i] < caps[j] })
}

// NormalizeCapabilities returns a sorted, de-duplicated copy of caps.
// Unknown capabilities are kept; callers that care filter with Valid.
func NormalizeCapabilities(caps []Capability) []Capability {
	seen := make(map[Capability]bool, len(caps))
	out := make([]Capability, 0, len(caps))
	for _, c := range caps {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	SortCapabilities(out)
	return out
}
