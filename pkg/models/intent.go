package models

import (
	"sort"
	"strings"
)

// IntentTag is the closed taxonomy of things a user can ask for.
// New intents are added by extending this list and intentCapabilities.
type IntentTag string

const (
	IntentUnknown            IntentTag = "unknown"
	IntentHelp               IntentTag = "help"
	IntentSelfStatus         IntentTag = "self_status"
	IntentPlayerLookup       IntentTag = "player_lookup"
	IntentListPlayers        IntentTag = "list_players"
	IntentTeamOverview       IntentTag = "team_overview"
	IntentMatchInfo          IntentTag = "match_info"
	IntentSendMessage        IntentTag = "send_message"
	IntentScheduleMatch      IntentTag = "schedule_match"
	IntentAvailabilityReport IntentTag = "availability_report"
	IntentChat               IntentTag = "chat"
)

// intentCapabilities is the static capability set associated with each intent.
// The order of the slice is irrelevant; callers get a normalized copy.
var intentCapabilities = map[IntentTag][]Capability{
	IntentUnknown:            nil,
	IntentHelp:               {CapabilityHelp},
	IntentSelfStatus:         {CapabilitySelfStatusRead},
	IntentPlayerLookup:       {CapabilityPlayerDataRead},
	IntentListPlayers:        {CapabilityPlayerDataRead},
	IntentTeamOverview:       {CapabilityTeamDataRead, CapabilityPlayerDataRead},
	IntentMatchInfo:          {CapabilityMatchDataRead},
	IntentSendMessage:        {CapabilityMessaging},
	IntentScheduleMatch:      {CapabilityScheduling, CapabilityMatchDataRead},
	IntentAvailabilityReport: {CapabilityPlayerDataRead, CapabilityMatchDataRead},
	IntentChat:               {CapabilityGeneralChat},
}

// Valid returns true if the tag is part of the closed taxonomy.
func (t IntentTag) Valid() bool {
	_, ok := intentCapabilities[t]
	return ok
}

// Capabilities returns the capability set statically associated with the intent.
// Unknown tags and IntentUnknown return an empty set.
func (t IntentTag) Capabilities() []Capability {
	return NormalizeCapabilities(intentCapabilities[t])
}

// ParseIntentTag maps free text (typically model output) to a known tag.
// Matching is case-insensitive and tolerant of surrounding whitespace and
// dashes used in place of underscores.
func ParseIntentTag(s string) (IntentTag, bool) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, "-", "_")
	norm = strings.ReplaceAll(norm, " ", "_")
	tag := IntentTag(norm)
	if !tag.Valid() {
		return IntentUnknown, false
	}
	return tag, true
}

// AllIntentTags returns every tag in the taxonomy in lexical order.
func AllIntentTags() []IntentTag {
	tags := make([]IntentTag, 0, len(intentCapabilities))
	for t := range intentCapabilities {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// IntentSource records which classifier stage produced an intent.
type IntentSource string

const (
	// IntentSourceRule means a deterministic rule matched.
	IntentSourceRule IntentSource = "rule"
	// IntentSourceModel means the language model proposed a valid tag.
	IntentSourceModel IntentSource = "model"
	// IntentSourceFallback means classification degraded to IntentUnknown.
	IntentSourceFallback IntentSource = "fallback"
)

// Intent is the classified meaning of one request. Read-only after classification.
type Intent struct {
	// Tag is the classified intent.
	Tag IntentTag `json:"tag"`
	// Entities are free-form values extracted from the text (e.g. "player" -> "sam").
	Entities map[string]string `json:"entities,omitempty"`
	// Source is the classifier stage that produced the tag.
	Source IntentSource `json:"source"`
	// Rule names the matching rule when Source is IntentSourceRule.
	Rule string `json:"rule,omitempty"`
	// Degraded is set when the model fallback failed and the tag defaulted to unknown.
	Degraded bool `json:"degraded,omitempty"`
}

// Entity returns the named entity or "" when absent.
func (i Intent) Entity(key string) string {
	if i.Entities == nil {
		return ""
	}
	return i.Entities[key]
}
