// Package complexity assigns a complexity tier to a classified intent.
package complexity

import "github.com/ShayCichocki/matchday/pkg/models"

// baseTiers is the starting tier per intent. Intents not listed start SIMPLE.
var baseTiers = map[models.IntentTag]models.ComplexityTier{
	models.IntentUnknown:            models.ComplexitySimple,
	models.IntentHelp:               models.ComplexitySimple,
	models.IntentChat:               models.ComplexitySimple,
	models.IntentSelfStatus:         models.ComplexitySimple,
	models.IntentPlayerLookup:       models.ComplexitySimple,
	models.IntentListPlayers:        models.ComplexitySimple,
	models.IntentMatchInfo:          models.ComplexitySimple,
	models.IntentSendMessage:        models.ComplexitySimple,
	models.IntentTeamOverview:       models.ComplexityModerate,
	models.IntentScheduleMatch:      models.ComplexityModerate,
	models.IntentAvailabilityReport: models.ComplexityModerate,
}

// capabilityDomains groups capabilities into the data domain they touch.
var capabilityDomains = map[models.Capability]string{
	models.CapabilityPlayerDataRead:  "player",
	models.CapabilityPlayerDataWrite: "player",
	models.CapabilitySelfStatusRead:  "player",
	models.CapabilityTeamDataRead:    "team",
	models.CapabilityMatchDataRead:   "match",
	models.CapabilityScheduling:      "match",
	models.CapabilityMessaging:       "messaging",
	models.CapabilityHelp:            "help",
	models.CapabilityGeneralChat:     "chat",
}

// entityBumpThreshold is the entity count at which a request moves up a tier.
const entityBumpThreshold = 3

// Assessor is a pure rule table. The zero value is not usable; call New.
type Assessor struct {
	base map[models.IntentTag]models.ComplexityTier
}

// New creates an Assessor with the built-in table. overrides replace
// individual intent entries.
func New(overrides map[models.IntentTag]models.ComplexityTier) *Assessor {
	base := make(map[models.IntentTag]models.ComplexityTier, len(baseTiers)+len(overrides))
	for k, v := range baseTiers {
		base[k] = v
	}
	for k, v := range overrides {
		if v.Valid() {
			base[k] = v
		}
	}
	return &Assessor{base: base}
}

// Assess returns the tier for an intent:
//  1. start from the intent's base tier
//  2. intents spanning two or more data domains are at least MODERATE
//  3. a broadcast from a privileged channel is at least MODERATE
//  4. three or more extracted entities bump one tier
func (a *Assessor) Assess(in models.Intent, sctx models.StandardizedContext) models.ComplexityTier {
	tier, ok := a.base[in.Tag]
	if !ok {
		tier = models.ComplexitySimple
	}

	if Domains(in.Tag) >= 2 {
		tier = tier.AtLeast(models.ComplexityModerate)
	}
	if in.Tag == models.IntentSendMessage && sctx.Privileged() {
		tier = tier.AtLeast(models.ComplexityModerate)
	}
	if len(in.Entities) >= entityBumpThreshold {
		tier = tier.Bump()
	}
	return tier
}

// Domains counts the distinct data domains an intent's capabilities touch.
func Domains(tag models.IntentTag) int {
	seen := make(map[string]bool)
	for _, c := range tag.Capabilities() {
		if d, ok := capabilityDomains[c]; ok {
			seen[d] = true
		}
	}
	return len(seen)
}
