package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIntentTag(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   IntentTag
		wantOK bool
	}{
		{"exact", "self_status", IntentSelfStatus, true},
		{"upper with spaces", "  LIST_PLAYERS ", IntentListPlayers, true},
		{"dashes", "send-message", IntentSendMessage, true},
		{"words", "team overview", IntentTeamOverview, true},
		{"unknown literal", "unknown", IntentUnknown, true},
		{"garbage", "order pizza", IntentUnknown, false},
		{"empty", "", IntentUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseIntentTag(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestIntentTag_Capabilities(t *testing.T) {
	assert.Equal(t, []Capability{CapabilitySelfStatusRead}, IntentSelfStatus.Capabilities())
	assert.Equal(t,
		[]Capability{CapabilityPlayerDataRead, CapabilityTeamDataRead},
		IntentTeamOverview.Capabilities())
	assert.Empty(t, IntentUnknown.Capabilities())
	assert.Empty(t, IntentTag("nope").Capabilities())
}

func TestIntentTag_CapabilitiesAreCopies(t *testing.T) {
	caps := IntentHelp.Capabilities()
	caps[0] = CapabilityMessaging
	assert.Equal(t, []Capability{CapabilityHelp}, IntentHelp.Capabilities())
}

func TestAllIntentTags_SortedAndValid(t *testing.T) {
	tags := AllIntentTags()
	assert.Contains(t, tags, IntentUnknown)
	for i, tag := range tags {
		assert.True(t, tag.Valid(), tag)
		if i > 0 {
			assert.Less(t, string(tags[i-1]), string(tag))
		}
	}
}

func TestIntentCapabilitiesAreKnown(t *testing.T) {
	for _, tag := range AllIntentTags() {
		for _, c := range tag.Capabilities() {
			assert.True(t, c.Valid(), "intent %s declares unknown capability %s", tag, c)
		}
	}
}

func TestIntent_Entity(t *testing.T) {
	var empty Intent
	assert.Equal(t, "", empty.Entity("player"))

	in := Intent{Tag: IntentPlayerLookup, Entities: map[string]string{"player": "sam"}}
	assert.Equal(t, "sam", in.Entity("player"))
}
