package complexity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ShayCichocki/matchday/pkg/models"
)

func ctxFor(kind models.ChannelKind) models.StandardizedContext {
	return models.NewContext("x", models.ContextFields{UserID: "u1", ChannelKind: kind})
}

func TestAssess(t *testing.T) {
	tests := []struct {
		name   string
		intent models.Intent
		kind   models.ChannelKind
		want   models.ComplexityTier
	}{
		{"self status public", models.Intent{Tag: models.IntentSelfStatus}, models.ChannelPublic, models.ComplexitySimple},
		{"help", models.Intent{Tag: models.IntentHelp}, models.ChannelPrivileged, models.ComplexitySimple},
		{"unknown", models.Intent{Tag: models.IntentUnknown}, models.ChannelPublic, models.ComplexitySimple},
		{"unlisted tag", models.Intent{Tag: "made_up"}, models.ChannelPublic, models.ComplexitySimple},
		{"player lookup one entity", models.Intent{Tag: models.IntentPlayerLookup, Entities: map[string]string{"player": "sam"}},
			models.ChannelPublic, models.ComplexitySimple},
		{"team overview is cross domain", models.Intent{Tag: models.IntentTeamOverview}, models.ChannelPublic, models.ComplexityModerate},
		{"message public", models.Intent{Tag: models.IntentSendMessage}, models.ChannelPublic, models.ComplexitySimple},
		{"message privileged", models.Intent{Tag: models.IntentSendMessage}, models.ChannelPrivileged, models.ComplexityModerate},
		{"many entities bump", models.Intent{Tag: models.IntentMatchInfo, Entities: map[string]string{"a": "1", "b": "2", "c": "3"}},
			models.ChannelPublic, models.ComplexityModerate},
		{"schedule with entities", models.Intent{Tag: models.IntentScheduleMatch, Entities: map[string]string{"opponent": "x", "date": "y", "venue": "z"}},
			models.ChannelPrivileged, models.ComplexityComplex},
	}

	a := New(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Assess(tt.intent, ctxFor(tt.kind)))
		})
	}
}

func TestAssess_CrossDomainFloorSurvivesOverride(t *testing.T) {
	a := New(map[models.IntentTag]models.ComplexityTier{
		models.IntentAvailabilityReport: models.ComplexitySimple,
		models.IntentHelp:               "bogus",
	})

	got := a.Assess(models.Intent{Tag: models.IntentAvailabilityReport}, ctxFor(models.ChannelPublic))
	assert.Equal(t, models.ComplexityModerate, got)
	assert.Equal(t, models.ComplexitySimple, a.Assess(models.Intent{Tag: models.IntentHelp}, ctxFor(models.ChannelPublic)))
}

func TestDomains(t *testing.T) {
	assert.Equal(t, 0, Domains(models.IntentUnknown))
	assert.Equal(t, 1, Domains(models.IntentListPlayers))
	assert.Equal(t, 2, Domains(models.IntentTeamOverview))
	assert.Equal(t, 1, Domains(models.IntentScheduleMatch))
}

func TestAssess_IsPure(t *testing.T) {
	a := New(nil)
	in := models.Intent{Tag: models.IntentTeamOverview, Entities: map[string]string{"a": "1"}}
	first := a.Assess(in, ctxFor(models.ChannelPrivileged))
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, a.Assess(in, ctxFor(models.ChannelPrivileged)))
	}
}
