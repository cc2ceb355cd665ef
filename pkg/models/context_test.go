package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewContext_Defaults(t *testing.T) {
	ctx := NewContext("hi", ContextFields{UserID: "u1", ChannelKind: "weird"})

	assert.Equal(t, ChannelPublic, ctx.ChannelKind())
	assert.False(t, ctx.Privileged())
	assert.False(t, ctx.Timestamp().IsZero())
	assert.Equal(t, RegistrationUnknown, ctx.Registration())
	assert.Equal(t, "u1", ctx.Name())
}

func TestNewContext_Fields(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	ctx := NewContext("what is my status", ContextFields{
		UserID:      "u1",
		TeamID:      "t1",
		ChannelID:   "c1",
		ChannelKind: ChannelPrivileged,
		Username:    "sam9",
		DisplayName: "Sam",
		Permissions: []Permission{PermissionTeamAdmin, PermissionMember, ""},
		Timestamp:   ts,
	})

	assert.Equal(t, "what is my status", ctx.RawText())
	assert.Equal(t, "t1", ctx.TeamID())
	assert.Equal(t, "c1", ctx.ChannelID())
	assert.True(t, ctx.Privileged())
	assert.Equal(t, ts, ctx.Timestamp())
	assert.Equal(t, "Sam", ctx.Name())
	assert.True(t, ctx.HasPermission(PermissionTeamAdmin))
	assert.Equal(t, []Permission{PermissionMember, PermissionTeamAdmin}, ctx.Permissions())
}

func TestNewContext_PermissionsNotAliased(t *testing.T) {
	perms := []Permission{PermissionMember}
	ctx := NewContext("x", ContextFields{Permissions: perms})
	perms[0] = PermissionTeamAdmin

	assert.False(t, ctx.HasPermission(PermissionTeamAdmin))
}

func TestWithRegistration_ReturnsNewValue(t *testing.T) {
	base := NewContext("x", ContextFields{UserID: "u1", Permissions: []Permission{PermissionMember}})
	enriched := base.WithRegistration(RegistrationRegistered)

	assert.Equal(t, RegistrationUnknown, base.Registration())
	assert.Equal(t, RegistrationRegistered, enriched.Registration())
	assert.Equal(t, base.UserID(), enriched.UserID())
	assert.True(t, enriched.HasPermission(PermissionMember))
}
