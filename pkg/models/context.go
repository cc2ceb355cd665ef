package models

import (
	"sort"
	"time"
)

// ChannelKind distinguishes where a request was sent from.
type ChannelKind string

const (
	// ChannelPublic is a shared team chat.
	ChannelPublic ChannelKind = "public"
	// ChannelPrivileged is a leadership or admin chat.
	ChannelPrivileged ChannelKind = "privileged"
)

// Valid returns true if the kind is a known value.
func (k ChannelKind) Valid() bool {
	return k == ChannelPublic || k == ChannelPrivileged
}

// Permission is a right granted to the requesting user.
type Permission string

const (
	PermissionMember    Permission = "member"
	PermissionTeamAdmin Permission = "team_admin"
)

// RegistrationStatus is resolved from the store after the context is built.
type RegistrationStatus string

const (
	RegistrationUnknown      RegistrationStatus = "unknown"
	RegistrationRegistered   RegistrationStatus = "registered"
	RegistrationUnregistered RegistrationStatus = "unregistered"
)

// ContextFields are the inbound facts a transport supplies for one request.
type ContextFields struct {
	UserID      string
	TeamID      string
	ChannelID   string
	ChannelKind ChannelKind
	Username    string
	DisplayName string
	Permissions []Permission
	Timestamp   time.Time
}

// StandardizedContext is the immutable per-request fact sheet.
// All fields are unexported; enrichment returns a new value.
type StandardizedContext struct {
	userID       string
	teamID       string
	channelID    string
	channelKind  ChannelKind
	rawText      string
	username     string
	displayName  string
	permissions  map[Permission]struct{}
	timestamp    time.Time
	registration RegistrationStatus
}

// NewContext builds a context from transport fields and the raw request text.
// An invalid channel kind is treated as public; a zero timestamp becomes now.
func NewContext(text string, f ContextFields) StandardizedContext {
	kind := f.ChannelKind
	if !kind.Valid() {
		kind = ChannelPublic
	}
	ts := f.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	perms := make(map[Permission]struct{}, len(f.Permissions))
	for _, p := range f.Permissions {
		if p != "" {
			perms[p] = struct{}{}
		}
	}
	return StandardizedContext{
		userID:       f.UserID,
		teamID:       f.TeamID,
		channelID:    f.ChannelID,
		channelKind:  kind,
		rawText:      text,
		username:     f.Username,
		displayName:  f.DisplayName,
		permissions:  perms,
		timestamp:    ts,
		registration: RegistrationUnknown,
	}
}

func (c StandardizedContext) UserID() string           { return c.userID }
func (c StandardizedContext) TeamID() string           { return c.teamID }
func (c StandardizedContext) ChannelID() string        { return c.channelID }
func (c StandardizedContext) ChannelKind() ChannelKind { return c.channelKind }
func (c StandardizedContext) RawText() string          { return c.rawText }
func (c StandardizedContext) Username() string         { return c.username }
func (c StandardizedContext) DisplayName() string      { return c.displayName }
func (c StandardizedContext) Timestamp() time.Time     { return c.timestamp }

// Registration returns the resolved registration status.
func (c StandardizedContext) Registration() RegistrationStatus {
	if c.registration == "" {
		return RegistrationUnknown
	}
	return c.registration
}

// Privileged reports whether the request came from a privileged channel.
func (c StandardizedContext) Privileged() bool {
	return c.channelKind == ChannelPrivileged
}

// HasPermission reports whether the user holds p.
func (c StandardizedContext) HasPermission(p Permission) bool {
	_, ok := c.permissions[p]
	return ok
}

// Permissions returns a sorted copy of the permission set.
func (c StandardizedContext) Permissions() []Permission {
	out := make([]Permission, 0, len(c.permissions))
	for p := range c.permissions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Name returns the display name, falling back to the username and then the user id.
func (c StandardizedContext) Name() string {
	switch {
	case c.displayName != "":
		return c.displayName
	case c.username != "":
		return c.username
	default:
		return c.userID
	}
}

// WithRegistration returns a copy of the context with the registration status set.
// The receiver is left untouched.
func (c StandardizedContext) WithRegistration(status RegistrationStatus) StandardizedContext {
	next := c
	next.permissions = make(map[Permission]struct{}, len(c.permissions))
	for p := range c.permissions {
		next.permissions[p] = struct{}{}
	}
	next.registration = status
	return next
}
