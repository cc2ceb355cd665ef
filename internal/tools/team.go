package tools

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ShayCichocki/matchday/internal/store"
	"github.com/ShayCichocki/matchday/pkg/models"
)

// Store is the team data the built-in tools read and write.
type Store interface {
	ListPlayers(ctx context.Context, teamID string) ([]store.Player, error)
	FindPlayers(ctx context.Context, teamID, query string) ([]store.Player, error)
	PlayerByUser(ctx context.Context, teamID, userID string) (*store.Player, error)
	Summary(ctx context.Context, teamID string, today time.Time) (*store.TeamSummary, error)
	ListMatches(ctx context.Context, teamID string, upcoming bool, from time.Time) ([]store.Match, error)
	CreateMatch(ctx context.Context, m *store.Match) error
	EnqueueMessage(ctx context.Context, m *store.OutboxMessage) error
}

// Option configures the built-in tools.
type Option func(*base)

// WithClock sets the clock used for "today".
func WithClock(now func() time.Time) Option {
	return func(b *base) {
		if now != nil {
			b.now = now
		}
	}
}

type base struct {
	store Store
	now   func() time.Time
}

// Builtin returns the store-backed tools.
func Builtin(st Store, opts ...Option) []Tool {
	b := &base{store: st, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return []Tool{
		&getPlayer{b},
		&listPlayers{b},
		&myStatus{b},
		&teamOverview{b},
		&listMatches{b},
		&sendMessage{b},
		&scheduleMatch{b},
	}
}

// DefaultCatalog builds a catalog of the built-in tools.
func DefaultCatalog(st Store, opts ...Option) (*Catalog, error) {
	return NewCatalog(Builtin(st, opts...)...)
}

func requireTeam(sctx models.StandardizedContext) error {
	if sctx.TeamID() == "" {
		return errors.New("request has no team")
	}
	return nil
}

func requireAdmin(name string, sctx models.StandardizedContext) error {
	if !sctx.HasPermission(models.PermissionTeamAdmin) {
		return fmt.Errorf("%s requires %s: %w", name, models.PermissionTeamAdmin, models.ErrPermissionDenied)
	}
	return nil
}

func playerItem(p store.Player) map[string]string {
	return map[string]string{
		"id":          p.ID,
		"name":        p.Name,
		"position":    p.Position,
		"status":      string(p.Status),
		"registered":  strconv.FormatBool(p.Registered),
		"goals":       strconv.Itoa(p.Goals),
		"appearances": strconv.Itoa(p.Appearances),
	}
}

func playerLine(p store.Player) string {
	line := p.Name
	if p.Position != "" {
		line += " (" + p.Position + ")"
	}
	return fmt.Sprintf("%s - %s, %d goals in %d appearances", line, p.Status, p.Goals, p.Appearances)
}

func playersOutput(players []store.Player) Output {
	out := Output{Items: make([]map[string]string, 0, len(players))}
	lines := make([]string, 0, len(players))
	for _, p := range players {
		out.Items = append(out.Items, playerItem(p))
		lines = append(lines, playerLine(p))
	}
	out.Text = strings.Join(lines, "\n")
	return out
}

func matchItem(m store.Match) map[string]string {
	return map[string]string{
		"id":       m.ID,
		"opponent": m.Opponent,
		"date":     m.Date,
		"venue":    m.Venue,
		"status":   string(m.Status),
		"result":   m.Result,
	}
}

func matchLine(m store.Match) string {
	line := m.Date + " vs " + m.Opponent
	if m.Venue != "" {
		line += " (" + m.Venue + ")"
	}
	if m.Result != "" {
		line += " " + m.Result
	}
	return line
}

type getPlayer struct{ *base }

func (t *getPlayer) Name() string        { return "get_player" }
func (t *getPlayer) Description() string { return "Look up players by name. Input: name." }
func (t *getPlayer) Capabilities() []models.Capability {
	return []models.Capability{models.CapabilityPlayerDataRead}
}

func (t *getPlayer) Invoke(ctx context.Context, sctx models.StandardizedContext, in Input) (Output, error) {
	if err := requireTeam(sctx); err != nil {
		return Output{}, err
	}
	name := strings.TrimSpace(in["name"])
	if name == "" {
		return Output{}, errors.New("get_player: missing input name")
	}
	players, err := t.store.FindPlayers(ctx, sctx.TeamID(), name)
	if err != nil {
		return Output{}, err
	}
	if len(players) == 0 {
		return Output{Text: "no player matching " + name}, nil
	}
	return playersOutput(players), nil
}

type listPlayers struct{ *base }

func (t *listPlayers) Name() string { return "list_players" }
func (t *listPlayers) Description() string {
	return "List the team's players. Optional input: status (active, injured, unavailable)."
}
func (t *listPlayers) Capabilities() []models.Capability {
	return []models.Capability{models.CapabilityPlayerDataRead, models.CapabilityTeamDataRead}
}

func (t *listPlayers) Invoke(ctx context.Context, sctx models.StandardizedContext, in Input) (Output, error) {
	if err := requireTeam(sctx); err != nil {
		return Output{}, err
	}
	players, err := t.store.ListPlayers(ctx, sctx.TeamID())
	if err != nil {
		return Output{}, err
	}
	if status := strings.TrimSpace(in["status"]); status != "" {
		filtered := players[:0]
		for _, p := range players {
			if string(p.Status) == status {
				filtered = append(filtered, p)
			}
		}
		players = filtered
	}
	return playersOutput(players), nil
}

type myStatus struct{ *base }

func (t *myStatus) Name() string        { return "my_status" }
func (t *myStatus) Description() string { return "Show the requesting user's own player record." }
func (t *myStatus) Capabilities() []models.Capability {
	return []models.Capability{models.CapabilitySelfStatusRead}
}

func (t *myStatus) Invoke(ctx context.Context, sctx models.StandardizedContext, _ Input) (Output, error) {
	if err := requireTeam(sctx); err != nil {
		return Output{}, err
	}
	p, err := t.store.PlayerByUser(ctx, sctx.TeamID(), sctx.UserID())
	if errors.Is(err, store.ErrNotFound) {
		return Output{Text: "no player linked to this user"}, nil
	}
	if err != nil {
		return Output{}, err
	}
	return playersOutput([]store.Player{*p}), nil
}

type teamOverview struct{ *base }

func (t *teamOverview) Name() string { return "team_overview" }
func (t *teamOverview) Description() string {
	return "Summarise squad size, availability and fixtures."
}
func (t *teamOverview) Capabilities() []models.Capability {
	return []models.Capability{models.CapabilityTeamDataRead}
}

func (t *teamOverview) Invoke(ctx context.Context, sctx models.StandardizedContext, _ Input) (Output, error) {
	if err := requireTeam(sctx); err != nil {
		return Output{}, err
	}
	s, err := t.store.Summary(ctx, sctx.TeamID(), t.now())
	if err != nil {
		return Output{}, err
	}
	item := map[string]string{
		"team":             s.Team.Name,
		"players":          strconv.Itoa(s.Players),
		"registered":       strconv.Itoa(s.Registered),
		"available":        strconv.Itoa(s.Available),
		"upcoming_matches": strconv.Itoa(s.UpcomingMatches),
		"played_matches":   strconv.Itoa(s.PlayedMatches),
		"pending_messages": strconv.Itoa(s.PendingMessages),
	}
	text := fmt.Sprintf("%s: %d players (%d registered, %d available), %d upcoming and %d played matches",
		s.Team.Name, s.Players, s.Registered, s.Available, s.UpcomingMatches, s.PlayedMatches)
	return Output{Text: text, Items: []map[string]string{item}}, nil
}

type listMatches struct{ *base }

func (t *listMatches) Name() string { return "list_matches" }
func (t *listMatches) Description() string {
	return "List fixtures. Optional input: all=true to include past matches."
}
func (t *listMatches) Capabilities() []models.Capability {
	return []models.Capability{models.CapabilityMatchDataRead}
}

func (t *listMatches) Invoke(ctx context.Context, sctx models.StandardizedContext, in Input) (Output, error) {
	if err := requireTeam(sctx); err != nil {
		return Output{}, err
	}
	all, _ := strconv.ParseBool(in["all"])
	matches, err := t.store.ListMatches(ctx, sctx.TeamID(), !all, t.now())
	if err != nil {
		return Output{}, err
	}
	out := Output{Items: make([]map[string]string, 0, len(matches))}
	lines := make([]string, 0, len(matches))
	for _, m := range matches {
		out.Items = append(out.Items, matchItem(m))
		lines = append(lines, matchLine(m))
	}
	out.Text = strings.Join(lines, "\n")
	return out, nil
}

type sendMessage struct{ *base }

func (t *sendMessage) Name() string        { return "send_message" }
func (t *sendMessage) Description() string { return "Queue an announcement to the team. Input: body." }
func (t *sendMessage) Capabilities() []models.Capability {
	return []models.Capability{models.CapabilityMessaging}
}
func (t *sendMessage) Writes() bool { return true }

func (t *sendMessage) Invoke(ctx context.Context, sctx models.StandardizedContext, in Input) (Output, error) {
	if err := requireTeam(sctx); err != nil {
		return Output{}, err
	}
	if err := requireAdmin(t.Name(), sctx); err != nil {
		return Output{}, err
	}
	body := strings.TrimSpace(in["body"])
	if body == "" {
		return Output{}, errors.New("send_message: missing input body")
	}
	msg := &store.OutboxMessage{
		TeamID:    sctx.TeamID(),
		ChannelID: sctx.ChannelID(),
		SenderID:  sctx.UserID(),
		Body:      body,
	}
	if err := t.store.EnqueueMessage(ctx, msg); err != nil {
		return Output{}, err
	}
	return Output{
		Text:  "queued message " + msg.ID,
		Items: []map[string]string{{"id": msg.ID, "body": body}},
	}, nil
}

type scheduleMatch struct{ *base }

func (t *scheduleMatch) Name() string { return "schedule_match" }
func (t *scheduleMatch) Description() string {
	return "Schedule a fixture. Input: opponent, date (YYYY-MM-DD), optional venue."
}
func (t *scheduleMatch) Capabilities() []models.Capability {
	return []models.Capability{models.CapabilityScheduling}
}
func (t *scheduleMatch) Writes() bool { return true }

func (t *scheduleMatch) Invoke(ctx context.Context, sctx models.StandardizedContext, in Input) (Output, error) {
	if err := requireTeam(sctx); err != nil {
		return Output{}, err
	}
	if err := requireAdmin(t.Name(), sctx); err != nil {
		return Output{}, err
	}
	opponent := strings.TrimSpace(in["opponent"])
	if opponent == "" {
		return Output{}, errors.New("schedule_match: missing input opponent")
	}
	date, err := time.Parse("2006-01-02", strings.TrimSpace(in["date"]))
	if err != nil {
		return Output{}, fmt.Errorf("schedule_match: invalid date %q", in["date"])
	}
	m := &store.Match{
		TeamID:   sctx.TeamID(),
		Opponent: opponent,
		Date:     date.Format("2006-01-02"),
		Venue:    strings.TrimSpace(in["venue"]),
	}
	if err := t.store.CreateMatch(ctx, m); err != nil {
		return Output{}, err
	}
	return Output{Text: "scheduled " + matchLine(*m), Items: []map[string]string{matchItem(*m)}}, nil
}
