package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/matchday/pkg/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// PlayerStatus is a player's current availability.
type PlayerStatus string

const (
	PlayerActive      PlayerStatus = "active"
	PlayerInjured     PlayerStatus = "injured"
	PlayerUnavailable PlayerStatus = "unavailable"
)

// MatchStatus is the state of a fixture.
type MatchStatus string

const (
	MatchScheduled MatchStatus = "scheduled"
	MatchPlayed    MatchStatus = "played"
	MatchCancelled MatchStatus = "cancelled"
)

// Team is one football team.
type Team struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Player is a squad member. UserID links the player to a chat user.
type Player struct {
	ID          string       `json:"id"`
	TeamID      string       `json:"team_id"`
	UserID      string       `json:"user_id,omitempty"`
	Name        string       `json:"name"`
	Position    string       `json:"position,omitempty"`
	Status      PlayerStatus `json:"status"`
	Registered  bool         `json:"registered"`
	Goals       int          `json:"goals"`
	Appearances int          `json:"appearances"`
}

// Match is one fixture. Date is YYYY-MM-DD.
type Match struct {
	ID        string      `json:"id"`
	TeamID    string      `json:"team_id"`
	Opponent  string      `json:"opponent"`
	Date      string      `json:"date"`
	Venue     string      `json:"venue,omitempty"`
	Status    MatchStatus `json:"status"`
	Result    string      `json:"result,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// TeamSummary aggregates counts for a team overview.
type TeamSummary struct {
	Team            Team `json:"team"`
	Players         int  `json:"players"`
	Registered      int  `json:"registered"`
	Available       int  `json:"available"`
	UpcomingMatches int  `json:"upcoming_matches"`
	PlayedMatches   int  `json:"played_matches"`
	PendingMessages int  `json:"pending_messages"`
}

// UpsertTeam creates or renames a team.
func (db *DB) UpsertTeam(ctx context.Context, t *Team) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO teams (id, name, created_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`, t.ID, t.Name, formatTime(t.CreatedAt))
	if err != nil {
		return fmt.Errorf("upsert team: %w", err)
	}
	return nil
}

// GetTeam returns a team by ID.
func (db *DB) GetTeam(ctx context.Context, id string) (*Team, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var t Team
	var created string
	err := db.conn.QueryRowContext(ctx, `SELECT id, name, created_at FROM teams WHERE id = ?`, id).
		Scan(&t.ID, &t.Name, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("team %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get team: %w", err)
	}
	t.CreatedAt, _ = parseTime(created)
	return &t, nil
}

// UpsertPlayer creates or updates a player.
func (db *DB) UpsertPlayer(ctx context.Context, p *Player) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Status == "" {
		p.Status = PlayerActive
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO players (id, team_id, user_id, name, position, status, registered, goals, appearances)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id, name = excluded.name, position = excluded.position,
			status = excluded.status, registered = excluded.registered,
			goals = excluded.goals, appearances = excluded.appearances
	`, p.ID, p.TeamID, nullString(p.UserID), p.Name, p.Position, string(p.Status), boolInt(p.Registered), p.Goals, p.Appearances)
	if err != nil {
		return fmt.Errorf("upsert player: %w", err)
	}
	return nil
}

const playerColumns = `id, team_id, user_id, name, position, status, registered, goals, appearances`

// ListPlayers returns a team's players ordered by name.
func (db *DB) ListPlayers(ctx context.Context, teamID string) ([]Player, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE team_id = ? ORDER BY name COLLATE NOCASE`, teamID)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()
	return scanPlayers(rows)
}

// FindPlayers returns players whose name contains query, case-insensitively.
func (db *DB) FindPlayers(ctx context.Context, teamID, query string) ([]Player, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE team_id = ? AND LOWER(name) LIKE ? ORDER BY name COLLATE NOCASE`,
		teamID, "%"+strings.ToLower(query)+"%")
	if err != nil {
		return nil, fmt.Errorf("find players: %w", err)
	}
	defer rows.Close()
	return scanPlayers(rows)
}

// PlayerByUser returns the player linked to a chat user.
func (db *DB) PlayerByUser(ctx context.Context, teamID, userID string) (*Player, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE team_id = ? AND user_id = ? LIMIT 1`, teamID, userID)
	if err != nil {
		return nil, fmt.Errorf("player by user: %w", err)
	}
	defer rows.Close()
	players, err := scanPlayers(rows)
	if err != nil {
		return nil, err
	}
	if len(players) == 0 {
		return nil, fmt.Errorf("player for user %s: %w", userID, ErrNotFound)
	}
	return &players[0], nil
}

// Registration resolves a user's registration status for a team.
// Users without a linked player are unregistered.
func (db *DB) Registration(ctx context.Context, teamID, userID string) (models.RegistrationStatus, error) {
	if userID == "" {
		return models.RegistrationUnknown, nil
	}
	p, err := db.PlayerByUser(ctx, teamID, userID)
	if errors.Is(err, ErrNotFound) {
		return models.RegistrationUnregistered, nil
	}
	if err != nil {
		return models.RegistrationUnknown, err
	}
	if p.Registered {
		return models.RegistrationRegistered, nil
	}
	return models.RegistrationUnregistered, nil
}

// CreateMatch schedules a fixture.
func (db *DB) CreateMatch(ctx context.Context, m *Match) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.Status == "" {
		m.Status = MatchScheduled
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO matches (id, team_id, opponent, match_date, venue, status, result, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.TeamID, m.Opponent, m.Date, m.Venue, string(m.Status), m.Result, formatTime(m.CreatedAt))
	if err != nil {
		return fmt.Errorf("create match: %w", err)
	}
	return nil
}

// ListMatches returns a team's fixtures ordered by date. When upcoming is
// set only scheduled matches on or after from are returned.
func (db *DB) ListMatches(ctx context.Context, teamID string, upcoming bool, from time.Time) ([]Match, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	query := `SELECT id, team_id, opponent, match_date, venue, status, result, created_at FROM matches WHERE team_id = ?`
	args := []any{teamID}
	if upcoming {
		query += ` AND status = ? AND match_date >= ?`
		args = append(args, string(MatchScheduled), from.Format("2006-01-02"))
	}
	query += ` ORDER BY match_date`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		var venue, result sql.NullString
		var status, created string
		if err := rows.Scan(&m.ID, &m.TeamID, &m.Opponent, &m.Date, &venue, &status, &result, &created); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		m.Venue = venue.String
		m.Result = result.String
		m.Status = MatchStatus(status)
		m.CreatedAt, _ = parseTime(created)
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// Summary aggregates a team's counts.
func (db *DB) Summary(ctx context.Context, teamID string, today time.Time) (*TeamSummary, error) {
	team, err := db.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	s := &TeamSummary{Team: *team}
	err = db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(registered), 0),
			COALESCE(SUM(CASE WHEN status = 'active' THEN 1 ELSE 0 END), 0)
		FROM players WHERE team_id = ?
	`, teamID).Scan(&s.Players, &s.Registered, &s.Available)
	if err != nil {
		return nil, fmt.Errorf("summarise players: %w", err)
	}

	err = db.conn.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN status = 'scheduled' AND match_date >= ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'played' THEN 1 ELSE 0 END), 0)
		FROM matches WHERE team_id = ?
	`, today.Format("2006-01-02"), teamID).Scan(&s.UpcomingMatches, &s.PlayedMatches)
	if err != nil {
		return nil, fmt.Errorf("summarise matches: %w", err)
	}

	err = db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM outbox WHERE team_id = ? AND delivered_at IS NULL`, teamID).Scan(&s.PendingMessages)
	if err != nil {
		return nil, fmt.Errorf("summarise outbox: %w", err)
	}
	return s, nil
}

func scanPlayers(rows *sql.Rows) ([]Player, error) {
	var players []Player
	for rows.Next() {
		var p Player
		var userID, position sql.NullString
		var status string
		var registered int
		if err := rows.Scan(&p.ID, &p.TeamID, &userID, &p.Name, &position, &status, &registered, &p.Goals, &p.Appearances); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		p.UserID = userID.String
		p.Position = position.String
		p.Status = PlayerStatus(status)
		p.Registered = registered != 0
		players = append(players, p)
	}
	return players, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
