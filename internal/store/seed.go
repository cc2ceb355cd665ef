package store

import (
	"context"
	"fmt"
	"time"
)

// Seed writes a small demo team so the CLI has something to answer with.
// It is idempotent for a given team ID.
func (db *DB) Seed(ctx context.Context, teamID, teamName string, today time.Time) error {
	if err := db.UpsertTeam(ctx, &Team{ID: teamID, Name: teamName}); err != nil {
		return err
	}

	players := []Player{
		{ID: teamID + "-p1", UserID: "u-alex", Name: "Alex Morgan", Position: "forward", Registered: true, Goals: 7, Appearances: 10},
		{ID: teamID + "-p2", UserID: "u-sam", Name: "Sam Kerr", Position: "forward", Registered: true, Goals: 5, Appearances: 9},
		{ID: teamID + "-p3", UserID: "u-jo", Name: "Jo Potter", Position: "defender", Registered: false, Appearances: 4},
		{ID: teamID + "-p4", UserID: "u-mary", Name: "Mary Earps", Position: "goalkeeper", Status: PlayerInjured, Registered: true, Appearances: 8},
	}
	for i := range players {
		players[i].TeamID = teamID
		if err := db.UpsertPlayer(ctx, &players[i]); err != nil {
			return fmt.Errorf("seed player %s: %w", players[i].Name, err)
		}
	}

	existing, err := db.ListMatches(ctx, teamID, false, today)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	matches := []Match{
		{Opponent: "Rovers", Date: today.AddDate(0, 0, -7).Format("2006-01-02"), Status: MatchPlayed, Result: "2-1"},
		{Opponent: "United", Date: today.AddDate(0, 0, 5).Format("2006-01-02"), Venue: "home"},
		{Opponent: "Athletic", Date: today.AddDate(0, 0, 12).Format("2006-01-02"), Venue: "away"},
	}
	for i := range matches {
		matches[i].TeamID = teamID
		if err := db.CreateMatch(ctx, &matches[i]); err != nil {
			return fmt.Errorf("seed match %s: %w", matches[i].Opponent, err)
		}
	}
	return nil
}
