package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var seedTeamName string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create a demo team with players and fixtures",
	Long: `Seed the database with a demo squad and a few fixtures around today.
Seeding is idempotent: existing players are updated, fixtures are only
added when the team has none.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.Seed(cmd.Context(), flagTeam, seedTeamName, time.Now()); err != nil {
			return fmt.Errorf("seed team %s: %w", flagTeam, err)
		}

		summary, err := db.Summary(cmd.Context(), flagTeam, time.Now())
		if err != nil {
			return err
		}
		printStatus(cmd.OutOrStdout(), "✓", fmt.Sprintf("Seeded %s (%s) in %s", seedTeamName, flagTeam, db.Path()), color.FgGreen)
		printStatus(cmd.OutOrStdout(), "•", fmt.Sprintf("%d players, %d upcoming matches", summary.Players, summary.UpcomingMatches), color.FgCyan)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedTeamName, "name", "Reds", "Team name")
}
