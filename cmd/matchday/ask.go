package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/matchday/internal/console"
	"github.com/ShayCichocki/matchday/pkg/models"
)

var (
	askAdmin       bool
	askJSON        bool
	askDiagnostics bool
)

var askCmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Send one message through the pipeline",
	Long: `Send a single chat message and print the answer.

Examples:
  matchday ask /help
  matchday ask "who is in the squad"
  matchday ask --admin "/schedule United 2024-06-01"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askAdmin, "admin", false, "Send from the privileged channel with team_admin")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "Print the full answer as JSON")
	askCmd.Flags().BoolVarP(&askDiagnostics, "diagnostics", "d", false, "Show routing and validation diagnostics")
}

func identity(admin bool) console.Identity {
	return console.Identity{UserID: flagUser, TeamID: flagTeam, DisplayName: flagUser, Admin: admin}
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg, newCompleter(cfg, cliLogger()))
	if err != nil {
		return err
	}
	defer a.Close()

	text := strings.Join(args, " ")
	answer, err := a.pipeline.HandleRequest(cmd.Context(), text, identity(askAdmin).Fields())
	if err != nil && !errors.Is(err, models.ErrModelUnavailable) {
		return err
	}

	out := cmd.OutOrStdout()
	if askJSON {
		data, jerr := json.MarshalIndent(answer, "", "  ")
		if jerr != nil {
			return fmt.Errorf("encode answer: %w", jerr)
		}
		fmt.Fprintln(out, string(data))
	} else if answer.Text != "" {
		printAnswer(out, answer, askDiagnostics)
	}
	return err
}
