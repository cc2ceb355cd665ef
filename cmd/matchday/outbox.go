package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var outboxDeliver bool

var outboxCmd = &cobra.Command{
	Use:   "outbox",
	Short: "Show team messages waiting to be sent",
	Long: `List announcements queued by send_message for the team.

There is no chat transport attached to the CLI, so --deliver prints each
pending message and marks it delivered.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		msgs, err := db.PendingMessages(cmd.Context(), flagTeam)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(msgs) == 0 {
			fmt.Fprintln(out, "Outbox is empty.")
			return nil
		}
		for _, m := range msgs {
			fmt.Fprintf(out, "%s  %s  from %s\n  %s\n",
				color.CyanString(shortID(m.ID)), m.CreatedAt.Local().Format("2006-01-02 15:04"), m.SenderID, m.Body)
			if !outboxDeliver {
				continue
			}
			if err := db.MarkDelivered(cmd.Context(), m.ID, time.Now()); err != nil {
				return err
			}
			printStatus(out, "✓", "delivered", color.FgGreen)
		}
		return nil
	},
}

func init() {
	outboxCmd.Flags().BoolVar(&outboxDeliver, "deliver", false, "Mark every pending message delivered")
}
