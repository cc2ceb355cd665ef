package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/ShayCichocki/matchday/internal/pipeline"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently handled requests",
	Long: `List the request audit log, newest first: intent, complexity, outcome,
and which agents answered.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		records, err := db.RecentRequests(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(records) == 0 {
			fmt.Fprintln(out, "No requests recorded yet. Try 'matchday ask /help'.")
			return nil
		}

		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tREQUEST\tUSER\tINTENT\tTIER\tSTATUS\tAGENTS")
		for _, r := range records {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				r.CreatedAt.Local().Format("01-02 15:04:05"),
				shortID(r.RequestID), r.UserID, r.Intent, r.Complexity,
				statusColor(r.Status), agentsIn(r.Payload))
		}
		return tw.Flush()
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of requests to show")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// agentsIn pulls the chosen agent of every routed subtask out of an audit payload.
func agentsIn(payload string) string {
	var agents []string
	gjson.Get(payload, "diagnostics.#.routing.chosen_agent_id").ForEach(func(_, v gjson.Result) bool {
		agents = append(agents, v.String())
		return true
	})
	if len(agents) == 0 {
		return "-"
	}
	return fmt.Sprint(agents)
}

func statusColor(status string) string {
	switch status {
	case pipeline.StatusOK:
		return color.GreenString(status)
	case pipeline.StatusPartial, pipeline.StatusBlocked:
		return color.YellowString(status)
	default:
		return color.RedString(status)
	}
}
