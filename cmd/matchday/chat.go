package main

import (
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/matchday/internal/console"
)

var (
	chatAdmin       bool
	chatDiagnostics bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive chat console",
	Long: `Open a terminal chat that sends every message through the pipeline.

Keys:
  enter   send
  ctrl+a  toggle the privileged admin channel
  ctrl+d  toggle diagnostics
  ctrl+c  quit`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatAdmin, "admin", false, "Start in the privileged channel with team_admin")
	chatCmd.Flags().BoolVarP(&chatDiagnostics, "diagnostics", "d", false, "Show routing and validation diagnostics")
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg, newCompleter(cfg, cliLogger()))
	if err != nil {
		return err
	}
	defer a.Close()

	return console.Run(a.pipeline, identity(chatAdmin),
		console.WithContext(cmd.Context()),
		console.WithDiagnostics(chatDiagnostics),
	)
}
