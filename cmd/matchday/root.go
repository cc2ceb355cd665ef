package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/matchday/internal/config"
	"github.com/ShayCichocki/matchday/internal/logging"
)

var (
	flagConfig   string
	flagDatabase string
	flagTeam     string
	flagUser     string
	flagLogLevel string

	// cfg is loaded once in PersistentPreRunE.
	cfg       *config.Config
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "matchday",
	Short: "Football team chat assistant",
	Long: `matchday answers team chat requests: who is in the squad, when the
next match is, am I registered, and admin actions like scheduling a match
or messaging the team.

Every request is classified, split into subtasks, routed to the agent best
suited to it, and checked against the data the agents actually looked up
before an answer goes out.

With no arguments, starts the interactive chat console.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadConfig()
		if err != nil {
			return err
		}
		cfg = loaded

		level := cfg.Log.Level
		if flagLogLevel != "" {
			level = flagLogLevel
		}
		closer, err := logging.Setup(logging.Options{Level: level, File: cfg.Log.File, Console: cfg.Log.File == ""})
		if err != nil {
			return fmt.Errorf("setup logging: %w", err)
		}
		logCloser = closer
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, args)
	},
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	var (
		c   *config.Config
		err error
	)
	if flagConfig != "" {
		c, err = config.LoadFromPath(flagConfig)
	} else {
		c, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if flagDatabase != "" {
		c.Paths.Database = flagDatabase
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default: user and project config)")
	rootCmd.PersistentFlags().StringVar(&flagDatabase, "db", "", "Database path (overrides paths.database)")
	rootCmd.PersistentFlags().StringVar(&flagTeam, "team", "t1", "Team the requests are sent from")
	rootCmd.PersistentFlags().StringVar(&flagUser, "user", "u-alex", "User the requests are sent as")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(matrixCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(outboxCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
