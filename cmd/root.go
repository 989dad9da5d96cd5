package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/goclaw-node/internal/config"
	"github.com/nextlevelbuilder/goclaw-node/internal/debuglog"
)

// Version is set at build time with -ldflags "-X .../cmd.Version=...".
var Version = "dev"

// app holds state shared by subcommands, filled in by the root pre-run.
var app struct {
	cfgPath  string
	logLevel string
	live     *config.Live
	ring     *debuglog.Ring
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "goclaw-node",
		Short:         "Headless node and operator client for a goclaw gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(app.cfgPath)
			if err != nil {
				return err
			}
			if app.logLevel != "" {
				cfg.Log.Level = app.logLevel
			}
			app.live = config.NewLive(cfg, app.cfgPath)
			app.ring = setupLogging(cfg.Log)
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&app.cfgPath, "config", "c", os.Getenv("GOCLAW_NODE_CONFIG"), "config file (.json5, .json, .yaml)")
	root.PersistentFlags().StringVar(&app.logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	root.AddCommand(nodeCmd(), chatCmd(), trustCmd(), versionCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the client version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
		},
	}
}

// Execute runs the CLI until completion or SIGINT/SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
