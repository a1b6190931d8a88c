// Package cmd implements the busstop command line.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nvr-ai/go-busstop/config"
	"github.com/nvr-ai/go-busstop/logging"
)

// Version is the application version.
const Version = "0.1.0"

var (
	configPath string
	logLevel   string
	logFormat  string

	// cfg is the configuration shared by subcommands, loaded before each run.
	cfg config.Config
	// log is the logger shared by subcommands.
	log *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "busstop",
	Short:         "Bus platform occupancy frame analysis",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if configPath != "" {
			cfg, err = config.LoadFromFile(configPath)
			if err != nil {
				return err
			}
		} else {
			cfg = config.Defaults()
		}

		if cmd.Flags().Changed("log-level") {
			cfg.Log.Level = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			cfg.Log.Format = logging.Format(logFormat)
		}

		log, err = logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
		if err != nil {
			return err
		}
		slog.SetDefault(log)
		return nil
	},
}

// Execute runs the root command until it finishes or the process receives
// SIGINT or SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", string(logging.FormatAuto), "Log format: auto, text or json")
}
