package main

import (
	"io"
	"log/slog"

	"github.com/go-band-notify/internal/config"
	"github.com/go-band-notify/internal/pkg/logging"
	"github.com/spf13/cobra"
)

// cli carries what every subcommand shares once PersistentPreRunE has run.
type cli struct {
	cfg       *config.Config
	log       *slog.Logger
	logCloser io.Closer
}

func rootCommand(cfg *config.Config) *cobra.Command {
	c := &cli{cfg: cfg}

	rootCmd := &cobra.Command{
		Use:           "notifier",
		Short:         "Band notification delivery pipeline",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.cfg.Validate(); err != nil {
				return err
			}
			log, closer, err := logging.New(c.cfg.Log)
			if err != nil {
				return err
			}
			slog.SetDefault(log)
			c.log, c.logCloser = log, closer
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if c.logCloser != nil {
				return c.logCloser.Close()
			}
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.StoreBackend, "backend", cfg.StoreBackend, "store backend: sqlite or dynamo")
	flags.StringVar(&cfg.SQLitePath, "sqlite-path", cfg.SQLitePath, "SQLite database file")
	flags.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "debug, info, warn or error")

	rootCmd.AddCommand(
		serveCommand(c),
		cycleCommand(c),
		migrateCommand(c),
		membersCommand(c),
	)
	return rootCmd
}
