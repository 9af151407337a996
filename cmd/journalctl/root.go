package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jmanzanog/trade-journal/internal/application"
	"github.com/jmanzanog/trade-journal/internal/infrastructure/config"
	"github.com/jmanzanog/trade-journal/internal/infrastructure/persistence"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	envFile string
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "journalctl",
		Short: "Inspect and maintain the trade journal store",
		Long: `journalctl works directly against the configured trade storage, using
the same STORAGE_DRIVER, DATA_FILE and DB_DSN settings as the server.

Example:
  journalctl migrate
  journalctl list --format yaml
  journalctl get 3f2b8c9e-...`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file to load before reading configuration")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log storage activity to stderr")

	cmd.AddCommand(
		newMigrateCmd(),
		newListCmd(),
		newGetCmd(),
	)

	return cmd
}

func (o *rootOptions) setup(cmd *cobra.Command) error {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))

	if err := godotenv.Load(o.envFile); err != nil {
		if cmd.Flags().Changed("env-file") {
			return fmt.Errorf("load %s: %w", o.envFile, err)
		}
		if !os.IsNotExist(err) {
			slog.Warn("Ignoring unreadable env file", "path", o.envFile, "error", err)
		}
	}
	return nil
}

// openService loads configuration and opens the configured storage. The
// caller must close the returned closer.
func openService(ctx context.Context) (*application.TradeService, io.Closer, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	repo, closer, err := persistence.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return application.NewTradeService(repo), closer, nil
}
