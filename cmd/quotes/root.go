package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quotesync/internal/platform/config"
	"github.com/jsamuelsen/quotesync/internal/wiring"
)

// rootOptions holds the persistent flags.
type rootOptions struct {
	configDir string
	profile   string
	verbose   bool
	json      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "quotes",
		Short: "Manage the local quote store",
		Long: `quotes reads and changes the same store the quotesync service uses.

Quotes are kept locally and reconciled with the remote source on demand
with "quotes sync". Configuration comes from the configs directory and
APP_ environment variables, e.g. APP_STORAGE__PATH=./quotes.db.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configDir, "config-dir", config.DefaultConfigDir, "Directory holding base.yaml and profile files")
	cmd.PersistentFlags().StringVar(&opts.profile, "profile", envOr("APP_ENVIRONMENT", "local"), "Configuration profile")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log at the configured level instead of warnings only")
	cmd.PersistentFlags().BoolVar(&opts.json, "json", false, "Write machine-readable JSON")

	cmd.AddCommand(
		newAddCmd(opts),
		newListCmd(opts),
		newRandomCmd(opts),
		newCategoriesCmd(opts),
		newFilterCmd(opts),
		newExportCmd(opts),
		newImportCmd(opts),
		newSyncCmd(opts),
	)

	return cmd
}

// withApp builds the application, runs fn and closes it. Nothing is
// started in the background; sync happens only through the sync command.
func withApp(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, a *wiring.App) error) error {
	cfg, err := config.LoadFrom(opts.configDir, opts.profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if !opts.verbose {
		cfg.Log.Level = "warn"
		cfg.Log.Format = "pretty"
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := wiring.Build(ctx, cfg, wiring.Options{LogWriter: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}

	runErr := fn(ctx, a)

	if err := a.Close(context.WithoutCancel(ctx)); err != nil && runErr == nil {
		return fmt.Errorf("closing store: %w", err)
	}

	return runErr
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
