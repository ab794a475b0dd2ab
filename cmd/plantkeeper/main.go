// Package main implements the plantkeeper CLI.
//
// plantkeeper identifies plants and diagnoses their health from photos, keeps
// a personal garden, and syncs every record with the backend. It works offline
// from the local cache when the backend is unreachable.
//
// Usage:
//
//	plantkeeper identify photo.jpg
//	plantkeeper diagnose photo.jpg --plant 1717243200000 --context "brown tips"
//	plantkeeper garden add <identification-id> --nickname Fig
//	plantkeeper list garden
//	plantkeeper signin --token <access-token>
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"plantkeeper/internal/config"
	"plantkeeper/internal/core"
	"plantkeeper/internal/logging"
	"plantkeeper/internal/remote"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool
	jsonOutput bool
	timeout    time.Duration

	// Loaded in PersistentPreRunE
	cfg *config.Config
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "plantkeeper",
	Short: "plantkeeper - plant identification, health diagnosis and garden tracking",
	Long: `plantkeeper identifies plants from photos, diagnoses plant health problems,
and keeps a garden of the plants you care for.

Records are stored by the backend and mirrored to a local cache, so listing
keeps working offline. Writes always go to the backend first.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if verbose {
			loaded.Logging.Level = "debug"
		}
		if err := logging.Initialize(loaded.Logging.ToLogging()); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
		cfg = loaded
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "plantkeeper.yaml", "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print records as JSON")
	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "t", 3*time.Minute, "Operation timeout")

	rootCmd.AddCommand(
		identifyCmd,
		diagnoseCmd,
		listCmd,
		gardenCmd,
		signinCmd,
		signoutCmd,
		whoamiCmd,
		syncCmd,
	)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openApp builds the core App for one command and returns a context bounded
// by --timeout. The caller must run the returned cleanup.
func openApp(cmd *cobra.Command) (*core.App, context.Context, func(), error) {
	if cfg == nil {
		return nil, nil, nil, errors.New("configuration not loaded")
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	app, err := core.New(ctx, cfg)
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}
	cleanup := func() {
		if err := app.Close(); err != nil {
			logging.CoreError("close: %v", err)
		}
		cancel()
	}
	return app, ctx, cleanup, nil
}

// writeFailed annotates a failed write. Nothing is kept locally when the
// backend refuses a write, so the user has to retry.
func writeFailed(what string, err error) error {
	switch {
	case errors.Is(err, core.ErrNoImage), errors.Is(err, core.ErrAnalyzerUnavailable), errors.Is(err, core.ErrNotFound):
		return fmt.Errorf("%s: %w", what, err)
	case errors.Is(err, remote.ErrRemote):
		return fmt.Errorf("%s: %w\nthe backend rejected the write; nothing was saved", what, err)
	default:
		return fmt.Errorf("%s: %w\nnothing was saved; try again once the connection is back", what, err)
	}
}
