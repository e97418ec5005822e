// Package cmd implements the eqviz CLI command tree.
// This file defines the root command and registers all global persistent flags.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/eqviz/internal/app"
	"github.com/derickschaefer/eqviz/internal/config"
	"github.com/derickschaefer/eqviz/internal/render"
)

// globalFlags holds the parsed values of all persistent (global) flags.
// Commands read from this struct via the deps they receive.
var globalFlags struct {
	APIBase  string
	Username string
	Password string
	Format   string
	Out      string
	Timeout  string
	Rate     float64
	DB       string
	Quiet    bool
	Verbose  bool
	Debug    bool
}

// rootCmd is the base command. Running `eqviz` with no subcommand
// prints help.
var rootCmd = &cobra.Command{
	Use:   "eqviz",
	Short: "eqviz — Chemical Equipment Parameter Visualizer client",
	Long: `eqviz is a client for the Chemical Equipment Parameter Visualizer API.

Upload equipment CSV files, review the computed summary (totals, averages and
the equipment type distribution), browse the recent upload history and
download the generated PDF reports.

Credentials are passed per invocation and are never written to disk.

Quick start:
  eqviz config init                                   # create config.json
  eqviz --username ops --password secret history      # recent uploads
  eqviz --username ops --password secret upload plant.csv
  eqviz --username ops --password secret summary --png types.png
  eqviz --username ops --password secret serve        # browser client`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
}

// Execute is the entry point called by main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

// setupLogging routes slog debug output to stderr when --debug is set.
func setupLogging(cmd *cobra.Command, args []string) error {
	level := slog.LevelWarn
	if globalFlags.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// buildDeps resolves config and constructs the dependency container.
// Called at the start of each command's RunE.
func buildDeps() (*app.Deps, error) {
	cfg, err := config.Load(globalFlags.APIBase)
	if err != nil {
		return nil, err
	}

	// Apply CLI flag overrides
	cfg.Quiet = globalFlags.Quiet
	cfg.Verbose = globalFlags.Verbose
	cfg.Debug = globalFlags.Debug

	if globalFlags.Format != "" {
		cfg.Format = globalFlags.Format
	}
	if !render.ValidFormat(cfg.Format) {
		return nil, fmt.Errorf("unknown format %q (valid: %v)", cfg.Format, render.Formats)
	}
	if globalFlags.Timeout != "" {
		d, err := time.ParseDuration(globalFlags.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid --timeout %q: %w", globalFlags.Timeout, err)
		}
		cfg.Timeout = d
	}
	if globalFlags.Rate > 0 {
		cfg.Rate = globalFlags.Rate
	}
	if globalFlags.DB != "" {
		cfg.DBPath = globalFlags.DB
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return app.New(cfg), nil
}

func init() {
	pf := rootCmd.PersistentFlags()

	pf.StringVar(&globalFlags.APIBase, "api-base", "",
		"API base URL (overrides env EQVIZ_API_BASE and config.json)")
	pf.StringVar(&globalFlags.Username, "username", "",
		"API username (kept in memory only)")
	pf.StringVar(&globalFlags.Password, "password", "",
		"API password (kept in memory only)")
	pf.StringVar(&globalFlags.Format, "format", "",
		"output format: table|json|jsonl|csv|tsv|md|xlsx (default: table)")
	pf.StringVar(&globalFlags.Out, "out", "",
		"write output to file instead of stdout")
	pf.StringVar(&globalFlags.Timeout, "timeout", "",
		"HTTP request timeout (e.g. 30s, 2m)")
	pf.Float64Var(&globalFlags.Rate, "rate", 0,
		"max API requests per second (default: 5.0)")
	pf.StringVar(&globalFlags.DB, "db", "",
		"report cache database path (default: ~/.eqviz/reports.db)")
	pf.BoolVar(&globalFlags.Quiet, "quiet", false,
		"suppress all non-error output")
	pf.BoolVar(&globalFlags.Verbose, "verbose", false,
		"show timing stats after output")
	pf.BoolVar(&globalFlags.Debug, "debug", false,
		"log HTTP requests and responses (credentials redacted)")
}
