package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/nvandessel/sliptrace/internal/config"
	"github.com/nvandessel/sliptrace/internal/constants"
	"github.com/nvandessel/sliptrace/internal/ledger"
	"github.com/nvandessel/sliptrace/internal/logging"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sliptrace",
		Short: "Grasp-slip trace generator for the slip detector testbench",
		Long: `sliptrace simulates a small object held between two fingers while the
grip friction decays, projects the object's slip onto a virtual camera
and writes the per-step pixel centers as a hex trace for the hardware
testbench.

Running sliptrace with no subcommand is the same as "sliptrace generate".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("root", ".", "Project root directory")
	rootCmd.PersistentFlags().String("config", "", "Config file (default <root>/.sliptrace/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug or trace (overrides config)")
	addOutputFlag(rootCmd)

	rootCmd.AddCommand(
		newGenerateCmd(),
		newInjectCmd(),
		newVerifyCmd(),
		newRunsCmd(),
		newConfigCmd(),
		newMCPServerCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

// loadSettings loads and validates configuration for the command's --root,
// --config and --log-level flags.
func loadSettings(cmd *cobra.Command) (*config.SliptraceConfig, string, error) {
	root, _ := cmd.Flags().GetString("root")
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.LoadWithOverrides(root, configPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid config: %w", err)
	}
	return cfg, root, nil
}

// newLogger returns the operational logger, writing to the command's stderr.
func newLogger(cmd *cobra.Command, cfg *config.SliptraceConfig) *slog.Logger {
	return logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
}

// dataDir returns <root>/.sliptrace.
func dataDir(root string) string {
	return filepath.Join(root, constants.DataDirName)
}

// openLedger opens the run ledger, or returns nil when it is disabled.
func openLedger(root string, cfg *config.SliptraceConfig) (*ledger.Store, error) {
	if !cfg.Ledger.Enabled {
		return nil, nil
	}
	store, err := ledger.Open(root)
	if err != nil {
		return nil, fmt.Errorf("failed to open run ledger: %w", err)
	}
	return store, nil
}

// signalContext returns a context cancelled on SIGINT/SIGTERM. The returned
// stop function releases the signal handler.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)

	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}
