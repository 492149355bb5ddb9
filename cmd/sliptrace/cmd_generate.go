package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/nvandessel/sliptrace/internal/grasp"
	"github.com/nvandessel/sliptrace/internal/logging"
	"github.com/nvandessel/sliptrace/internal/pipeline"
	"github.com/nvandessel/sliptrace/internal/trace"
	"github.com/spf13/cobra"
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run the grasp-slip simulation and write the hex trace",
		Long: `Run the grasp-slip scenario and write one 3-digit hex pixel center per
simulation step.

The object is held for the first steps, then the grip friction ramps down
until the object slips. The run ends after the step limit or as soon as the
object falls below the drop threshold. Nothing is written if the run fails.

Examples:
  sliptrace generate                         # write ../tb/grasp_trace.hex
  sliptrace generate --output trace.hex      # write elsewhere
  sliptrace generate --log-level debug       # also log every frame to .sliptrace/frames.jsonl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd)
		},
	}
	addOutputFlag(cmd)
	return cmd
}

func addOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "", "Trace destination (overrides config)")
}

// runGenerate is shared by the root command and "generate".
func runGenerate(cmd *cobra.Command) error {
	jsonOut, _ := cmd.Flags().GetBool("json")

	cfg, root, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	output := cfg.Output.TracePath
	if o, _ := cmd.Flags().GetString("output"); o != "" {
		output = o
	}

	logger := newLogger(cmd, cfg)
	frames := logging.NewFrameLogger(dataDir(root), cfg.Logging.Level)
	defer frames.Close()

	store, err := openLedger(root, cfg)
	if err != nil {
		return err
	}
	opts := pipeline.Options{OutputPath: output, Logger: logger}
	if store != nil {
		defer store.Close()
		opts.Ledger = store
	}
	if opts.ConfigSnapshot, err = cfg.Snapshot(); err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	out := cmd.OutOrStdout()
	if !jsonOut {
		fmt.Fprintln(out, ">>> SIMULATION START: Holding Object...")
	}

	gen := grasp.NewGenerator(grasp.ConfigFrom(cfg),
		grasp.WithLogger(logger),
		grasp.WithFrameLogger(frames),
	)
	res, err := pipeline.Run(ctx, gen, opts)
	if err != nil {
		return err
	}

	return printResult(out, jsonOut, res)
}

// printResult writes the run summary, or the Result as JSON.
func printResult(out io.Writer, jsonOut bool, res *pipeline.Result) error {
	if jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	switch res.Outcome {
	case trace.OutcomeEarlyDrop:
		fmt.Fprintln(out, ">>> OBJECT DROPPED!")
		fmt.Fprintf(out, "Trace Generated: %d frames captured.\n", res.Frames)
	case trace.OutcomeInjected:
		fmt.Fprintf(out, "Trace Injected: %d frames written.\n", res.Frames)
	default:
		fmt.Fprintf(out, "Trace Generated: %d frames captured.\n", res.Frames)
	}

	fmt.Fprintf(out, "  outcome:   %s\n", res.Outcome)
	if res.FinalZ != nil {
		fmt.Fprintf(out, "  final z:   %.4f m\n", *res.FinalZ)
	}
	fmt.Fprintf(out, "  max pixel: %d\n", res.MaxPixel)
	fmt.Fprintf(out, "  written:   %s (%s)\n", res.Path, res.Checksum)
	if res.RunID != "" {
		fmt.Fprintf(out, "  run:       %s\n", res.RunID)
	}
	return nil
}
