package main

import (
	"github.com/nvandessel/sliptrace/internal/logging"
	"github.com/nvandessel/sliptrace/internal/pipeline"
	"github.com/nvandessel/sliptrace/internal/trace"
	"github.com/spf13/cobra"
)

func newInjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inject <file>",
		Short: "Write a trace from explicit pixel centers without simulating",
		Long: `Replay a caller-supplied sequence of pixel centers through the trace
writer. The input holds one decimal value per line; blank lines and
'#' comments are ignored. Values must lie within the camera range and the
sequence may not exceed the step limit. Nothing is synthesized.

Examples:
  sliptrace inject slip.txt                  # write ../tb/synthetic_trace.hex
  sliptrace inject slip.txt -o custom.hex`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, root, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			output := cfg.Output.InjectionPath
			if o, _ := cmd.Flags().GetString("output"); o != "" {
				output = o
			}

			values, err := trace.LoadInjection(args[0])
			if err != nil {
				return err
			}
			src := trace.NewInjection(values, cfg.Camera.Min, trace.Limits{
				MaxRecords: cfg.Run.StepLimit,
				MaxValue:   cfg.Camera.Max,
			})

			logger := newLogger(cmd, cfg)
			logger.Log(cmd.Context(), logging.LevelTrace, "injection loaded", "file", args[0], "values", len(values))

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

			res, err := pipeline.Run(cmd.Context(), src, opts)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), jsonOut, res)
		},
	}
	addOutputFlag(cmd)
	return cmd
}
