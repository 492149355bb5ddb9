package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/nvandessel/sliptrace/internal/trace"
	"github.com/spf13/cobra"
)

// verifyReport is the JSON shape of "sliptrace verify".
type verifyReport struct {
	Path     string `json:"path"`
	Valid    bool   `json:"valid"`
	Records  int    `json:"records"`
	MaxPixel int    `json:"max_pixel"`
	Checksum string `json:"checksum"`
	Error    string `json:"error,omitempty"`
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify [file]",
		Short: "Check a trace file for testbench well-formedness",
		Long: `Check that every record of a trace file is exactly three lowercase hex
digits followed by a newline, within the camera range, and that the record
count is between 1 and the step limit.

Defaults to the configured physics trace path.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, _, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			path := cfg.Output.TracePath
			if len(args) == 1 {
				path = args[0]
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading trace: %w", err)
			}

			report := verifyReport{Path: path, MaxPixel: -1, Checksum: trace.Checksum(data)}
			pixels, parseErr := trace.Parse(bytes.NewReader(data), trace.Limits{
				MaxRecords: cfg.Run.StepLimit,
				MaxValue:   cfg.Camera.Max,
			})
			if parseErr != nil {
				report.Error = parseErr.Error()
			} else {
				report.Valid = true
				report.Records = len(pixels)
				for _, p := range pixels {
					report.MaxPixel = max(report.MaxPixel, p)
				}
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				if err := json.NewEncoder(out).Encode(report); err != nil {
					return err
				}
			} else if report.Valid {
				fmt.Fprintf(out, "%s: OK, %d records, max pixel %d (%s)\n", path, report.Records, report.MaxPixel, report.Checksum)
			} else {
				fmt.Fprintf(out, "%s: INVALID: %s\n", path, report.Error)
			}

			if parseErr != nil {
				return fmt.Errorf("verification failed: %w", parseErr)
			}
			return nil
		},
	}
}
