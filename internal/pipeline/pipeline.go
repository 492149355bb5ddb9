// Package pipeline runs a trace source to completion, writes the result and
// records it in the run ledger.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nvandessel/sliptrace/internal/ledger"
	"github.com/nvandessel/sliptrace/internal/trace"
)

// Recorder stores completed runs. *ledger.Store implements it.
type Recorder interface {
	Record(ctx context.Context, run ledger.Run, frames []trace.Frame) (string, error)
}

// Options configures a pipeline run.
type Options struct {
	// OutputPath is the trace file destination.
	OutputPath string

	// Ledger records the run after the file is written. Nil disables recording.
	Ledger Recorder

	// Logger receives operational messages. Nil discards them.
	Logger *slog.Logger

	// ConfigSnapshot is stored alongside the run in the ledger.
	ConfigSnapshot string
}

// Result summarizes a completed run.
type Result struct {
	Trace    *trace.Trace  `json:"-"`
	Source   string        `json:"source"`
	Outcome  trace.Outcome `json:"outcome"`
	Frames   int           `json:"frames"`
	Path     string        `json:"path"`
	Checksum string        `json:"checksum"`
	RunID    string        `json:"run_id,omitempty"`
	FinalZ   *float64      `json:"final_z,omitempty"`
	MaxPixel int           `json:"max_pixel"`
}

// Run produces a trace from src, writes it to opts.OutputPath and records it.
// Nothing is written when the source fails. A ledger failure after the trace
// file is in place is logged and does not fail the run.
func Run(ctx context.Context, src trace.Source, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.OutputPath == "" {
		return nil, fmt.Errorf("%w: no output path", trace.ErrWrite)
	}

	tr, err := src.Produce(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s source: %w", src.Name(), err)
	}

	checksum, err := trace.WriteFile(opts.OutputPath, tr)
	if err != nil {
		return nil, err
	}
	logger.Debug("trace written", "path", opts.OutputPath, "frames", tr.Len(), "checksum", checksum)

	res := &Result{
		Trace:    tr,
		Source:   tr.Source,
		Outcome:  tr.Outcome,
		Frames:   tr.Len(),
		Path:     opts.OutputPath,
		Checksum: checksum,
		MaxPixel: tr.MaxPixel(),
	}
	if last, ok := tr.Last(); ok && tr.Outcome != trace.OutcomeInjected {
		z := last.Z
		res.FinalZ = &z
	}

	if opts.Ledger != nil {
		id, err := opts.Ledger.Record(ctx, ledger.Run{
			Source:     tr.Source,
			Outcome:    tr.Outcome,
			FrameCount: tr.Len(),
			Checksum:   checksum,
			OutputPath: opts.OutputPath,
			Config:     opts.ConfigSnapshot,
		}, tr.Frames)
		if err != nil {
			logger.Warn("failed to record run in ledger", "error", err)
		} else {
			res.RunID = id
		}
	}

	return res, nil
}
