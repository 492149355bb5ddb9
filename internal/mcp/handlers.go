package mcp

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/sliptrace/internal/constants"
	"github.com/nvandessel/sliptrace/internal/grasp"
	"github.com/nvandessel/sliptrace/internal/pathutil"
	"github.com/nvandessel/sliptrace/internal/pipeline"
	"github.com/nvandessel/sliptrace/internal/trace"
)

// defaultRunsLimit caps sliptrace_runs when no limit is given.
const defaultRunsLimit = 20

// registerTools registers all sliptrace MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "sliptrace_generate",
		Description: "Run the grasp-slip simulation (or replay injected values) and write the hex trace for the testbench",
	}, s.handleGenerate)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "sliptrace_verify",
		Description: "Check that a trace file holds only 3-digit lowercase hex records within the camera range",
	}, s.handleVerify)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "sliptrace_runs",
		Description: "List previously generated traces from the run ledger",
	}, s.handleRuns)
}

// handleGenerate implements the sliptrace_generate tool.
func (s *Server) handleGenerate(ctx context.Context, req *sdk.CallToolRequest, args GenerateInput) (_ *sdk.CallToolResult, _ GenerateOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("sliptrace_generate", start, retErr, map[string]any{
			"source": args.Source, "output": args.Output, "values": args.Values,
		})
	}()

	if err := s.limiters.Check("sliptrace_generate"); err != nil {
		return nil, GenerateOutput{}, err
	}

	var src trace.Source
	output := args.Output
	switch args.Source {
	case "", constants.SourcePhysics:
		if len(args.Values) > 0 {
			return nil, GenerateOutput{}, fmt.Errorf("values are only accepted with source %q", constants.SourceInjection)
		}
		opts := []grasp.Option{grasp.WithLogger(s.logger)}
		if s.newEngine != nil {
			opts = append(opts, grasp.WithEngine(s.newEngine))
		}
		src = grasp.NewGenerator(grasp.ConfigFrom(s.settings), opts...)
		if output == "" {
			output = s.settings.Output.TracePath
		}
	case constants.SourceInjection:
		src = trace.NewInjection(args.Values, s.settings.Camera.Min, trace.Limits{
			MaxRecords: s.settings.Run.StepLimit,
			MaxValue:   s.settings.Camera.Max,
		})
		if output == "" {
			output = s.settings.Output.InjectionPath
		}
	default:
		return nil, GenerateOutput{}, fmt.Errorf("unknown source %q (valid: %s, %s)", args.Source, constants.SourcePhysics, constants.SourceInjection)
	}

	output = pathutil.Resolve(s.root, output)
	if err := pathutil.Confine(output, s.allowedDirs()); err != nil {
		return nil, GenerateOutput{}, err
	}

	snapshot, err := s.settings.Snapshot()
	if err != nil {
		return nil, GenerateOutput{}, err
	}
	popts := pipeline.Options{
		OutputPath:     output,
		Logger:         s.logger,
		ConfigSnapshot: snapshot,
	}
	if s.ledger != nil {
		popts.Ledger = s.ledger
	}

	res, err := pipeline.Run(ctx, src, popts)
	if err != nil {
		return nil, GenerateOutput{}, err
	}

	return nil, GenerateOutput{
		Source:   res.Source,
		Outcome:  string(res.Outcome),
		Frames:   res.Frames,
		Path:     res.Path,
		Checksum: res.Checksum,
		RunID:    res.RunID,
		FinalZ:   res.FinalZ,
		MaxPixel: res.MaxPixel,
		Message:  summaryMessage(res),
	}, nil
}

// summaryMessage mirrors the console summary printed by the CLI.
func summaryMessage(res *pipeline.Result) string {
	switch res.Outcome {
	case trace.OutcomeEarlyDrop:
		return fmt.Sprintf("Object dropped. Trace generated: %d frames captured", res.Frames)
	case trace.OutcomeInjected:
		return fmt.Sprintf("Injected trace written: %d frames", res.Frames)
	default:
		return fmt.Sprintf("Trace generated: %d frames captured", res.Frames)
	}
}

// handleVerify implements the sliptrace_verify tool. A malformed file is
// reported in the output, not as a tool error.
func (s *Server) handleVerify(ctx context.Context, req *sdk.CallToolRequest, args VerifyInput) (_ *sdk.CallToolResult, _ VerifyOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("sliptrace_verify", start, retErr, map[string]any{"path": args.Path})
	}()

	if err := s.limiters.Check("sliptrace_verify"); err != nil {
		return nil, VerifyOutput{}, err
	}

	path := args.Path
	if path == "" {
		path = s.settings.Output.TracePath
	}
	path = pathutil.Resolve(s.root, path)
	if err := pathutil.Confine(path, s.allowedDirs()); err != nil {
		return nil, VerifyOutput{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, VerifyOutput{}, fmt.Errorf("reading trace: %w", err)
	}

	out := VerifyOutput{Path: path, MaxPixel: -1, Checksum: trace.Checksum(data)}
	pixels, err := trace.Parse(bytes.NewReader(data), trace.Limits{
		MaxRecords: s.settings.Run.StepLimit,
		MaxValue:   s.settings.Camera.Max,
	})
	if err != nil {
		out.Problem = err.Error()
		return nil, out, nil
	}

	out.Valid = true
	out.Records = len(pixels)
	for _, p := range pixels {
		out.MaxPixel = max(out.MaxPixel, p)
	}
	return nil, out, nil
}

// handleRuns implements the sliptrace_runs tool.
func (s *Server) handleRuns(ctx context.Context, req *sdk.CallToolRequest, args RunsInput) (_ *sdk.CallToolResult, _ RunsOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("sliptrace_runs", start, retErr, map[string]any{"limit": args.Limit})
	}()

	if err := s.limiters.Check("sliptrace_runs"); err != nil {
		return nil, RunsOutput{}, err
	}
	if s.ledger == nil {
		return nil, RunsOutput{}, fmt.Errorf("run ledger is disabled (ledger.enabled: false)")
	}

	limit := args.Limit
	if limit <= 0 {
		limit = defaultRunsLimit
	}
	runs, err := s.ledger.List(ctx, limit)
	if err != nil {
		return nil, RunsOutput{}, err
	}

	summaries := make([]RunSummary, 0, len(runs))
	for _, r := range runs {
		summaries = append(summaries, RunSummary{
			ID:         r.ID,
			CreatedAt:  r.CreatedAt,
			Source:     r.Source,
			Outcome:    string(r.Outcome),
			Frames:     r.FrameCount,
			Checksum:   r.Checksum,
			OutputPath: r.OutputPath,
		})
	}
	return nil, RunsOutput{Runs: summaries, Count: len(summaries)}, nil
}
