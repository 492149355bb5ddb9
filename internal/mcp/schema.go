package mcp

import (
	"time"
)

// GenerateInput defines the input for the sliptrace_generate tool.
type GenerateInput struct {
	Source string `json:"source,omitempty" jsonschema:"Trace source: physics (default) or injection"`
	Values []int  `json:"values,omitempty" jsonschema:"Pixel centers to replay when source is injection"`
	Output string `json:"output,omitempty" jsonschema:"Destination file; defaults to the configured path for the source"`
}

// GenerateOutput defines the output for the sliptrace_generate tool.
type GenerateOutput struct {
	Source   string   `json:"source" jsonschema:"Source that produced the trace"`
	Outcome  string   `json:"outcome" jsonschema:"normal_complete, early_drop or injected"`
	Frames   int      `json:"frames" jsonschema:"Number of records written"`
	Path     string   `json:"path" jsonschema:"File the trace was written to"`
	Checksum string   `json:"checksum" jsonschema:"sha256 of the written file"`
	RunID    string   `json:"run_id,omitempty" jsonschema:"Ledger ID of the run"`
	FinalZ   *float64 `json:"final_z,omitempty" jsonschema:"Object height at the last step in meters"`
	MaxPixel int      `json:"max_pixel" jsonschema:"Largest pixel center in the trace"`
	Message  string   `json:"message" jsonschema:"Human-readable result message"`
}

// VerifyInput defines the input for the sliptrace_verify tool.
type VerifyInput struct {
	Path string `json:"path,omitempty" jsonschema:"Trace file to check; defaults to the configured physics trace path"`
}

// VerifyOutput defines the output for the sliptrace_verify tool.
type VerifyOutput struct {
	Path     string `json:"path" jsonschema:"File that was checked"`
	Valid    bool   `json:"valid" jsonschema:"Whether every record is a well-formed in-range token"`
	Records  int    `json:"records" jsonschema:"Number of records read"`
	MaxPixel int    `json:"max_pixel" jsonschema:"Largest pixel center, or -1 when invalid"`
	Checksum string `json:"checksum,omitempty" jsonschema:"sha256 of the file"`
	Problem  string `json:"problem,omitempty" jsonschema:"Why the file is invalid"`
}

// RunsInput defines the input for the sliptrace_runs tool.
type RunsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of runs to return (default 20)"`
}

// RunSummary is one ledger entry as returned to clients.
type RunSummary struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Source     string    `json:"source"`
	Outcome    string    `json:"outcome"`
	Frames     int       `json:"frames"`
	Checksum   string    `json:"checksum"`
	OutputPath string    `json:"output_path"`
}

// RunsOutput defines the output for the sliptrace_runs tool.
type RunsOutput struct {
	Runs  []RunSummary `json:"runs" jsonschema:"Recorded runs, newest first"`
	Count int          `json:"count" jsonschema:"Number of runs returned"`
}
