package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvandessel/sliptrace/internal/constants"
	"github.com/nvandessel/sliptrace/internal/pipeline"
	"github.com/nvandessel/sliptrace/internal/trace"
)

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	rootCmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestNewRootCmd_Subcommands(t *testing.T) {
	rootCmd := newRootCmd()
	want := []string{"generate", "inject", "verify", "runs", "config", "mcp-server", "version"}
	for _, name := range want {
		found := false
		for _, sub := range rootCmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}

	for _, flag := range []string{"json", "root", "config", "log-level"} {
		if rootCmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("persistent flag --%s missing", flag)
		}
	}
}

func TestVersionCmd(t *testing.T) {
	out, _, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "sliptrace version "+version) {
		t.Errorf("output = %q", out)
	}

	out, _, err = execute(t, "version", "--json")
	if err != nil {
		t.Fatalf("version --json: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["version"] != version {
		t.Errorf("version = %q", got["version"])
	}
}

func TestGenerateCmd(t *testing.T) {
	root := t.TempDir()
	output := filepath.Join(root, "tb", "grasp_trace.hex")

	out, _, err := execute(t, "generate", "--root", root, "--output", output)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if !strings.Contains(out, ">>> SIMULATION START: Holding Object...") {
		t.Errorf("missing start banner:\n%s", out)
	}
	if !strings.Contains(out, "Trace Generated: ") {
		t.Errorf("missing summary:\n%s", out)
	}

	pixels, err := trace.ReadFile(output, trace.DefaultLimits())
	if err != nil {
		t.Fatalf("generated trace is invalid: %v", err)
	}
	if d := pixels[0] - constants.PixelCenter; d < -2 || d > 2 {
		t.Errorf("first record = %d, want about %d", pixels[0], constants.PixelCenter)
	}
	if len(pixels) < constants.StepLimit && !strings.Contains(out, ">>> OBJECT DROPPED!") {
		t.Errorf("short trace of %d frames without a drop message", len(pixels))
	}

	if _, err := os.Stat(filepath.Join(root, constants.DataDirName, constants.LedgerFileName)); err != nil {
		t.Errorf("ledger not created: %v", err)
	}
}

func TestRootCmd_DefaultsToGenerate(t *testing.T) {
	root := t.TempDir()
	output := filepath.Join(root, "trace.hex")

	out, _, err := execute(t, "--root", root, "--output", output, "--json")
	if err != nil {
		t.Fatalf("sliptrace: %v", err)
	}

	var res pipeline.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode JSON summary: %v\n%s", err, out)
	}
	if res.Source != constants.SourcePhysics || res.Path != output {
		t.Errorf("summary = %+v", res)
	}
	if res.Outcome != trace.OutcomeEarlyDrop && res.Outcome != trace.OutcomeNormalComplete {
		t.Errorf("Outcome = %s", res.Outcome)
	}
	if res.Outcome == trace.OutcomeEarlyDrop && (res.FinalZ == nil || *res.FinalZ >= constants.DropThreshold) {
		t.Errorf("early drop with final z %v", res.FinalZ)
	}
	if res.RunID == "" {
		t.Error("run not recorded")
	}
}

func TestGenerateCmd_DebugWritesFrameLog(t *testing.T) {
	root := t.TempDir()
	_, _, err := execute(t, "generate", "--root", root, "--output", filepath.Join(root, "t.hex"), "--log-level", "debug")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, constants.DataDirName, constants.FrameLogFileName))
	if err != nil {
		t.Fatalf("frame log not written: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	hexData, err := os.ReadFile(filepath.Join(root, "t.hex"))
	if err != nil {
		t.Fatalf("read trace: %v", err)
	}
	if want := strings.Count(string(hexData), "\n"); len(lines) != want {
		t.Errorf("frame log has %d lines, trace has %d records", len(lines), want)
	}
}

func TestGenerateCmd_InvalidConfig(t *testing.T) {
	root := t.TempDir()
	cfgPath := filepath.Join(root, "bad.yaml")
	if err := os.WriteFile(cfgPath, []byte("run:\n  step_limit: 0\n"), 0600); err != nil {
		t.Fatalf("setup: %v", err)
	}
	output := filepath.Join(root, "t.hex")

	_, _, err := execute(t, "generate", "--root", root, "--config", cfgPath, "--output", output)
	if err == nil || !strings.Contains(err.Error(), "step_limit") {
		t.Fatalf("error = %v, want step_limit validation error", err)
	}
	if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
		t.Error("no trace should be written for an invalid config")
	}
}

func TestGenerateCmd_LedgerDisabledByEnv(t *testing.T) {
	root := t.TempDir()
	t.Setenv("SLIPTRACE_LEDGER_ENABLED", "false")

	out, _, err := execute(t, "generate", "--root", root, "--output", filepath.Join(root, "t.hex"), "--json")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	var res pipeline.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.RunID != "" {
		t.Errorf("RunID = %q, want none with ledger disabled", res.RunID)
	}
	if _, err := os.Stat(filepath.Join(root, constants.DataDirName, constants.LedgerFileName)); !os.IsNotExist(err) {
		t.Error("ledger should not be created when disabled")
	}
}

func TestInjectCmd(t *testing.T) {
	root := t.TempDir()
	input := filepath.Join(root, "slip.txt")
	if err := os.WriteFile(input, []byte("# hold\n320\n320\n# slip\n345\n639\n"), 0600); err != nil {
		t.Fatalf("setup: %v", err)
	}
	output := filepath.Join(root, "tb", "synthetic_trace.hex")

	out, _, err := execute(t, "inject", input, "--root", root, "--output", output)
	if err != nil {
		t.Fatalf("inject: %v", err)
	}
	if !strings.Contains(out, "Trace Injected: 4 frames written.") {
		t.Errorf("output = %q", out)
	}
	if strings.Contains(out, "SIMULATION START") {
		t.Error("injection should not announce a simulation")
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "140\n140\n159\n27f\n" {
		t.Errorf("trace = %q", data)
	}
}

func TestInjectCmd_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"out of range", "320\n640\n"},
		{"negative", "-1\n"},
		{"not decimal", "0x140\n"},
		{"empty", "# nothing\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			input := filepath.Join(root, "in.txt")
			if err := os.WriteFile(input, []byte(tt.input), 0600); err != nil {
				t.Fatalf("setup: %v", err)
			}
			output := filepath.Join(root, "out.hex")

			if _, _, err := execute(t, "inject", input, "--root", root, "--output", output); err == nil {
				t.Fatal("expected error")
			}
			if _, err := os.Stat(output); !os.IsNotExist(err) {
				t.Error("rejected injection must not write a trace")
			}
		})
	}
}

func TestVerifyCmd(t *testing.T) {
	root := t.TempDir()
	good := filepath.Join(root, "good.hex")
	bad := filepath.Join(root, "bad.hex")
	if err := os.WriteFile(good, []byte("140\n172\n27f\n"), 0600); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := os.WriteFile(bad, []byte("140\n280\n"), 0600); err != nil {
		t.Fatalf("setup: %v", err)
	}

	out, _, err := execute(t, "verify", good, "--root", root)
	if err != nil {
		t.Fatalf("verify good: %v", err)
	}
	if !strings.Contains(out, "OK, 3 records, max pixel 639") {
		t.Errorf("output = %q", out)
	}

	out, _, err = execute(t, "verify", bad, "--root", root, "--json")
	if err == nil {
		t.Fatal("expected verification failure")
	}
	var report verifyReport
	if jsonErr := json.Unmarshal([]byte(out), &report); jsonErr != nil {
		t.Fatalf("decode: %v", jsonErr)
	}
	if report.Valid || report.Error == "" {
		t.Errorf("report = %+v", report)
	}
}

func TestRunsCmd(t *testing.T) {
	root := t.TempDir()
	input := filepath.Join(root, "in.txt")
	if err := os.WriteFile(input, []byte("320\n321\n"), 0600); err != nil {
		t.Fatalf("setup: %v", err)
	}

	out, _, err := execute(t, "runs", "--root", root)
	if err != nil {
		t.Fatalf("runs (empty): %v", err)
	}
	if !strings.Contains(out, "No runs recorded.") {
		t.Errorf("output = %q", out)
	}

	for i := range 2 {
		if _, _, err := execute(t, "inject", input, "--root", root, "--output", filepath.Join(root, "out.hex")); err != nil {
			t.Fatalf("inject %d: %v", i, err)
		}
	}

	out, _, err = execute(t, "runs", "--root", root, "--json")
	if err != nil {
		t.Fatalf("runs --json: %v", err)
	}
	var got struct {
		Runs  []map[string]any `json:"runs"`
		Count int              `json:"count"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Count != 2 {
		t.Errorf("Count = %d, want 2", got.Count)
	}

	out, _, err = execute(t, "runs", "--root", root, "--limit", "1")
	if err != nil {
		t.Fatalf("runs --limit 1: %v", err)
	}
	if strings.Count(out, "run-") != 1 {
		t.Errorf("limited output:\n%s", out)
	}
}

func TestConfigListCmd(t *testing.T) {
	root := t.TempDir()
	t.Setenv("SLIPTRACE_STEP_LIMIT", "120")

	out, _, err := execute(t, "config", "list", "--root", root)
	if err != nil {
		t.Fatalf("config list: %v", err)
	}
	if !strings.Contains(out, "run.step_limit:         120") {
		t.Errorf("env override not shown:\n%s", out)
	}
	if !strings.Contains(out, "(defaults)") {
		t.Errorf("expected defaults source:\n%s", out)
	}

	out, _, err = execute(t, "config", "list", "--root", root, "--json")
	if err != nil {
		t.Fatalf("config list --json: %v", err)
	}
	if !strings.Contains(out, `"step_limit":120`) {
		t.Errorf("JSON output = %s", out)
	}
}

func TestValueOrDefault(t *testing.T) {
	if got := valueOrDefault("", "info"); got != "info" {
		t.Errorf("valueOrDefault empty = %q", got)
	}
	if got := valueOrDefault("debug", "info"); got != "debug" {
		t.Errorf("valueOrDefault set = %q", got)
	}
}
