package grasp

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvandessel/sliptrace/internal/logging"
	"github.com/nvandessel/sliptrace/internal/physics"
	"github.com/nvandessel/sliptrace/internal/physics/physicstest"
	"github.com/nvandessel/sliptrace/internal/trace"
)

// runScripted builds the scene on a scripted engine and runs the stepper.
func runScripted(t *testing.T, cfg Config, eng *physicstest.Engine) (*trace.Trace, error) {
	t.Helper()
	scene, err := BuildScene(eng, cfg.Scene, cfg.Engine)
	if err != nil {
		t.Fatalf("BuildScene: %v", err)
	}
	eng.Calls = nil
	return NewStepper(eng, scene, cfg, nil, nil).Run(context.Background())
}

func dropAt(step int) []float64 {
	return append(physicstest.Constant(0.5, step), 0.19)
}

func TestStepper_NormalComplete(t *testing.T) {
	cfg := DefaultConfig()
	eng := physicstest.New(physicstest.Constant(0.5, 300)...)

	tr, err := runScripted(t, cfg, eng)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if tr.Len() != 300 {
		t.Fatalf("Len = %d, want 300", tr.Len())
	}
	if tr.Outcome != trace.OutcomeNormalComplete {
		t.Errorf("Outcome = %s, want %s", tr.Outcome, trace.OutcomeNormalComplete)
	}
	if tr.Source != "physics" {
		t.Errorf("Source = %q", tr.Source)
	}
	for i, f := range tr.Frames {
		if f.Step != i {
			t.Fatalf("frame %d has step %d", i, f.Step)
		}
		if f.Pixel != 320 {
			t.Fatalf("frame %d pixel = %d, want 320", i, f.Pixel)
		}
	}
	if eng.Steps != 300 {
		t.Errorf("engine stepped %d times, want 300", eng.Steps)
	}
}

func TestStepper_AppliesScheduleBeforeEachStep(t *testing.T) {
	cfg := DefaultConfig()
	eng := physicstest.New(physicstest.Constant(0.5, 300)...)

	tr, err := runScripted(t, cfg, eng)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// The first recorded friction is the scene's initial value.
	applied := eng.Frictions[1][1:]
	if len(applied) != 300 {
		t.Fatalf("applied %d frictions, want 300", len(applied))
	}
	for step, f := range applied {
		if want := cfg.Friction.At(step); f != want {
			t.Errorf("step %d friction = %v, want %v", step, f, want)
		}
		if tr.Frames[step].Friction != f {
			t.Errorf("frame %d friction = %v, want %v", step, tr.Frames[step].Friction, f)
		}
	}

	for i := 0; i < 3; i++ {
		got := eng.Calls[i*3 : i*3+3]
		if got[0] != "friction" || got[1] != "step" || got[2] != "pose" {
			t.Errorf("step %d call order = %v", i, got)
		}
	}
}

func TestStepper_EarlyDrop(t *testing.T) {
	tests := []struct {
		name    string
		heights []float64
		wantLen int
		outcome trace.Outcome
	}{
		{"drop at step 10", dropAt(10), 11, trace.OutcomeEarlyDrop},
		{"drop at first step", []float64{0.1}, 1, trace.OutcomeEarlyDrop},
		{"drop at last step", dropAt(299), 300, trace.OutcomeEarlyDrop},
		{"exactly at threshold keeps going", physicstest.Constant(0.2, 300), 300, trace.OutcomeNormalComplete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := physicstest.New(tt.heights...)
			tr, err := runScripted(t, DefaultConfig(), eng)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if tr.Len() != tt.wantLen {
				t.Errorf("Len = %d, want %d", tr.Len(), tt.wantLen)
			}
			if tr.Outcome != tt.outcome {
				t.Errorf("Outcome = %s, want %s", tr.Outcome, tt.outcome)
			}
			if eng.Steps != tt.wantLen {
				t.Errorf("engine stepped %d times, want %d", eng.Steps, tt.wantLen)
			}
		})
	}
}

func TestStepper_DropFrameIncluded(t *testing.T) {
	eng := physicstest.New(0.5, 0.49, 0.3, 0.19)
	tr, err := runScripted(t, DefaultConfig(), eng)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []int{320, 370, 639, 639}
	got := tr.Pixels()
	if len(got) != len(want) {
		t.Fatalf("Pixels = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pixel %d = %d, want %d", i, got[i], want[i])
		}
	}
	last, _ := tr.Last()
	if last.Z != 0.19 {
		t.Errorf("last z = %v, want 0.19", last.Z)
	}
}

func TestStepper_CustomStepLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StepLimit = 5
	eng := physicstest.New(physicstest.Constant(0.45, 5)...)

	tr, err := runScripted(t, cfg, eng)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if tr.Len() != 5 || tr.Outcome != trace.OutcomeNormalComplete {
		t.Errorf("Len = %d Outcome = %s", tr.Len(), tr.Outcome)
	}
}

func TestStepper_EngineErrors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*physicstest.Engine)
		wantErr error
	}{
		{"step failure", func(e *physicstest.Engine) { e.FailStepAt = 4 }, physics.ErrStep},
		{"pose failure", func(e *physicstest.Engine) { e.FailPose = errors.New("lost body") }, physics.ErrQuery},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := physicstest.New(physicstest.Constant(0.5, 300)...)
			tt.setup(eng)
			tr, err := runScripted(t, DefaultConfig(), eng)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if tr != nil {
				t.Error("expected no trace on failure")
			}
		})
	}
}

func TestStepper_Divergence(t *testing.T) {
	for _, z := range []float64{math.NaN(), math.Inf(-1)} {
		eng := physicstest.New(0.5, 0.49, z)
		tr, err := runScripted(t, DefaultConfig(), eng)
		if !errors.Is(err, ErrSimulationDivergence) {
			t.Fatalf("z=%v: error = %v, want ErrSimulationDivergence", z, err)
		}
		if tr != nil {
			t.Errorf("z=%v: expected no trace on divergence", z)
		}
		if !strings.Contains(err.Error(), "step 2") {
			t.Errorf("error %q should name the step", err)
		}
	}
}

func TestStepper_Cancelled(t *testing.T) {
	cfg := DefaultConfig()
	eng := physicstest.New(physicstest.Constant(0.5, 300)...)
	scene, err := BuildScene(eng, cfg.Scene, cfg.Engine)
	if err != nil {
		t.Fatalf("BuildScene: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = NewStepper(eng, scene, cfg, nil, nil).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if eng.Steps != 0 {
		t.Errorf("engine stepped %d times after cancellation", eng.Steps)
	}
}

func TestStepper_FrameLog(t *testing.T) {
	dir := t.TempDir()
	frames := logging.NewFrameLogger(dir, "debug")
	defer frames.Close()

	cfg := DefaultConfig()
	eng := physicstest.New(0.5, 0.49, 0.1)
	scene, err := BuildScene(eng, cfg.Scene, cfg.Engine)
	if err != nil {
		t.Fatalf("BuildScene: %v", err)
	}
	if _, err := NewStepper(eng, scene, cfg, nil, frames).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "frames.jsonl"))
	if err != nil {
		t.Fatalf("read frame log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 frame records, got %d", len(lines))
	}
	if !strings.Contains(lines[1], `"token":"172"`) {
		t.Errorf("second record %q missing token 172", lines[1])
	}
}

func TestStepper_FrameLogPixelBeyondTokenRange(t *testing.T) {
	dir := t.TempDir()
	frames := logging.NewFrameLogger(dir, "debug")
	defer frames.Close()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	cfg := DefaultConfig()
	cfg.Camera.Gain = 20000
	cfg.Camera.Max = 5000
	eng := physicstest.New(0.5, 0.1)
	scene, err := BuildScene(eng, cfg.Scene, cfg.Engine)
	if err != nil {
		t.Fatalf("BuildScene: %v", err)
	}
	tr, err := NewStepper(eng, scene, cfg, logger, frames).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if last, _ := tr.Last(); last.Pixel != 5000 {
		t.Fatalf("last pixel = %d, want 5000", last.Pixel)
	}

	data, err := os.ReadFile(filepath.Join(dir, "frames.jsonl"))
	if err != nil {
		t.Fatalf("read frame log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 frame records, got %d", len(lines))
	}
	if !strings.Contains(lines[0], `"token":"140"`) {
		t.Errorf("first record %q missing token 140", lines[0])
	}
	if strings.Contains(lines[1], `"token"`) {
		t.Errorf("second record %q should omit the token", lines[1])
	}
	if !strings.Contains(logs.String(), "frame has no hex token") {
		t.Errorf("expected a warning for the untokenizable pixel, got:\n%s", logs.String())
	}
}
