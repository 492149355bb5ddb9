package grasp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/nvandessel/sliptrace/internal/constants"
	"github.com/nvandessel/sliptrace/internal/logging"
	"github.com/nvandessel/sliptrace/internal/physics"
	"github.com/nvandessel/sliptrace/internal/trace"
)

// ErrSimulationDivergence reports a non-finite object position.
var ErrSimulationDivergence = errors.New("simulation diverged")

// Stepper drives a built scene one fixed timestep at a time. Steps are
// strictly sequential: step t+1 starts from the state step t resolved.
type Stepper struct {
	engine    physics.Engine
	scene     Scene
	schedule  FrictionSchedule
	camera    PixelMapper
	drop      DropPolicy
	stepLimit int

	logger *slog.Logger
	frames *logging.FrameLogger
}

// NewStepper returns a Stepper for a scene already loaded into eng.
// logger and frames may be nil.
func NewStepper(eng physics.Engine, scene Scene, cfg Config, logger *slog.Logger, frames *logging.FrameLogger) *Stepper {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Stepper{
		engine:    eng,
		scene:     scene,
		schedule:  cfg.Friction,
		camera:    cfg.Camera,
		drop:      cfg.Drop,
		stepLimit: cfg.StepLimit,
		logger:    logger,
		frames:    frames,
	}
}

// Run executes steps 0..stepLimit-1. For each step it applies the scheduled
// friction, advances the engine, reads the object height, maps it to a pixel
// and records a frame, then stops early if the object has dropped. The
// dropping frame is included. ctx is checked between steps.
func (s *Stepper) Run(ctx context.Context) (*trace.Trace, error) {
	tr := &trace.Trace{
		Source:  constants.SourcePhysics,
		Outcome: trace.OutcomeNormalComplete,
		Frames:  make([]trace.Frame, 0, s.stepLimit),
	}

	for t := 0; t < s.stepLimit; t++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("step %d: %w", t, err)
		}

		friction := s.schedule.At(t)
		if err := s.engine.SetFriction(s.scene.Object, friction); err != nil {
			return nil, fmt.Errorf("step %d: %w", t, err)
		}
		if err := s.engine.Step(); err != nil {
			return nil, fmt.Errorf("step %d: %w", t, err)
		}
		pose, err := s.engine.Pose(s.scene.Object)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", t, err)
		}

		z := pose.Position.Z
		if math.IsNaN(z) || math.IsInf(z, 0) {
			return nil, fmt.Errorf("%w: step %d: object height is %v", ErrSimulationDivergence, t, z)
		}

		frame := trace.Frame{Step: t, Z: z, Friction: friction, Pixel: s.camera.Map(z)}
		tr.Frames = append(tr.Frames, frame)
		s.record(frame)

		if s.drop.Dropped(z) {
			tr.Outcome = trace.OutcomeEarlyDrop
			s.logger.Info("object dropped", "step", t, "z", z)
			break
		}
	}

	return tr, nil
}

func (s *Stepper) record(f trace.Frame) {
	token, err := trace.Token(f.Pixel)
	if err != nil {
		s.logger.Warn("frame has no hex token", "step", f.Step, "pixel", f.Pixel, "error", err)
	}
	s.logger.Log(context.Background(), logging.LevelTrace, "step",
		"step", f.Step, "z", f.Z, "friction", f.Friction, "pixel", f.Pixel)
	s.frames.Record(logging.FrameRecord{
		Step:     f.Step,
		Z:        f.Z,
		Friction: f.Friction,
		Pixel:    f.Pixel,
		Token:    token,
	})
}
