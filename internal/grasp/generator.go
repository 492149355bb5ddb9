package grasp

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nvandessel/sliptrace/internal/constants"
	"github.com/nvandessel/sliptrace/internal/logging"
	"github.com/nvandessel/sliptrace/internal/physics"
	"github.com/nvandessel/sliptrace/internal/trace"
)

// Generator is the physics-derived trace.Source. Each Produce call builds a
// fresh engine that it exclusively owns until shutdown.
type Generator struct {
	cfg       Config
	newEngine func() physics.Engine
	logger    *slog.Logger
	frames    *logging.FrameLogger
}

// Option configures a Generator.
type Option func(*Generator)

// WithEngine sets the engine factory. The default builds a Box2D engine.
func WithEngine(factory func() physics.Engine) Option {
	return func(g *Generator) { g.newEngine = factory }
}

// WithLogger sets the operational logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) { g.logger = logger }
}

// WithFrameLogger sets the per-frame JSONL logger.
func WithFrameLogger(frames *logging.FrameLogger) Option {
	return func(g *Generator) { g.frames = frames }
}

// NewGenerator returns a Generator for cfg.
func NewGenerator(cfg Config, opts ...Option) *Generator {
	g := &Generator{
		cfg:       cfg,
		newEngine: func() physics.Engine { return physics.NewBox2DEngine() },
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name implements trace.Source.
func (g *Generator) Name() string {
	return constants.SourcePhysics
}

// Produce implements trace.Source. It builds the scene, runs the stepper and
// shuts the engine down. A shutdown failure is reported only when the run
// itself succeeded; if the scene never initialized there is nothing to shut down.
func (g *Generator) Produce(ctx context.Context) (_ *trace.Trace, retErr error) {
	eng := g.newEngine()

	scene, err := BuildScene(eng, g.cfg.Scene, g.cfg.Engine)
	if err != nil {
		if !errors.Is(err, physics.ErrEngineInit) {
			_ = eng.Shutdown()
		}
		return nil, err
	}
	defer func() {
		if err := eng.Shutdown(); err != nil && retErr == nil {
			retErr = err
		}
	}()

	g.logger.Info("simulation start: holding object", "steps", g.cfg.StepLimit)

	tr, err := NewStepper(eng, scene, g.cfg, g.logger, g.frames).Run(ctx)
	if err != nil {
		return nil, err
	}

	g.logger.Info("trace generated", "frames", tr.Len(), "outcome", tr.Outcome)
	return tr, nil
}
