package grasp

import (
	"github.com/nvandessel/sliptrace/internal/config"
	"github.com/nvandessel/sliptrace/internal/constants"
	"github.com/nvandessel/sliptrace/internal/physics"
)

// SceneParams places the bodies of the grasp scene.
type SceneParams struct {
	StartHeight   float64
	ObjectScale   float64
	FingerScale   float64
	FingerOffsetX float64
	// GripForce is the inward force of each finger's slide in newtons.
	GripForce float64
	Gravity   physics.Vec3
	// InitialFriction is set on the object after loading.
	InitialFriction float64
	// SurfaceFriction is used for the ground and fingers.
	SurfaceFriction float64
}

// Config holds everything a Generator needs.
type Config struct {
	Scene     SceneParams
	Friction  FrictionSchedule
	Camera    PixelMapper
	Drop      DropPolicy
	StepLimit int
	Engine    physics.Options
}

// DefaultConfig returns the compiled-in scenario.
func DefaultConfig() Config {
	return Config{
		Scene: SceneParams{
			StartHeight:     constants.ObjectStartHeight,
			ObjectScale:     constants.ObjectScale,
			FingerScale:     constants.FingerScale,
			FingerOffsetX:   constants.FingerOffsetX,
			GripForce:       constants.GripForce,
			Gravity:         physics.Vec3{Z: constants.GravityZ},
			InitialFriction: constants.InitialFriction,
			SurfaceFriction: constants.SurfaceFriction,
		},
		Friction:  DefaultFrictionSchedule(),
		Camera:    DefaultPixelMapper(),
		Drop:      DefaultDropPolicy(),
		StepLimit: constants.StepLimit,
		Engine: physics.Options{
			Headless:           true,
			TimeStep:           constants.TimeStep,
			VelocityIterations: constants.VelocityIterations,
			PositionIterations: constants.PositionIterations,
		},
	}
}

// ConfigFrom builds a scenario Config from loaded settings. The camera's zero
// point always follows the scene's start height.
func ConfigFrom(c *config.SliptraceConfig) Config {
	cfg := DefaultConfig()

	cfg.Scene.StartHeight = c.Scene.StartHeight
	cfg.Scene.ObjectScale = c.Scene.ObjectScale
	cfg.Scene.FingerScale = c.Scene.FingerScale
	cfg.Scene.FingerOffsetX = c.Scene.FingerOffsetX
	cfg.Scene.GripForce = c.Scene.GripForce
	cfg.Scene.Gravity = physics.Vec3{Z: c.Scene.GravityZ}
	cfg.Scene.InitialFriction = c.Friction.Initial

	cfg.Friction = FrictionSchedule{
		Initial:   c.Friction.Initial,
		HoldSteps: c.Friction.HoldSteps,
		RampRate:  c.Friction.RampRate,
		Floor:     c.Friction.Floor,
	}
	cfg.Camera = PixelMapper{
		StartHeight: c.Scene.StartHeight,
		Center:      c.Camera.Center,
		Gain:        c.Camera.Gain,
		Min:         c.Camera.Min,
		Max:         c.Camera.Max,
	}
	cfg.Drop = DropPolicy{Threshold: c.Run.DropThreshold}
	cfg.StepLimit = c.Run.StepLimit
	cfg.Engine.TimeStep = c.Run.TimeStep
	cfg.Engine.VelocityIterations = c.Run.VelocityIterations
	cfg.Engine.PositionIterations = c.Run.PositionIterations

	return cfg
}
