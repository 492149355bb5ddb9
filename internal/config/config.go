// Package config provides unified configuration loading for sliptrace.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/nvandessel/sliptrace/internal/constants"
	"gopkg.in/yaml.v3"
)

// SliptraceConfig contains all sliptrace configuration settings.
// The zero-argument run uses Default(), which reproduces the compiled-in scenario.
type SliptraceConfig struct {
	// Scene describes the initial world.
	Scene SceneConfig `json:"scene" yaml:"scene"`

	// Friction describes the object's friction schedule.
	Friction FrictionConfig `json:"friction" yaml:"friction"`

	// Camera describes the slip-to-pixel mapping.
	Camera CameraConfig `json:"camera" yaml:"camera"`

	// Run controls stepping and early termination.
	Run RunConfig `json:"run" yaml:"run"`

	// Output controls where traces are written.
	Output OutputConfig `json:"output" yaml:"output"`

	// Ledger controls run history recording.
	Ledger LedgerConfig `json:"ledger" yaml:"ledger"`

	// Logging contains settings for operational and frame logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// SceneConfig describes body placement. Lengths are meters.
type SceneConfig struct {
	StartHeight   float64 `json:"start_height" yaml:"start_height"`
	ObjectScale   float64 `json:"object_scale" yaml:"object_scale"`
	FingerScale   float64 `json:"finger_scale" yaml:"finger_scale"`
	FingerOffsetX float64 `json:"finger_offset_x" yaml:"finger_offset_x"`
	GripForce     float64 `json:"grip_force" yaml:"grip_force"`
	GravityZ      float64 `json:"gravity_z" yaml:"gravity_z"`
}

// FrictionConfig describes the hold-then-ramp friction schedule.
type FrictionConfig struct {
	// Initial is applied for every step up to and including HoldSteps.
	Initial float64 `json:"initial" yaml:"initial"`

	HoldSteps int     `json:"hold_steps" yaml:"hold_steps"`
	RampRate  float64 `json:"ramp_rate" yaml:"ramp_rate"`
	Floor     float64 `json:"floor" yaml:"floor"`
}

// CameraConfig describes the virtual camera.
type CameraConfig struct {
	Center int     `json:"center" yaml:"center"`
	Gain   float64 `json:"gain" yaml:"gain"`
	Min    int     `json:"min" yaml:"min"`
	Max    int     `json:"max" yaml:"max"`
}

// RunConfig controls the simulation loop.
type RunConfig struct {
	StepLimit          int     `json:"step_limit" yaml:"step_limit" env:"SLIPTRACE_STEP_LIMIT"`
	DropThreshold      float64 `json:"drop_threshold" yaml:"drop_threshold" env:"SLIPTRACE_DROP_THRESHOLD"`
	TimeStep           float64 `json:"timestep" yaml:"timestep" env:"SLIPTRACE_TIMESTEP"`
	VelocityIterations int     `json:"velocity_iterations" yaml:"velocity_iterations"`
	PositionIterations int     `json:"position_iterations" yaml:"position_iterations"`
}

// OutputConfig controls trace destinations.
type OutputConfig struct {
	// TracePath is the physics-derived trace destination.
	TracePath string `json:"trace_path" yaml:"trace_path" env:"SLIPTRACE_OUTPUT"`

	// InjectionPath is the direct-injection trace destination.
	InjectionPath string `json:"injection_path" yaml:"injection_path" env:"SLIPTRACE_INJECTION_OUTPUT"`
}

// LedgerConfig configures the SQLite run ledger.
type LedgerConfig struct {
	// Enabled records every written trace in .sliptrace/runs.db.
	Enabled bool `json:"enabled" yaml:"enabled" env:"SLIPTRACE_LEDGER_ENABLED"`
}

// LoggingConfig configures sliptrace's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables per-frame logging to .sliptrace/frames.jsonl.
	Level string `json:"level" yaml:"level" env:"SLIPTRACE_LOG_LEVEL"`
}

// Default returns a SliptraceConfig matching the compiled-in scenario.
func Default() *SliptraceConfig {
	return &SliptraceConfig{
		Scene: SceneConfig{
			StartHeight:   constants.ObjectStartHeight,
			ObjectScale:   constants.ObjectScale,
			FingerScale:   constants.FingerScale,
			FingerOffsetX: constants.FingerOffsetX,
			GripForce:     constants.GripForce,
			GravityZ:      constants.GravityZ,
		},
		Friction: FrictionConfig{
			Initial:   constants.InitialFriction,
			HoldSteps: constants.FrictionHoldSteps,
			RampRate:  constants.FrictionRampRate,
			Floor:     constants.FrictionFloor,
		},
		Camera: CameraConfig{
			Center: constants.PixelCenter,
			Gain:   constants.PixelGain,
			Min:    constants.PixelMin,
			Max:    constants.PixelMax,
		},
		Run: RunConfig{
			StepLimit:          constants.StepLimit,
			DropThreshold:      constants.DropThreshold,
			TimeStep:           constants.TimeStep,
			VelocityIterations: constants.VelocityIterations,
			PositionIterations: constants.PositionIterations,
		},
		Output: OutputConfig{
			TracePath:     constants.DefaultTracePath,
			InjectionPath: constants.DefaultInjectionPath,
		},
		Ledger: LedgerConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns the project config file location under root.
func DefaultPath(root string) string {
	return filepath.Join(root, constants.DataDirName, constants.ConfigFileName)
}

// Load loads configuration for the project at root.
// Order: defaults -> <root>/.sliptrace/config.yaml -> environment variables
func Load(root string) (*SliptraceConfig, error) {
	config := Default()

	configPath := DefaultPath(root)
	if _, statErr := os.Stat(configPath); statErr == nil {
		fileConfig, loadErr := LoadFromFile(configPath)
		if loadErr != nil {
			return nil, fmt.Errorf("loading config file: %w", loadErr)
		}
		config = fileConfig
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
// Keys absent from the file keep their default values.
func LoadFromFile(path string) (*SliptraceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return config, nil
}

// LoadWithOverrides loads the given file (or the project default when path is
// empty) and applies environment overrides.
func LoadWithOverrides(root, path string) (*SliptraceConfig, error) {
	if path == "" {
		return Load(root)
	}
	config, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}
	return config, nil
}

// Snapshot renders the configuration as YAML, suitable for LoadFromFile.
func (c *SliptraceConfig) Snapshot() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}
	return string(data), nil
}

// Validate checks that the configuration is valid.
func (c *SliptraceConfig) Validate() error {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"start_height", c.Scene.StartHeight},
		{"object_scale", c.Scene.ObjectScale},
		{"finger_scale", c.Scene.FingerScale},
		{"finger_offset_x", c.Scene.FingerOffsetX},
		{"grip_force", c.Scene.GripForce},
		{"gravity_z", c.Scene.GravityZ},
		{"friction.initial", c.Friction.Initial},
		{"ramp_rate", c.Friction.RampRate},
		{"friction.floor", c.Friction.Floor},
		{"gain", c.Camera.Gain},
		{"drop_threshold", c.Run.DropThreshold},
		{"timestep", c.Run.TimeStep},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%s must be finite, got %v", f.name, f.value)
		}
	}

	if c.Scene.StartHeight <= 0 {
		return fmt.Errorf("start_height must be positive, got %f", c.Scene.StartHeight)
	}
	if c.Scene.ObjectScale <= 0 || c.Scene.FingerScale <= 0 {
		return fmt.Errorf("body scales must be positive, got object=%f finger=%f", c.Scene.ObjectScale, c.Scene.FingerScale)
	}

	if c.Scene.GripForce < 0 {
		return fmt.Errorf("grip_force must be non-negative, got %f", c.Scene.GripForce)
	}

	if c.Friction.Floor < 0 || c.Friction.Floor > c.Friction.Initial {
		return fmt.Errorf("friction floor must be between 0 and initial (%f), got %f", c.Friction.Initial, c.Friction.Floor)
	}
	if c.Friction.RampRate < 0 {
		return fmt.Errorf("ramp_rate must be non-negative, got %f", c.Friction.RampRate)
	}
	if c.Friction.HoldSteps < 0 {
		return fmt.Errorf("hold_steps must be non-negative, got %d", c.Friction.HoldSteps)
	}

	if c.Camera.Min < 0 || c.Camera.Max > constants.TokenMax || c.Camera.Min > c.Camera.Max {
		return fmt.Errorf("camera range [%d, %d] must lie within [0, %d]", c.Camera.Min, c.Camera.Max, constants.TokenMax)
	}
	if c.Camera.Center < c.Camera.Min || c.Camera.Center > c.Camera.Max {
		return fmt.Errorf("camera center %d is outside [%d, %d]", c.Camera.Center, c.Camera.Min, c.Camera.Max)
	}

	if c.Run.StepLimit < 1 {
		return fmt.Errorf("step_limit must be at least 1, got %d", c.Run.StepLimit)
	}
	if c.Run.DropThreshold >= c.Scene.StartHeight {
		return fmt.Errorf("drop_threshold (%f) must be below start_height (%f)", c.Run.DropThreshold, c.Scene.StartHeight)
	}
	if c.Run.TimeStep <= 0 {
		return fmt.Errorf("timestep must be positive, got %f", c.Run.TimeStep)
	}
	if c.Run.VelocityIterations < 1 || c.Run.PositionIterations < 1 {
		return fmt.Errorf("solver iterations must be at least 1, got velocity=%d position=%d",
			c.Run.VelocityIterations, c.Run.PositionIterations)
	}

	if c.Output.TracePath == "" {
		return fmt.Errorf("output trace_path must not be empty")
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// applyEnvOverrides applies SLIPTRACE_* environment variables to the config.
// Unset variables leave the current value untouched.
func applyEnvOverrides(config *SliptraceConfig) error {
	if err := env.Parse(config); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
