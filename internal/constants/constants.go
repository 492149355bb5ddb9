// Package constants provides named constants used throughout sliptrace.
// This centralizes the grasp-slip scenario's magic numbers so the friction
// schedule and pixel mapping can be exercised without running a simulation.
package constants

// Scene geometry. Lengths are meters; scales are uniform multipliers of a
// unit cube.
const (
	// ObjectStartHeight is the initial height of the held object. Slip is
	// measured relative to this value.
	ObjectStartHeight = 0.5

	// ObjectScale is the edge length of the held cube (10 cm).
	ObjectScale = 0.1

	// FingerScale is the edge length of each gripper finger.
	FingerScale = 0.02

	// FingerOffsetX is the lateral distance of each finger from the object center.
	FingerOffsetX = 0.06

	// GravityZ is the vertical gravity component in m/s^2.
	GravityZ = -9.8

	// GripForce is the force in newtons each finger's slide presses inward
	// with. Two fingers at this force hold the 0.01 kg object until its
	// friction falls below roughly 0.48.
	GripForce = 0.1

	// SurfaceFriction is the engine's default lateral friction for bodies
	// whose friction the scenario never changes (ground, fingers).
	SurfaceFriction = 0.5
)

// Friction schedule constants.
const (
	// InitialFriction is the object's lateral friction while it is held.
	InitialFriction = 1.0

	// FrictionHoldSteps is the last step index that still uses InitialFriction.
	FrictionHoldSteps = 50

	// FrictionRampRate is the per-step friction decrease after the hold.
	FrictionRampRate = 0.005

	// FrictionFloor is the minimum friction the ramp can reach.
	FrictionFloor = 0.01
)

// Virtual camera constants.
const (
	// PixelCenter is the image-center column reported at zero slip.
	PixelCenter = 320

	// PixelGain converts meters of slip into pixels.
	PixelGain = 5000.0

	// PixelMin and PixelMax bound a valid image column.
	PixelMin = 0
	PixelMax = 639

	// TokenWidth is the number of hex digits per trace record.
	TokenWidth = 3

	// TokenMax is the largest value a TokenWidth-digit hex record can hold.
	TokenMax = 0xfff
)

// Run control constants.
const (
	// StepLimit is the maximum number of simulation steps per run.
	StepLimit = 300

	// DropThreshold is the height below which the object counts as dropped.
	DropThreshold = 0.2

	// TimeStep is the fixed physics timestep in seconds.
	TimeStep = 1.0 / 240.0

	// VelocityIterations and PositionIterations configure the constraint solver.
	VelocityIterations = 8
	PositionIterations = 3
)

// File locations, relative to the working directory unless noted.
const (
	// DefaultTracePath is where the physics-derived trace is written for the testbench.
	DefaultTracePath = "../tb/grasp_trace.hex"

	// DefaultInjectionPath is where directly injected traces are written.
	DefaultInjectionPath = "../tb/synthetic_trace.hex"

	// DataDirName is the per-project directory holding config, ledger and frame logs.
	DataDirName = ".sliptrace"

	// ConfigFileName is the YAML config file inside DataDirName.
	ConfigFileName = "config.yaml"

	// LedgerFileName is the SQLite run ledger inside DataDirName.
	LedgerFileName = "runs.db"

	// FrameLogFileName is the JSONL frame log inside DataDirName.
	FrameLogFileName = "frames.jsonl"

	// AuditFileName is the JSONL log of MCP tool calls inside DataDirName.
	AuditFileName = "audit.jsonl"
)

// Trace source names recorded in the ledger.
const (
	SourcePhysics   = "physics"
	SourceInjection = "injection"
)
