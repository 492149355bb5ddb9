// Package physics defines the rigid-body engine contract used by the grasp
// scenario and provides a Box2D-backed implementation.
//
// Every engine operation returns an explicit error. Failures are wrapped
// around one of the sentinel errors below so callers can classify them with
// errors.Is without inspecting messages.
package physics

import "errors"

// Sentinel errors, one per engine-call boundary.
var (
	ErrEngineInit = errors.New("physics engine initialization failed")
	ErrBodyLoad   = errors.New("body load failed")
	ErrDynamics   = errors.New("dynamics update failed")
	ErrStep       = errors.New("simulation step failed")
	ErrQuery      = errors.New("pose query failed")
	ErrShutdown   = errors.New("physics engine shutdown failed")
)

// Vec3 is a world-space vector. Z is up.
type Vec3 struct {
	X, Y, Z float64
}

// Quat is an orientation quaternion.
type Quat struct {
	X, Y, Z, W float64
}

// IdentityQuat is the zero rotation.
var IdentityQuat = Quat{W: 1}

// Pose is a body's position and orientation.
type Pose struct {
	Position    Vec3
	Orientation Quat
}

// BodyID is an opaque handle returned by LoadBody.
type BodyID int

// BodyKind selects how a body is simulated.
type BodyKind int

const (
	// KindPlane is a static ground plane at Z = Position.Z.
	KindPlane BodyKind = iota
	// KindBox is a free cube with engine-default mass and inertia.
	KindBox
	// KindFixedBox is an immovable cube.
	KindFixedBox
)

func (k BodyKind) String() string {
	switch k {
	case KindPlane:
		return "plane"
	case KindBox:
		return "box"
	case KindFixedBox:
		return "fixed-box"
	default:
		return "unknown"
	}
}

// BodyDesc describes a body to load.
type BodyDesc struct {
	Name     string
	Kind     BodyKind
	Position Vec3
	// Scale is the cube edge length in meters. Ignored for planes.
	Scale    float64
	Friction float64
	// Grip mounts a KindFixedBox on a horizontal slide that presses toward
	// X=0 with at most this force in newtons. The box never moves vertically.
	// Zero keeps it fully static.
	Grip float64
}

// Options configures an engine context.
type Options struct {
	Headless           bool
	TimeStep           float64
	VelocityIterations int
	PositionIterations int
}

// Engine is the rigid-body simulator consumed by the scenario.
// An Engine is owned by a single run and is not safe for concurrent use.
type Engine interface {
	// Init creates the simulation context. It must be called exactly once.
	Init(opts Options) error
	SetGravity(g Vec3) error
	LoadBody(desc BodyDesc) (BodyID, error)
	// SetFriction sets a body's lateral friction, effective from the next Step.
	SetFriction(id BodyID, friction float64) error
	// Step advances the world by one fixed timestep.
	Step() error
	Pose(id BodyID) (Pose, error)
	Shutdown() error
}
