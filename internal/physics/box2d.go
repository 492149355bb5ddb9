package physics

import (
	"fmt"
	"math"

	"github.com/ByteArena/box2d"
)

// groundHalfWidth and groundHalfHeight size the slab standing in for an
// infinite ground plane. Its top face sits at the plane's Z.
const (
	groundHalfWidth  = 50.0
	groundHalfHeight = 0.5
	boxDensity       = 1.0

	// gripSpeed is the closing speed of a gripping slide's motor in m/s.
	gripSpeed = 0.1
)

// Box2DEngine implements Engine on a Box2D world restricted to the vertical
// x-z plane: Box2D's y axis carries world Z and world Y is always zero.
// It is inherently headless.
type Box2DEngine struct {
	world  *box2d.B2World
	anchor *box2d.B2Body // static body that gripping slides are jointed to
	opts   Options
	bodies []*box2d.B2Body
}

// NewBox2DEngine returns an uninitialized engine. Call Init before use.
func NewBox2DEngine() *Box2DEngine {
	return &Box2DEngine{}
}

// Init creates the Box2D world with zero gravity.
func (e *Box2DEngine) Init(opts Options) error {
	if e.world != nil {
		return fmt.Errorf("%w: engine already initialized", ErrEngineInit)
	}
	if opts.TimeStep <= 0 || math.IsNaN(opts.TimeStep) {
		return fmt.Errorf("%w: timestep must be positive, got %v", ErrEngineInit, opts.TimeStep)
	}
	if opts.VelocityIterations < 1 || opts.PositionIterations < 1 {
		return fmt.Errorf("%w: solver iterations must be at least 1", ErrEngineInit)
	}

	world := box2d.MakeB2World(box2d.MakeB2Vec2(0, 0))
	e.world = &world
	e.opts = opts
	e.bodies = nil

	abd := box2d.MakeB2BodyDef()
	e.anchor = e.world.CreateBody(&abd)
	return nil
}

// SetGravity sets world gravity. The Y component has no counterpart in the
// x-z plane and must be zero.
func (e *Box2DEngine) SetGravity(g Vec3) error {
	if e.world == nil {
		return fmt.Errorf("%w: set gravity: engine not initialized", ErrDynamics)
	}
	if g.Y != 0 {
		return fmt.Errorf("%w: gravity Y component %v is not representable", ErrDynamics, g.Y)
	}
	e.world.SetGravity(box2d.MakeB2Vec2(g.X, g.Z))
	return nil
}

// LoadBody creates a body from desc.
func (e *Box2DEngine) LoadBody(desc BodyDesc) (BodyID, error) {
	if e.world == nil {
		return 0, fmt.Errorf("%w: %s: engine not initialized", ErrBodyLoad, desc.Name)
	}
	if desc.Position.Y != 0 {
		return 0, fmt.Errorf("%w: %s: Y position %v is outside the simulated plane", ErrBodyLoad, desc.Name, desc.Position.Y)
	}

	bd := box2d.MakeB2BodyDef()
	shape := box2d.MakeB2PolygonShape()
	fd := box2d.MakeB2FixtureDef()
	fd.Friction = desc.Friction

	switch desc.Kind {
	case KindPlane:
		bd.Type = box2d.B2BodyType.B2_staticBody
		bd.Position.Set(desc.Position.X, desc.Position.Z-groundHalfHeight)
		shape.SetAsBox(groundHalfWidth, groundHalfHeight)
	case KindBox, KindFixedBox:
		if desc.Scale <= 0 {
			return 0, fmt.Errorf("%w: %s: scale must be positive, got %v", ErrBodyLoad, desc.Name, desc.Scale)
		}
		switch {
		case desc.Kind == KindBox:
			bd.Type = box2d.B2BodyType.B2_dynamicBody
			fd.Density = boxDensity
		case desc.Grip < 0 || math.IsNaN(desc.Grip):
			return 0, fmt.Errorf("%w: %s: grip must be non-negative, got %v", ErrBodyLoad, desc.Name, desc.Grip)
		case desc.Grip > 0:
			if desc.Position.X == 0 {
				return 0, fmt.Errorf("%w: %s: a gripping box at X=0 has no closing direction", ErrBodyLoad, desc.Name)
			}
			bd.Type = box2d.B2BodyType.B2_dynamicBody
			bd.FixedRotation = true
			fd.Density = boxDensity
		default:
			bd.Type = box2d.B2BodyType.B2_staticBody
		}
		// A sleeping body ignores later friction changes.
		bd.AllowSleep = false
		bd.Position.Set(desc.Position.X, desc.Position.Z)
		half := desc.Scale / 2
		shape.SetAsBox(half, half)
	default:
		return 0, fmt.Errorf("%w: %s: unsupported body kind %s", ErrBodyLoad, desc.Name, desc.Kind)
	}

	fd.Shape = &shape
	body := e.world.CreateBody(&bd)
	if body == nil {
		return 0, fmt.Errorf("%w: %s: world rejected body", ErrBodyLoad, desc.Name)
	}
	body.CreateFixtureFromDef(&fd)
	if desc.Kind == KindFixedBox && desc.Grip > 0 {
		e.attachSlide(body, desc.Position.X, desc.Grip)
	}

	e.bodies = append(e.bodies, body)
	return BodyID(len(e.bodies) - 1), nil
}

// attachSlide constrains body to horizontal travel and drives it toward X=0
// with at most grip newtons.
func (e *Box2DEngine) attachSlide(body *box2d.B2Body, x, grip float64) {
	jd := box2d.MakeB2PrismaticJointDef()
	jd.Initialize(e.anchor, body, body.GetPosition(), box2d.MakeB2Vec2(1, 0))
	jd.EnableMotor = true
	jd.MaxMotorForce = grip
	jd.MotorSpeed = -math.Copysign(gripSpeed, x)
	e.world.CreateJoint(&jd)
}

// SetFriction updates every fixture on the body and re-mixes the friction of
// contacts that already exist, so the new value holds from the next Step.
// The body is woken so the change is never swallowed by sleep.
func (e *Box2DEngine) SetFriction(id BodyID, friction float64) error {
	body, err := e.body(id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDynamics, err)
	}
	if friction < 0 || math.IsNaN(friction) {
		return fmt.Errorf("%w: friction must be non-negative, got %v", ErrDynamics, friction)
	}

	for f := body.GetFixtureList(); f != nil; f = f.GetNext() {
		f.SetFriction(friction)
	}
	for ce := body.GetContactList(); ce != nil; ce = ce.Next {
		ce.Contact.ResetFriction()
	}
	body.SetAwake(true)
	return nil
}

// Step advances the world by the configured timestep.
func (e *Box2DEngine) Step() error {
	if e.world == nil {
		return fmt.Errorf("%w: engine not initialized", ErrStep)
	}
	e.world.Step(e.opts.TimeStep, e.opts.VelocityIterations, e.opts.PositionIterations)
	return nil
}

// Pose returns the body's position and its rotation about the world Y axis.
func (e *Box2DEngine) Pose(id BodyID) (Pose, error) {
	body, err := e.body(id)
	if err != nil {
		return Pose{}, fmt.Errorf("%w: %v", ErrQuery, err)
	}

	p := body.GetPosition()
	// A counter-clockwise angle in the x-z plane is a negative rotation about +Y.
	half := -body.GetAngle() / 2
	return Pose{
		Position:    Vec3{X: p.X, Y: 0, Z: p.Y},
		Orientation: Quat{Y: math.Sin(half), W: math.Cos(half)},
	}, nil
}

// Shutdown destroys every body and releases the world.
func (e *Box2DEngine) Shutdown() error {
	if e.world == nil {
		return fmt.Errorf("%w: engine not initialized", ErrShutdown)
	}
	for _, b := range e.bodies {
		e.world.DestroyBody(b)
	}
	e.world.DestroyBody(e.anchor)
	e.bodies = nil
	e.anchor = nil
	e.world = nil
	return nil
}

func (e *Box2DEngine) body(id BodyID) (*box2d.B2Body, error) {
	if e.world == nil {
		return nil, fmt.Errorf("engine not initialized")
	}
	if id < 0 || int(id) >= len(e.bodies) {
		return nil, fmt.Errorf("unknown body %d", id)
	}
	return e.bodies[id], nil
}
