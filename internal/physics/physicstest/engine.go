// Package physicstest provides a scripted physics.Engine for tests.
package physicstest

import (
	"fmt"

	"github.com/nvandessel/sliptrace/internal/physics"
)

// Engine is a deterministic physics.Engine whose dynamic body follows a
// scripted height sequence instead of being integrated.
//
// After the n-th Step, Pose of any KindBox body reports Heights[n-1]; once the
// script runs out the last height repeats. Before the first Step it reports
// the loaded position. Every call is appended to Calls.
type Engine struct {
	Heights []float64

	// Fail* inject errors. FailLoadAt and FailStepAt are 1-based call counts;
	// zero disables them.
	FailInit     error
	FailLoadAt   int
	FailStepAt   int
	FailPose     error
	FailShutdown error

	Calls     []string
	Bodies    []physics.BodyDesc
	Frictions map[physics.BodyID][]float64
	Gravity   physics.Vec3
	Options   physics.Options
	Steps     int

	initialized bool
	shutdown    bool
}

// New returns an Engine following heights.
func New(heights ...float64) *Engine {
	return &Engine{Heights: heights}
}

// Constant returns a script that holds z for n steps.
func Constant(z float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = z
	}
	return out
}

// Linear returns a script of n heights starting at from and moving by delta per step.
func Linear(from, delta float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + delta*float64(i)
	}
	return out
}

func (e *Engine) Init(opts physics.Options) error {
	e.Calls = append(e.Calls, "init")
	if e.FailInit != nil {
		return fmt.Errorf("%w: %v", physics.ErrEngineInit, e.FailInit)
	}
	if e.initialized {
		return fmt.Errorf("%w: engine already initialized", physics.ErrEngineInit)
	}
	e.initialized = true
	e.Options = opts
	e.Frictions = make(map[physics.BodyID][]float64)
	return nil
}

func (e *Engine) SetGravity(g physics.Vec3) error {
	e.Calls = append(e.Calls, "gravity")
	if !e.initialized {
		return fmt.Errorf("%w: engine not initialized", physics.ErrDynamics)
	}
	e.Gravity = g
	return nil
}

func (e *Engine) LoadBody(desc physics.BodyDesc) (physics.BodyID, error) {
	e.Calls = append(e.Calls, "load:"+desc.Name)
	if !e.initialized {
		return 0, fmt.Errorf("%w: engine not initialized", physics.ErrBodyLoad)
	}
	if e.FailLoadAt > 0 && len(e.Bodies)+1 == e.FailLoadAt {
		return 0, fmt.Errorf("%w: %s: scripted failure", physics.ErrBodyLoad, desc.Name)
	}
	e.Bodies = append(e.Bodies, desc)
	return physics.BodyID(len(e.Bodies) - 1), nil
}

func (e *Engine) SetFriction(id physics.BodyID, friction float64) error {
	e.Calls = append(e.Calls, "friction")
	if err := e.check(id); err != nil {
		return fmt.Errorf("%w: %v", physics.ErrDynamics, err)
	}
	e.Frictions[id] = append(e.Frictions[id], friction)
	return nil
}

func (e *Engine) Step() error {
	e.Calls = append(e.Calls, "step")
	if !e.initialized {
		return fmt.Errorf("%w: engine not initialized", physics.ErrStep)
	}
	if e.FailStepAt > 0 && e.Steps+1 == e.FailStepAt {
		return fmt.Errorf("%w: scripted failure at step %d", physics.ErrStep, e.Steps+1)
	}
	e.Steps++
	return nil
}

func (e *Engine) Pose(id physics.BodyID) (physics.Pose, error) {
	e.Calls = append(e.Calls, "pose")
	if err := e.check(id); err != nil {
		return physics.Pose{}, fmt.Errorf("%w: %v", physics.ErrQuery, err)
	}
	if e.FailPose != nil {
		return physics.Pose{}, fmt.Errorf("%w: %v", physics.ErrQuery, e.FailPose)
	}

	desc := e.Bodies[id]
	pos := desc.Position
	if desc.Kind == physics.KindBox && e.Steps > 0 && len(e.Heights) > 0 {
		i := e.Steps - 1
		if i >= len(e.Heights) {
			i = len(e.Heights) - 1
		}
		pos.Z = e.Heights[i]
	}
	return physics.Pose{Position: pos, Orientation: physics.IdentityQuat}, nil
}

func (e *Engine) Shutdown() error {
	e.Calls = append(e.Calls, "shutdown")
	if !e.initialized {
		return fmt.Errorf("%w: engine not initialized", physics.ErrShutdown)
	}
	if e.FailShutdown != nil {
		return fmt.Errorf("%w: %v", physics.ErrShutdown, e.FailShutdown)
	}
	e.shutdown = true
	return nil
}

// IsShutdown reports whether Shutdown completed.
func (e *Engine) IsShutdown() bool {
	return e.shutdown
}

// Count returns how many recorded calls equal name.
func (e *Engine) Count(name string) int {
	n := 0
	for _, c := range e.Calls {
		if c == name {
			n++
		}
	}
	return n
}

func (e *Engine) check(id physics.BodyID) error {
	if !e.initialized {
		return fmt.Errorf("engine not initialized")
	}
	if id < 0 || int(id) >= len(e.Bodies) {
		return fmt.Errorf("unknown body %d", id)
	}
	return nil
}
