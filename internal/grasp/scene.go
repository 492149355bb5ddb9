package grasp

import (
	"fmt"

	"github.com/nvandessel/sliptrace/internal/physics"
)

// Scene holds the handles of the four bodies in the grasp world.
type Scene struct {
	Ground      physics.BodyID
	Object      physics.BodyID
	LeftFinger  physics.BodyID
	RightFinger physics.BodyID
}

// BuildScene initializes eng and loads the grasp world: gravity, a ground
// plane, the free object at StartHeight, two fingers on either side of it
// pressing inward with GripForce, and finally the object's initial friction. Any failure is returned
// as-is; nothing is retried and the engine is left for the caller to shut down.
func BuildScene(eng physics.Engine, p SceneParams, opts physics.Options) (Scene, error) {
	var s Scene

	if err := eng.Init(opts); err != nil {
		return s, err
	}
	if err := eng.SetGravity(p.Gravity); err != nil {
		return s, fmt.Errorf("setting gravity: %w", err)
	}

	bodies := []struct {
		dst  *physics.BodyID
		desc physics.BodyDesc
	}{
		{&s.Ground, physics.BodyDesc{
			Name:     "ground",
			Kind:     physics.KindPlane,
			Friction: p.SurfaceFriction,
		}},
		{&s.Object, physics.BodyDesc{
			Name:     "object",
			Kind:     physics.KindBox,
			Position: physics.Vec3{Z: p.StartHeight},
			Scale:    p.ObjectScale,
			Friction: p.SurfaceFriction,
		}},
		{&s.LeftFinger, physics.BodyDesc{
			Name:     "left-finger",
			Kind:     physics.KindFixedBox,
			Position: physics.Vec3{X: -p.FingerOffsetX, Z: p.StartHeight},
			Scale:    p.FingerScale,
			Friction: p.SurfaceFriction,
			Grip:     p.GripForce,
		}},
		{&s.RightFinger, physics.BodyDesc{
			Name:     "right-finger",
			Kind:     physics.KindFixedBox,
			Position: physics.Vec3{X: p.FingerOffsetX, Z: p.StartHeight},
			Scale:    p.FingerScale,
			Friction: p.SurfaceFriction,
			Grip:     p.GripForce,
		}},
	}
	for _, b := range bodies {
		id, err := eng.LoadBody(b.desc)
		if err != nil {
			return s, err
		}
		*b.dst = id
	}

	if err := eng.SetFriction(s.Object, p.InitialFriction); err != nil {
		return s, fmt.Errorf("setting initial friction: %w", err)
	}
	return s, nil
}
