// Package grasp implements the grasp-slip scenario: a cube held between two
// fixed fingers loses friction on a schedule and slides down, and a virtual
// camera reports the slip as a horizontal pixel position.
//
// The pieces are independent so each can be tested alone:
//
//   - FrictionSchedule maps a step index to the object's friction.
//   - PixelMapper maps object height to a clamped pixel center.
//   - DropPolicy decides when the object counts as dropped.
//   - BuildScene loads the fixed world into a physics.Engine.
//   - Stepper drives the engine one step at a time and collects frames.
//   - Generator ties them together as a trace.Source.
//
// Usage:
//
//	gen := grasp.NewGenerator(grasp.DefaultConfig())
//	tr, err := gen.Produce(ctx)
//	if err != nil {
//	    return err
//	}
//	sum, err := trace.WriteFile("../tb/grasp_trace.hex", tr)
package grasp
