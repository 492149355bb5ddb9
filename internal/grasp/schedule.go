package grasp

import (
	"math"

	"github.com/nvandessel/sliptrace/internal/constants"
)

// FrictionSchedule is a hold-then-ramp friction profile. It has no state;
// At is a pure function of the step index.
type FrictionSchedule struct {
	// Initial is used for every step t <= HoldSteps.
	Initial float64
	// HoldSteps is the last step that still uses Initial.
	HoldSteps int
	// RampRate is subtracted once per step after HoldSteps.
	RampRate float64
	// Floor is the lowest value the ramp reaches.
	Floor float64
}

// DefaultFrictionSchedule returns the compiled-in profile:
// 1.0 through step 50, then falling by 0.005 per step to a floor of 0.01.
func DefaultFrictionSchedule() FrictionSchedule {
	return FrictionSchedule{
		Initial:   constants.InitialFriction,
		HoldSteps: constants.FrictionHoldSteps,
		RampRate:  constants.FrictionRampRate,
		Floor:     constants.FrictionFloor,
	}
}

// At returns the friction coefficient to apply before step t.
func (s FrictionSchedule) At(t int) float64 {
	if t <= s.HoldSteps {
		return s.Initial
	}
	return math.Max(s.Floor, s.Initial-float64(t-s.HoldSteps)*s.RampRate)
}
