package grasp

import "github.com/nvandessel/sliptrace/internal/constants"

// DropPolicy decides after each step whether the object has been dropped.
type DropPolicy struct {
	// Threshold is the height below which the object counts as dropped.
	Threshold float64
}

// DefaultDropPolicy stops once the object is below 0.2 m (0.3 m of slip).
func DefaultDropPolicy() DropPolicy {
	return DropPolicy{Threshold: constants.DropThreshold}
}

// Dropped reports whether z is strictly below the threshold.
func (p DropPolicy) Dropped(z float64) bool {
	return z < p.Threshold
}
