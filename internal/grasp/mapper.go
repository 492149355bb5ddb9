package grasp

import (
	"math"

	"github.com/nvandessel/sliptrace/internal/constants"
)

// PixelMapper converts object height into the image column a camera watching
// the object's edge would report.
type PixelMapper struct {
	// StartHeight is the height at which slip is zero.
	StartHeight float64
	// Center is the column reported at zero slip.
	Center int
	// Gain is pixels per meter of slip.
	Gain float64
	// Min and Max bound the reported column.
	Min, Max int
}

// DefaultPixelMapper returns the compiled-in camera: center 320, 5000 px/m,
// columns [0, 639], zero slip at 0.5 m.
func DefaultPixelMapper() PixelMapper {
	return PixelMapper{
		StartHeight: constants.ObjectStartHeight,
		Center:      constants.PixelCenter,
		Gain:        constants.PixelGain,
		Min:         constants.PixelMin,
		Max:         constants.PixelMax,
	}
}

// Slip returns the downward displacement from StartHeight.
func (m PixelMapper) Slip(z float64) float64 {
	return m.StartHeight - z
}

// Map returns round(Center + Slip(z)*Gain) clamped to [Min, Max].
// The result is non-decreasing in slip. NaN maps to Min.
func (m PixelMapper) Map(z float64) int {
	raw := float64(m.Center) + m.Slip(z)*m.Gain
	if math.IsNaN(raw) {
		return m.Min
	}
	r := math.Round(raw)
	if r <= float64(m.Min) {
		return m.Min
	}
	if r >= float64(m.Max) {
		return m.Max
	}
	return int(r)
}
