package rng

import "math"

// twoPow32 is the span of a 32-bit source as a float32 (exactly representable).
const twoPow32 = float32(1 << 32)

// maxCanonical is the largest float32 below 1.
var maxCanonical = math.Nextafter32(1, 0)

// Uniform draws float32 values in [Low, High]. High itself is only reached through
// float32 rounding of draws just below it.
type Uniform struct {
	Low  float32
	High float32
}

var (
	// PeriodDist is the cycle duration range in time units.
	PeriodDist = Uniform{Low: 0.5, High: 1.5}
	// AmplitudeDist is the cycle peak magnitude range.
	AmplitudeDist = Uniform{Low: 0.1, High: 1.0}
)

// Canonical maps one 32-bit draw to [0, 1) in single precision. The division is
// rounded to float32, so draws near 2^32 round up to 1 and are clamped back below it.
func Canonical(src Source) float32 {
	u := float32(src.Uint32()) / twoPow32
	if u >= 1 {
		u = maxCanonical
	}
	return u
}

// Draw consumes exactly one value from src.
func (d Uniform) Draw(src Source) float32 {
	// The explicit conversion keeps the multiply rounded on its own, so the
	// result cannot differ by platform through a fused multiply-add.
	return float32(Canonical(src)*(d.High-d.Low)) + d.Low
}
