package field

import "math"

// stabilityFloor keeps the stability score strictly inside (0,1) even for
// an all-zero field.
const stabilityFloor = 0.1

// Stability derives the stability score of a field:
//
//	score = Σx² / (Σx² + 0.1*len)
//
// The score is monotonically increasing in the field's energy and always
// lies in the open interval (0,1). It is a pure, total function.
func Stability(f Field) float64 {
	var energy float64
	for _, x := range f {
		energy += x * x
	}
	return energy / (energy + stabilityFloor*float64(len(f)))
}

// Turbulence derives the population standard deviation of a field, a
// proxy for short-term instability. It is a pure, total function.
func Turbulence(f Field) float64 {
	if len(f) == 0 {
		return 0
	}

	var sum float64
	for _, x := range f {
		sum += x
	}
	mean := sum / float64(len(f))

	var variance float64
	for _, x := range f {
		d := x - mean
		variance += d * d
	}
	variance /= float64(len(f))

	return math.Sqrt(variance)
}
