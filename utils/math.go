package utils

import (
	"math"
)

// AngleDiffDeg returns the closest difference from the two given
// angles. The arguments are commutative.
func AngleDiffDeg(a1, a2 float64) float64 {
	return float64(180) - math.Abs(math.Abs(ModAngDeg(a1)-ModAngDeg(a2))-float64(180))
}

// SignedAngleDiffDeg returns the signed shortest rotation, in (-180, 180], that takes angle
// from to angle to.
func SignedAngleDiffDeg(from, to float64) float64 {
	d := ModAngDeg(to - from)
	if d > 180 {
		d -= 360
	}
	return d
}

// ModAngDeg wraps an angle in degrees into [0, 360).
func ModAngDeg(ang float64) float64 {
	return math.Mod(math.Mod(ang, 360)+360, 360)
}

// WithinAngleTolerance reports whether two angles are within tol degrees of each other
// once wrapped onto the circle.
func WithinAngleTolerance(a1, a2, tol float64) bool {
	return AngleDiffDeg(a1, a2) <= tol
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Sign returns -1, 0 or 1 according to the sign of v.
func Sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
