package atmosphere

import "math"

const (
	degPerRad   = 57.2957795130823
	hoursPerRad = 3.819718634205

	// MaxAirmass is used for bodies below the horizon, where the secant
	// approximation would diverge.
	MaxAirmass = 40.0
)

// Airmass returns the relative optical path toward zenith distance z
// (radians), using a secant with a small exponential term that keeps it
// finite at the horizon.
func Airmass(z float64) float64 {
	return 1 / (math.Cos(z) + 0.025*math.Exp(-11*math.Cos(z)))
}

// BodyAirmass is Airmass with the MaxAirmass ceiling once the body is
// below the horizon (z > π/2).
func BodyAirmass(z float64) float64 {
	if z > math.Pi/2 {
		return MaxAirmass
	}
	return Airmass(z)
}
