package transform

import "math"

const (
	// flatSkyLimit is the separation (radians) below which the law of
	// cosines loses precision.
	flatSkyLimit = 1.0e-5

	// polarGuard keeps the flat-sky fallback away from the poles, where
	// the cos(dec) scaling breaks down.
	polarGuard = math.Pi/2 - 0.001
)

// Subtend returns the angular separation in radians between two positions.
// Only RA (hours) and Dec (degrees) are used; callers also pass
// (azimuth/15, altitude) pairs to measure separations on the horizon grid.
func Subtend(a, b CelestialPosition) float64 {
	ra1, dec1 := a.RA/HoursPerRad, a.Dec/DegPerRad
	ra2, dec2 := b.RA/HoursPerRad, b.Dec/DegPerRad

	x1, y1, z1 := math.Cos(ra1)*math.Cos(dec1), math.Sin(ra1)*math.Cos(dec1), math.Sin(dec1)
	x2, y2, z2 := math.Cos(ra2)*math.Cos(dec2), math.Sin(ra2)*math.Cos(dec2), math.Sin(dec2)

	theta := math.Acos(x1*x2 + y1*y2 + z1*z2)

	if theta < flatSkyLimit && math.Abs(dec1) < polarGuard && math.Abs(dec2) < polarGuard {
		dx := (ra2 - ra1) * math.Cos((dec1+dec2)/2)
		dy := dec2 - dec1
		theta = math.Sqrt(dx*dx + dy*dy)
	}
	return theta
}
