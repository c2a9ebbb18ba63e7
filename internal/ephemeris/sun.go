// Package ephemeris provides low-precision analytic positions of the Sun
// and the Moon, good to a few arcminutes over several decades around J2000.
package ephemeris

import (
	"math"

	"github.com/kirenia/clear-dark-sky/internal/transform"
)

const j2000 = 2451545.0

// Sun returns the geocentric apparent position of the Sun at Julian Date jd.
// Distance is left unset.
//
// Mean longitude and mean anomaly are linear in days since J2000, with a
// two-term equation of center and a slowly drifting obliquity (Astronomical
// Almanac low-precision formulae).
func Sun(jd float64) transform.CelestialPosition {
	n := jd - j2000
	l := 280.460 + 0.9856474*n
	g := (357.528 + 0.9856003*n) / transform.DegPerRad
	lambda := (l + 1.915*math.Sin(g) + 0.020*math.Sin(2*g)) / transform.DegPerRad
	epsilon := (23.439 - 0.0000004*n) / transform.DegPerRad

	x := math.Cos(lambda)
	y := math.Cos(epsilon) * math.Sin(lambda)
	z := math.Sin(epsilon) * math.Sin(lambda)

	return transform.CelestialPosition{
		RA:  transform.AtanCirc(x, y) * transform.HoursPerRad,
		Dec: math.Asin(z) * transform.DegPerRad,
	}
}

// IlluminatedFraction returns the illuminated fraction [0, 1] of the Moon's
// disk from the Moon–Sun elongation.
func IlluminatedFraction(moon, sun transform.CelestialPosition) float64 {
	return 0.5 * (1 - math.Cos(transform.Subtend(moon, sun)))
}

// PhaseAngle returns the Sun–Moon–observer angle in degrees for an
// illuminated fraction: 0 at full Moon, 180 at new Moon.
func PhaseAngle(illFrac float64) float64 {
	return math.Acos(2*illFrac-1) * transform.DegPerRad
}
