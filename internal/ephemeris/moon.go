package ephemeris

import (
	"math"

	"github.com/kirenia/clear-dark-sky/internal/transform"
)

// harmonic is one periodic term: amplitude·f(phase + rate·T) in degrees,
// with T in Julian centuries from J2000.
type harmonic struct {
	amp, phase, rate float64
}

// Truncated lunar series (Astronomical Almanac, low precision).
var (
	longitudeTerms = []harmonic{
		{6.29, 134.9, 477198.85},
		{-1.27, 259.2, -413335.38},
		{0.66, 235.7, 890534.23},
		{0.21, 269.9, 954397.70},
		{-0.19, 357.5, 35999.05},
		{-0.11, 186.6, 966404.05},
	}
	latitudeTerms = []harmonic{
		{5.13, 93.3, 483202.03},
		{0.28, 228.2, 960400.87},
		{-0.28, 318.3, 6003.18},
		{-0.17, 217.6, -407332.20},
	}
	parallaxTerms = []harmonic{
		{0.0518, 134.9, 477198.85},
		{0.0095, 259.2, -413335.38},
		{0.0078, 235.7, 890534.23},
		{0.0028, 269.9, 954397.70},
	}
)

func sumSin(terms []harmonic, t float64) float64 {
	var s float64
	for _, h := range terms {
		s += h.amp * math.Sin((h.phase+h.rate*t)/transform.DegPerRad)
	}
	return s
}

func sumCos(terms []harmonic, t float64) float64 {
	var s float64
	for _, h := range terms {
		s += h.amp * math.Cos((h.phase+h.rate*t)/transform.DegPerRad)
	}
	return s
}

// Moon returns the topocentric position of the Moon at Julian Date jd for an
// observer at latitude lat (degrees) and local sidereal time lst (hours).
// Distance is the topocentric distance in Earth radii.
//
// The geocentric direction comes from the truncated series; the observer's
// geocentric vector is then subtracted so that parallax (up to a degree near
// the horizon) is included.
func Moon(jd, lat, lst float64) transform.CelestialPosition {
	t := (jd - j2000) / 36525

	lambda := (218.32 + 481267.883*t + sumSin(longitudeTerms, t)) / transform.DegPerRad
	beta := sumSin(latitudeTerms, t) / transform.DegPerRad
	pie := (0.9508 + sumCos(parallaxTerms, t)) / transform.DegPerRad

	dist := 1 / math.Sin(pie)

	// Ecliptic to equatorial direction cosines (fixed J2000 obliquity).
	l := math.Cos(beta) * math.Cos(lambda)
	m := 0.9175*math.Cos(beta)*math.Sin(lambda) - 0.3978*math.Sin(beta)
	n := 0.3978*math.Cos(beta)*math.Sin(lambda) + 0.9175*math.Sin(beta)

	ox, oy, oz := transform.ObserverVector(lat, lst)
	x := l*dist - ox
	y := m*dist - oy
	z := n*dist - oz

	topo := math.Sqrt(x*x + y*y + z*z)

	return transform.CelestialPosition{
		RA:       transform.AtanCirc(x/topo, y/topo) * transform.HoursPerRad,
		Dec:      math.Asin(z/topo) * transform.DegPerRad,
		Distance: topo,
	}
}
