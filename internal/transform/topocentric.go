package transform

import "math"

// Angle conversion factors used throughout the sky model.
const (
	DegPerRad   = 57.2957795130823
	HoursPerRad = 3.819718634205
)

// CelestialPosition is an equatorial position: right ascension in hours
// [0, 24), declination in degrees, and an optional distance in Earth radii
// (zero when unknown).
type CelestialPosition struct {
	RA       float64 `json:"ra"`
	Dec      float64 `json:"dec"`
	Distance float64 `json:"distance,omitempty"`
}

// HorizonPosition holds altitude and azimuth in degrees. Azimuth is measured
// from north through east.
type HorizonPosition struct {
	Alt float64 `json:"alt"`
	Az  float64 `json:"az"`
}

// AtanCirc returns the angle of the point (x, y) in radians, in [0, 2π).
func AtanCirc(x, y float64) float64 {
	var theta float64
	switch {
	case x == 0 && y > 0:
		theta = math.Pi / 2
	case x == 0 && y < 0:
		theta = 3 * math.Pi / 2
	case x == 0:
		theta = 0
	default:
		theta = math.Atan(y / x)
	}
	if x < 0 {
		theta += math.Pi
	}
	if theta < 0 {
		theta += 2 * math.Pi
	}
	return theta
}

// WrapHours folds an hour angle into [-12, 12]. Absurdly large inputs are
// returned unchanged rather than looped over.
func WrapHours(x float64) float64 {
	if math.Abs(x) < 100000 {
		for x > 12 {
			x -= 24
		}
		for x < -12 {
			x += 24
		}
	}
	return x
}

// ToHorizon converts an equatorial position to altitude/azimuth for an
// observer at latitude lat (degrees) and local sidereal time lst (hours).
func ToHorizon(pos CelestialPosition, lat, lst float64) HorizonPosition {
	ha := WrapHours(lst-pos.RA) / HoursPerRad
	dec := pos.Dec / DegPerRad
	phi := lat / DegPerRad

	sinAlt := math.Cos(dec)*math.Cos(ha)*math.Cos(phi) + math.Sin(dec)*math.Sin(phi)

	// Azimuth from the north/east components of the direction.
	north := math.Sin(dec)*math.Cos(phi) - math.Cos(dec)*math.Cos(ha)*math.Sin(phi)
	east := -math.Cos(dec) * math.Sin(ha)

	return HorizonPosition{
		Alt: math.Asin(sinAlt) * DegPerRad,
		Az:  AtanCirc(north, east) * DegPerRad,
	}
}

// ObserverVector returns the observer's geocentric position in Earth radii
// in the equatorial frame, for latitude lat (degrees) and local sidereal
// time lst (hours). Earth's flattening is neglected.
func ObserverVector(lat, lst float64) (x, y, z float64) {
	phi := lat / DegPerRad
	theta := lst / HoursPerRad
	return math.Cos(phi) * math.Cos(theta), math.Cos(phi) * math.Sin(theta), math.Sin(phi)
}
