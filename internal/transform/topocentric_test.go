package transform

import (
	"math"
	"testing"
)

func TestToHorizon_Meridian(t *testing.T) {
	// Object on the meridian 10 degrees south of the zenith.
	lat, lst := 31.95, 2.883
	hp := ToHorizon(CelestialPosition{RA: lst, Dec: lat - 10}, lat, lst)

	if math.Abs(hp.Alt-80) > 1e-9 {
		t.Errorf("meridian altitude = %.10f, want 80", hp.Alt)
	}
	if math.Abs(hp.Az-180) > 1e-9 {
		t.Errorf("meridian azimuth = %.10f, want 180", hp.Az)
	}
}

func TestToHorizon_WestHorizon(t *testing.T) {
	// An equatorial object six hours past the meridian sets due west.
	hp := ToHorizon(CelestialPosition{RA: 0, Dec: 0}, 40, 6)

	if math.Abs(hp.Alt) > 1e-9 {
		t.Errorf("altitude = %.10f, want 0", hp.Alt)
	}
	if math.Abs(hp.Az-270) > 1e-6 {
		t.Errorf("azimuth = %.6f, want 270", hp.Az)
	}
}

func TestToHorizon_HourAngleWrap(t *testing.T) {
	// LST 23h and RA 1h is the same geometry as LST 1h and RA 3h.
	a := ToHorizon(CelestialPosition{RA: 1, Dec: 20}, 45, 23)
	b := ToHorizon(CelestialPosition{RA: 3, Dec: 20}, 45, 1)
	if math.Abs(a.Alt-b.Alt) > 1e-9 || math.Abs(a.Az-b.Az) > 1e-9 {
		t.Errorf("wrapped hour angle mismatch: %+v vs %+v", a, b)
	}
}

func TestWrapHours(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{12, 12},
		{-12, -12},
		{13, -11},
		{-13, 11},
		{49, 1},
		{1e6, 1e6},
	}
	for _, tt := range tests {
		if got := WrapHours(tt.in); got != tt.want {
			t.Errorf("WrapHours(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestAtanCirc(t *testing.T) {
	tests := []struct {
		x, y, want float64
	}{
		{1, 0, 0},
		{0, 1, math.Pi / 2},
		{-1, 0, math.Pi},
		{0, -1, 3 * math.Pi / 2},
		{1, -1, 7 * math.Pi / 4},
		{0, 0, 0},
	}
	for _, tt := range tests {
		if got := AtanCirc(tt.x, tt.y); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("AtanCirc(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestSubtend_Symmetric(t *testing.T) {
	for ra1 := 0.0; ra1 < 24; ra1 += 3.7 {
		for dec1 := -85.0; dec1 <= 85; dec1 += 17 {
			for ra2 := 0.5; ra2 < 24; ra2 += 5.3 {
				for dec2 := -79.0; dec2 <= 89.9; dec2 += 23 {
					a := CelestialPosition{RA: ra1, Dec: dec1}
					b := CelestialPosition{RA: ra2, Dec: dec2}
					if ab, ba := Subtend(a, b), Subtend(b, a); ab != ba {
						t.Fatalf("Subtend(%v, %v) = %v but reverse = %v", a, b, ab, ba)
					}
				}
			}
		}
	}
}

func TestSubtend_KnownSeparations(t *testing.T) {
	tests := []struct {
		name string
		a, b CelestialPosition
		want float64 // degrees
	}{
		{"pole to equator", CelestialPosition{RA: 0, Dec: 90}, CelestialPosition{RA: 5, Dec: 0}, 90},
		{"along equator", CelestialPosition{RA: 0, Dec: 0}, CelestialPosition{RA: 6, Dec: 0}, 90},
		{"sixty degrees", CelestialPosition{RA: 0, Dec: 0}, CelestialPosition{RA: 4, Dec: 0}, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Subtend(tt.a, tt.b) * DegPerRad
			if math.Abs(got-tt.want) > 1e-5 {
				t.Errorf("Subtend = %.8f deg, want %.8f", got, tt.want)
			}
		})
	}
}

func TestSubtend_FlatSkyFallback(t *testing.T) {
	// 0.5 arcsec in declination: below the law-of-cosines precision limit.
	a := CelestialPosition{RA: 10, Dec: 20}
	b := CelestialPosition{RA: 10, Dec: 20 + 0.5/3600}

	got := Subtend(a, b)
	want := 0.5 / 3600 / DegPerRad
	if math.Abs(got-want)/want > 1e-6 {
		t.Errorf("small separation = %.6e rad, want %.6e", got, want)
	}
}

func TestObserverVector_UnitLength(t *testing.T) {
	for _, lat := range []float64{-90, -31.95, 0, 45, 90} {
		for _, lst := range []float64{0, 6.5, 18.2} {
			x, y, z := ObserverVector(lat, lst)
			if r := math.Sqrt(x*x + y*y + z*z); math.Abs(r-1) > 1e-12 {
				t.Errorf("ObserverVector(%v, %v) length = %v, want 1", lat, lst, r)
			}
		}
	}
}
