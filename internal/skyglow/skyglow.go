// Package skyglow computes the background sky brightness, in nanolamberts,
// seen in one direction: night glow, twilight or daylight, and moonlight
// (either diffuse glow or near-Moon glare).
//
// References: Krisciunas & Schaefer 1991 (moonlight), Schaefer 1993 and
// 1998 (twilight, daylight, solar cycle), Garstang 1986/1989 (night sky).
package skyglow

import (
	"math"

	"github.com/kirenia/clear-dark-sky/internal/atmosphere"
)

const (
	degPerRad = 57.2957795130823

	// meanMoonDistance is the mean Earth–Moon distance in Earth radii.
	meanMoonDistance = 60.27

	// glareRadius is the Moon separation (degrees) inside which glare
	// replaces diffuse moonlight.
	glareRadius = 5.0

	// glareMinPhase keeps the glare branch off for an exactly full Moon,
	// where its 1/phase point-source term diverges.
	glareMinPhase = 1.0

	// daylightScale converts the Sun's scattered light into nanolamberts.
	daylightScale = 11700.0
)

// Geometry is the per-direction input of the brightness model.
type Geometry struct {
	K float64 // extinction coefficient, mag/airmass

	StarAirmass float64 // toward the pointing direction
	MoonAirmass float64 // toward the Moon, ceiling when below the horizon
	SunAirmass  float64 // toward the Sun, ceiling when below the horizon

	MoonSeparation float64 // pointing-to-Moon angle, radians
	SunSeparation  float64 // pointing-to-Sun angle, radians
	MoonPhase      float64 // degrees, 0 = full
	MoonDistance   float64 // topocentric, Earth radii
	SunAltitude    float64 // degrees

	Year int
}

// Brightness is the decomposed sky background in nanolamberts.
type Brightness struct {
	Moon     float64 `json:"moon"`
	Glare    float64 `json:"glare"`
	Night    float64 `json:"night"`
	Twilight float64 `json:"twilight"`
	Day      float64 `json:"day"`
	Total    float64 `json:"total"`

	// GlareBranch reports that the near-Moon glare terms replaced diffuse
	// moonlight.
	GlareBranch bool `json:"glare_branch"`

	// LunarIntensity is the Moon's flux outside the atmosphere and
	// MoonIntensity the flux reaching the observer, both in the units
	// where magnitude = -16.57 - 2.5·log10(flux).
	LunarIntensity float64 `json:"lunar_intensity"`
	MoonIntensity  float64 `json:"moon_intensity"`
}

// PhaseFunction is the scattering function for light from a source at
// angular distance rho (radians): Rayleigh-like cos² core, an exponential
// for intermediate angles and an inverse square for the aureole.
func PhaseFunction(rho float64) float64 {
	deg := rho * degPerRad
	return math.Pow(10, 5.36)*(1.06+math.Pow(math.Cos(rho), 2)) +
		math.Pow(10, 6.15-deg/40) +
		6.2e7*math.Pow(deg, -2)
}

// LunarIntensity returns the Moon's flux above the atmosphere for a phase
// angle in degrees and a distance in Earth radii, including the opposition
// surge (capped at 1.35).
func LunarIntensity(phase, distance float64) float64 {
	mag := -12.73 + 0.026*math.Abs(phase) + 4e-9*math.Pow(phase, 4)
	i := math.Pow(10, -0.4*(mag+16.57))
	d := distance / meanMoonDistance
	return i / (d * d) * math.Max(1, 1.35-0.05*math.Abs(phase))
}

// GlareBranch reports whether the near-Moon glare model applies: the
// pointing is within 5° of the Moon and the Moon is not exactly full.
func GlareBranch(separationDeg, phase float64) bool {
	return separationDeg <= glareRadius && phase > glareMinPhase
}

// Compute evaluates every brightness component for band b.
func Compute(b atmosphere.Band, g Geometry) Brightness {
	var out Brightness

	starTransmission := math.Pow(10, -0.4*g.K*g.StarAirmass)
	moonTransmission := math.Pow(10, -0.4*g.K*g.MoonAirmass)
	sunTransmission := math.Pow(10, -0.4*g.K*g.SunAirmass)

	// Moonlight.
	out.LunarIntensity = LunarIntensity(g.MoonPhase, g.MoonDistance)
	out.MoonIntensity = out.LunarIntensity * moonTransmission

	rho := g.MoonSeparation
	if GlareBranch(rho*degPerRad, g.MoonPhase) {
		atm := 6.25e7 * out.LunarIntensity * math.Pow(rho, -2) *
			(moonTransmission - math.Pow(10, -0.8*g.K*g.MoonAirmass))
		eye := 4.63e7 * out.MoonIntensity * math.Pow(rho, -2)
		out.Glare = atm + eye
		out.Moon = 5.67e10 * out.MoonIntensity / g.MoonPhase
		out.GlareBranch = true
	} else {
		out.Moon = PhaseFunction(rho) * out.MoonIntensity * (1 - starTransmission)
	}

	// Night sky, with the solar-cycle modulation of airglow.
	cycle := 1 + 0.3*math.Cos(2*math.Pi*float64(g.Year-1992)/11)
	out.Night = b.NightGlow * (0.4 + 0.6*g.StarAirmass) * starTransmission * cycle

	// Twilight and daylight; the smaller one is the valid regime.
	out.Twilight = math.Max(1, math.Pow(10, g.SunSeparation*degPerRad/90-1.1)) *
		math.Pow(10, 8.45+0.4*g.SunAltitude) * (1 - starTransmission)
	out.Day = daylightScale * PhaseFunction(g.SunSeparation) * sunTransmission * (1 - starTransmission)

	out.Total = out.Moon + out.Glare + out.Night + math.Min(out.Twilight, out.Day)
	return out
}

// SunMagnitude returns the Sun's apparent V magnitude after extinction along
// airmass x.
func SunMagnitude(k, x float64) float64 {
	return -2.5*math.Log10(daylightScale*math.Pow(10, -0.4*k*x)) - 16.57
}

// Magnitude converts a flux in model units into a magnitude.
func Magnitude(flux float64) float64 {
	return -2.5*math.Log10(flux) - 16.57
}

// SurfaceBrightness converts nanolamberts into V mag/arcsec².
func SurfaceBrightness(nL float64) float64 {
	return 27.78151 - math.Log(nL/0.263)/0.921034
}
