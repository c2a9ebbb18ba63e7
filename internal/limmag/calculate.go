// Package limmag evaluates the naked-eye limiting magnitude for an observer,
// a place, a moment and a pointing direction. Calculate is pure: it holds
// no state, performs no I/O and may be called concurrently.
package limmag

import (
	"math"

	"github.com/kirenia/clear-dark-sky/internal/atmosphere"
	"github.com/kirenia/clear-dark-sky/internal/ephemeris"
	"github.com/kirenia/clear-dark-sky/internal/skyglow"
	"github.com/kirenia/clear-dark-sky/internal/transform"
	"github.com/kirenia/clear-dark-sky/internal/vision"
)

var zenith = transform.CelestialPosition{RA: 0, Dec: 90}

// Calculate runs the full model for in. Numeric singularities in the input
// (humidity of exactly 100%, zero Snellen ratio) are not guarded and show up
// as non-finite fields.
func Calculate(in Input) Result {
	band := atmosphere.Visual()

	tz := transform.TimezoneOffset(in.Longitude, in.DST)
	jd := transform.JulianDay(in.Year, in.Month, in.Day, transform.DecimalHours(in.Hour, in.Minute, in.Second), tz)
	lst := transform.LocalSiderealTime(jd, in.Longitude)

	sun := ephemeris.Sun(jd)
	moon := ephemeris.Moon(jd, in.Latitude, lst)
	sunH := transform.ToHorizon(sun, in.Latitude, lst)
	moonH := transform.ToHorizon(moon, in.Latitude, lst)

	illFrac := ephemeris.IlluminatedFraction(moon, sun)
	phase := ephemeris.PhaseAngle(illFrac)

	starAlt := math.Max(0, math.Min(90, in.AltStar))

	// Separations are taken on the horizon sphere, with azimuth standing in
	// for right ascension.
	pointing := transform.CelestialPosition{RA: in.AzStar / 15, Dec: starAlt}
	moonSky := transform.CelestialPosition{RA: moonH.Az / 15, Dec: moonH.Alt}
	sunSky := transform.CelestialPosition{RA: sunH.Az / 15, Dec: sunH.Alt}

	moonZenith := transform.Subtend(zenith, moonSky)
	moonRho := transform.Subtend(pointing, moonSky)
	sunZenith := transform.Subtend(zenith, sunSky)
	sunRho := transform.Subtend(pointing, sunSky)
	starZenith := (90 - starAlt) / transform.DegPerRad

	ext := atmosphere.Coefficients(band, atmosphere.Conditions{
		Elevation:    in.Elevation,
		Humidity:     in.Humidity,
		TemperatureF: in.Temperature,
		Latitude:     in.Latitude,
		SunRA:        sun.RA,
	})

	geo := skyglow.Geometry{
		K:              ext.K,
		StarAirmass:    atmosphere.Airmass(starZenith),
		MoonAirmass:    atmosphere.BodyAirmass(moonZenith),
		SunAirmass:     atmosphere.BodyAirmass(sunZenith),
		MoonSeparation: moonRho,
		SunSeparation:  sunRho,
		MoonPhase:      phase,
		MoonDistance:   moon.Distance,
		SunAltitude:    sunH.Alt,
		Year:           in.Year,
	}
	sky := skyglow.Compute(band, geo)
	eye := vision.Limit(sky.Total, ext.K, ext.Sigma, geo.StarAirmass, illFrac, in.Observer())

	res := Result{
		AltStar: starAlt,

		AltSun: round1(sunH.Alt),
		AzSun:  round1(sunH.Az),
		RhoSun: round1(sunRho * transform.DegPerRad),

		AltMoon: round1(moonH.Alt),
		AzMoon:  round1(moonH.Az),
		RhoMoon: round1(moonRho * transform.DegPerRad),
		IllFrac: math.Floor(illFrac*1e4) / 100,

		LimMag: round2(eye.Magnitude),
		MagErr: round2(math.Abs(eye.Sigma)),

		ExtinctionCoeff: round2(ext.K),
		Extinction:      round2(ext.Loss(starZenith)),

		SkyBrightnessNL:  Nanolamberts(sky.Total),
		SkyBrightnessMag: round2(skyglow.SurfaceBrightness(sky.Total)),

		JD:  jd,
		LST: formatLST(lst),

		IsDaytime: eye.Day,
		MoonIsUp:  moonH.Alt > 0,
		SunIsUp:   sunH.Alt > 0,
	}

	// The Moon's magnitude needs it strictly above the horizon, its sky
	// contribution only not below it.
	if moonH.Alt > 0 {
		res.MagMoon = ptr(round2(skyglow.Magnitude(sky.MoonIntensity)))
	}
	if moonH.Alt >= 0 {
		nl := Nanolamberts(sky.Moon)
		res.MoonBrightnessNL = &nl
		res.MoonBrightnessMag = ptr(round2(skyglow.SurfaceBrightness(sky.Moon)))
	}
	if sunH.Alt > 0 {
		res.MagSun = ptr(round2(skyglow.SunMagnitude(ext.K, geo.SunAirmass)))
	}

	res.Diagnostics = Diagnostics{
		LST:                 lst,
		Sun:                 sun,
		Moon:                moon,
		SunHorizon:          sunH,
		MoonHorizon:         moonH,
		SunSeparation:       sunRho * transform.DegPerRad,
		MoonSeparation:      moonRho * transform.DegPerRad,
		IlluminatedFraction: illFrac,
		Phase:               phase,
		StarAirmass:         geo.StarAirmass,
		MoonAirmass:         geo.MoonAirmass,
		SunAirmass:          geo.SunAirmass,
		Extinction:          ext,
		Loss:                ext.Loss(starZenith),
		Brightness:          sky,
		Vision:              eye,
	}
	return res
}
