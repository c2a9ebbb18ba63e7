package atmosphere

import "math"

// Conditions are the site and weather inputs of the extinction model.
type Conditions struct {
	Elevation    float64 // meters
	Humidity     float64 // percent, must stay below 100
	TemperatureF float64 // degrees Fahrenheit
	Latitude     float64 // degrees
	SunRA        float64 // hours; seasonal proxy for aerosol and ozone
}

// Term is one contribution to the extinction coefficient with its formal
// 1-sigma uncertainty.
type Term struct {
	K     float64 `json:"k"`
	Sigma float64 `json:"sigma"`
}

// Extinction is the total extinction coefficient (mag/airmass) split into
// its physical terms.
type Extinction struct {
	Rayleigh   Term    `json:"rayleigh"`
	Aerosol    Term    `json:"aerosol"`
	Ozone      Term    `json:"ozone"`
	WaterVapor Term    `json:"water_vapor"`
	K          float64 `json:"k"`
	Sigma      float64 `json:"sigma"`
}

// newTerm applies the empirical uncertainty: 0.01 mag plus 40% of the term.
func newTerm(k float64) Term {
	return Term{K: k, Sigma: 0.01 + 0.4*k}
}

// Coefficients evaluates the extinction model for band b.
//
// Humidity of exactly 100% makes log(h/100) zero and the aerosol term
// non-finite; the value is propagated, not clamped.
func Coefficients(b Band, c Conditions) Extinction {
	tempC := (c.TemperatureF - 32) * 5 / 9
	lat := c.Latitude / degPerRad
	sunRA := c.SunRA / hoursPerRad
	rel := b.Wavelength / 0.55

	kr := 0.1066 * math.Exp(-c.Elevation/8200) * math.Pow(rel, -4)
	ka := 0.12 * math.Pow(rel, -1.3) * math.Exp(-c.Elevation/1500) *
		math.Pow(1-0.32/math.Log(c.Humidity/100.0), 4.0/3.0) *
		(1 + 0.33*math.Sin(sunRA))
	ko := b.Ozone * (3.0 + 0.4*(lat*math.Cos(sunRA)-math.Cos(3*lat))) / 3.0
	kw := b.WaterVapor * 0.94 * (c.Humidity / 100.0) * math.Exp(tempC/15) * math.Exp(-c.Elevation/8200)

	e := Extinction{
		Rayleigh:   newTerm(kr),
		Aerosol:    newTerm(ka),
		Ozone:      newTerm(ko),
		WaterVapor: newTerm(kw),
		K:          kr + ka + ko + kw,
	}
	e.Sigma = math.Sqrt(
		e.Rayleigh.Sigma*e.Rayleigh.Sigma +
			e.Aerosol.Sigma*e.Aerosol.Sigma +
			e.Ozone.Sigma*e.Ozone.Sigma +
			e.WaterVapor.Sigma*e.WaterVapor.Sigma,
	)
	return e
}

// Loss returns the total extinction in magnitudes toward zenith distance z
// (radians). Each term uses the airmass of its own scale height: gas for
// Rayleigh and water vapor, aerosol, and a thin layer 20 km up for ozone.
func (e Extinction) Loss(z float64) float64 {
	xg := 1 / (math.Cos(z) + 0.0286*math.Exp(-10.5*math.Cos(z)))
	xa := 1 / (math.Cos(z) + 0.0123*math.Exp(-24.5*math.Cos(z)))
	xo := 1 / math.Sqrt(1.0-math.Pow(math.Sin(z)/(1.0+20.0/6378.0), 2))

	return e.Rayleigh.K*xg + e.Aerosol.K*xa + e.Ozone.K*xo + e.WaterVapor.K*xg
}
