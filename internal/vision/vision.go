// Package vision turns a sky background into the faintest star an observer
// can see: correction factors for the eye and atmosphere, the day or night
// threshold fit, and the propagated uncertainty (Schaefer 1990, 1993).
package vision

import "math"

// DayThreshold is the background brightness (nL) at and above which the
// photopic (day) fit replaces the scotopic (night) one.
const DayThreshold = 1479.0

const (
	referenceAge   = 25.0
	maxPupil       = 7.0 // mm, at the reference age
	seeingArcsec   = 1.5
	baselineSigma  = 0.16 // mag, observer scatter
	backgroundFrac = 0.2  // fractional uncertainty of the background
	experienceStep = 0.16 // mag per experience point
	experienceRef  = 6.0
	maxNightAngle  = 900.0 // arcsec

	// Stellar and sky color indices assumed for the night color terms.
	starColor = 0.5
	skyColor  = 0.7
)

// Observer describes the eye doing the looking.
type Observer struct {
	Snellen    float64 `json:"snellen"`    // acuity relative to 20/20
	Experience float64 `json:"experience"` // 0 (novice) to 10 (expert)
	Age        float64 `json:"age"`        // years
}

// Factor is a multiplicative correction with its 1-sigma uncertainty.
type Factor struct {
	Value float64 `json:"value"`
	Sigma float64 `json:"sigma"`
}

// Factors are the corrections applied to the threshold flux.
type Factors struct {
	Extinction      Factor `json:"extinction"`       // Fe
	StarColor       Factor `json:"star_color"`       // Fci
	BackgroundColor Factor `json:"background_color"` // Fcb
	Pupil           Factor `json:"pupil"`            // Fp
	Seeing          Factor `json:"seeing"`           // Fr
}

// Threshold is the outcome of the vision chain for one background.
type Threshold struct {
	Day     bool    `json:"day"`
	Factors Factors `json:"factors"`

	// CriticalAngle is the eye's critical visual angle in arcseconds.
	CriticalAngle float64 `json:"critical_angle"`
	// Contrast is the contrast threshold for an extended source the size
	// of the illuminated Moon. It does not feed Magnitude.
	Contrast float64 `json:"contrast"`
	// Background is the brightness after pupil and binocular correction.
	Background float64 `json:"background"`

	Magnitude float64 `json:"magnitude"`
	Sigma     float64 `json:"sigma"`
}

// IsDay reports whether background b (nL) selects the day regime.
func IsDay(b float64) bool {
	return b >= DayThreshold
}

// PupilFactor is the squared ratio of the reference pupil to the pupil of
// an eye of the given age; older eyes gather less light.
func PupilFactor(age float64) Factor {
	ref := maxPupil * math.Exp(-0.5*math.Pow(referenceAge/100, 2))
	de := maxPupil * math.Exp(-0.5*math.Pow(age/100, 2))
	fp := math.Pow(ref/de, 2)
	return Factor{Value: fp, Sigma: 5 * age / 5000 * fp}
}

// CriticalAngle returns the critical visual angle in arcseconds for
// background b.
func CriticalAngle(b, snellen float64, day bool) float64 {
	if day {
		return 42 * math.Pow(10, 8.28*math.Pow(b, -0.29)) / snellen
	}
	return math.Min(maxNightAngle, 380*math.Pow(10, 0.3*math.Pow(b, -0.29))) / snellen
}

// ContrastThreshold evaluates the three-branch contrast threshold for a
// source whose equivalent diameter is the Moon's scaled by the square root
// of its illuminated fraction.
func ContrastThreshold(b, cva, illFrac float64) float64 {
	zeta := 1800 * math.Sqrt(illFrac)
	switch {
	case cva > zeta:
		return math.Max(2.4*math.Pow(b, -0.1), 20*math.Pow(b, -0.4)) * math.Pow(cva/zeta, 2)
	case b > 1e6:
		return 0.0028 + 2.4*math.Pow(b, -0.1)*math.Pow(cva/zeta, 2)
	default:
		lb := math.Log10(b)
		return math.Pow(10, -(0.12*0.40*lb)+(0.90-0.15*lb)*math.Log10(6000/zeta))
	}
}

// SeeingFactor corrects for the star image spread by turbulence relative
// to the critical angle, along airmass x.
func SeeingFactor(x, cva, snellen float64) Factor {
	xi := math.Sqrt(8 * 0.361 * seeingArcsec * seeingArcsec * x)
	fr := (1 + 0.03*math.Pow(xi/cva, 2)) / (snellen * snellen)
	return Factor{Value: fr, Sigma: 0.1 * 2 / snellen * fr}
}

func extinctionFactor(k, sigmaK, x float64, day bool) Factor {
	if day {
		fe := math.Pow(10, 0.4*k*x)
		return Factor{Value: fe, Sigma: sigmaK * x * 0.92 * fe}
	}
	fe := math.Pow(10, 0.48*k*x)
	return Factor{Value: fe, Sigma: sigmaK * x * 1.105 * fe}
}

func colorFactors(day bool) (star, background Factor) {
	if day {
		return Factor{Value: 1}, Factor{Value: 1}
	}
	fci := math.Pow(10, -0.4*(1-starColor/2))
	fcb := math.Pow(10, -0.4*(1-skyColor/2))
	return Factor{Value: fci, Sigma: 0.5 * 0.46 * fci},
		Factor{Value: fcb, Sigma: 0.1 * 0.46 * fcb}
}

// thresholdFit returns the constants of the threshold-vs-background power
// law for the regime.
func thresholdFit(day bool) (c1, c2 float64) {
	if day {
		return math.Pow(10, -8.35), math.Pow(10, -5.9)
	}
	return math.Pow(10, -9.8), math.Pow(10, -1.9)
}

// Limit computes the limiting magnitude for background b (nL) seen through
// extinction k ± sigmaK along airmass x. illFrac only feeds the contrast
// diagnostic.
func Limit(b, k, sigmaK, x, illFrac float64, o Observer) Threshold {
	day := IsDay(b)
	t := Threshold{Day: day}

	f := &t.Factors
	f.Extinction = extinctionFactor(k, sigmaK, x, day)
	f.StarColor, f.BackgroundColor = colorFactors(day)
	f.Pupil = PupilFactor(o.Age)
	t.CriticalAngle = CriticalAngle(b, o.Snellen, day)
	t.Contrast = ContrastThreshold(b, t.CriticalAngle, illFrac)
	f.Seeing = SeeingFactor(x, t.CriticalAngle, o.Snellen)

	t.Background = b / (f.Pupil.Value * f.BackgroundColor.Value)
	c1, c2 := thresholdFit(day)
	root := math.Sqrt(c2 * t.Background)
	flux := c1 * math.Pow(1+root, 2)
	seen := flux * f.Pupil.Value * f.Seeing.Value * f.StarColor.Value * f.Extinction.Value

	t.Magnitude = -16.57 - 2.5*math.Log10(seen) + experienceStep*(o.Experience-experienceRef)

	sigB := t.Background * math.Sqrt(backgroundFrac*backgroundFrac+
		sq(f.Pupil.Sigma/f.Pupil.Value)+
		sq(f.BackgroundColor.Sigma/f.BackgroundColor.Value))
	sigFlux := sigB * c1 * c2 * (1 + 1/root)
	sigSeen := seen * math.Sqrt(sq(sigFlux/flux)+
		sq(f.Extinction.Sigma/f.Extinction.Value)+
		sq(f.Pupil.Sigma/f.Pupil.Value)+
		sq(f.Seeing.Sigma/f.Seeing.Value)+
		sq(f.StarColor.Sigma/f.StarColor.Value))
	sigMag := sigSeen * 2.5 / (math.Ln10 * seen)
	t.Sigma = math.Sqrt(sigMag*sigMag + baselineSigma*baselineSigma)
	return t
}

func sq(x float64) float64 { return x * x }
