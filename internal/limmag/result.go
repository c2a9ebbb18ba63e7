package limmag

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kirenia/clear-dark-sky/internal/atmosphere"
	"github.com/kirenia/clear-dark-sky/internal/skyglow"
	"github.com/kirenia/clear-dark-sky/internal/transform"
	"github.com/kirenia/clear-dark-sky/internal/vision"
)

// Result is the display form of a calculation. Angles are rounded to 0.1°,
// magnitudes to 0.01. Pointer fields are null when the body is below the
// horizon.
type Result struct {
	AltStar float64 `json:"altStar"`

	AltSun float64  `json:"altSun"`
	AzSun  float64  `json:"azSun"`
	RhoSun float64  `json:"rhoSun"`
	MagSun *float64 `json:"magSun"`

	AltMoon float64  `json:"altMoon"`
	AzMoon  float64  `json:"azMoon"`
	RhoMoon float64  `json:"rhoMoon"`
	IllFrac float64  `json:"illFrac"` // percent
	MagMoon *float64 `json:"magMoon"`

	LimMag float64 `json:"limMag"`
	MagErr float64 `json:"magErr"`

	ExtinctionCoeff float64 `json:"extinctionCoeff"` // mag/airmass
	Extinction      float64 `json:"extinction"`      // mag along the pointing

	SkyBrightnessNL  Nanolamberts `json:"skyBrightnessNL"`
	SkyBrightnessMag float64      `json:"skyBrightnessMag"` // mag/arcsec²

	MoonBrightnessNL  *Nanolamberts `json:"moonBrightnessNL"`
	MoonBrightnessMag *float64      `json:"moonBrightnessMag"`

	JD  float64 `json:"jd"`
	LST string  `json:"lst"`

	IsDaytime bool `json:"isDaytime"`
	MoonIsUp  bool `json:"moonIsUp"`
	SunIsUp   bool `json:"sunIsUp"`

	Diagnostics Diagnostics `json:"diagnostics"`
}

// Diagnostics carries the unrounded intermediate values.
type Diagnostics struct {
	LST float64 `json:"lst"` // hours

	Sun         transform.CelestialPosition `json:"sun"`
	Moon        transform.CelestialPosition `json:"moon"`
	SunHorizon  transform.HorizonPosition   `json:"sun_horizon"`
	MoonHorizon transform.HorizonPosition   `json:"moon_horizon"`

	SunSeparation  float64 `json:"sun_separation"`  // degrees
	MoonSeparation float64 `json:"moon_separation"` // degrees

	IlluminatedFraction float64 `json:"illuminated_fraction"`
	Phase               float64 `json:"phase"` // degrees, 0 = full

	StarAirmass float64 `json:"star_airmass"`
	MoonAirmass float64 `json:"moon_airmass"`
	SunAirmass  float64 `json:"sun_airmass"`

	Extinction atmosphere.Extinction `json:"extinction"`
	Loss       float64               `json:"loss"`
	Brightness skyglow.Brightness    `json:"brightness"`
	Vision     vision.Threshold      `json:"vision"`
}

// Nanolamberts is a sky brightness. It marshals as a bare number rounded to
// 0.01 up to 1000 nL and as a short scientific string ("8.57E8") above.
type Nanolamberts float64

// String formats the value the way it is displayed.
func (n Nanolamberts) String() string {
	b := float64(n)
	if b > 1000 {
		exp := math.Floor(math.Log10(b))
		mant := b / math.Pow(10, exp)
		if mant >= 10 {
			exp++
			mant /= 10
		}
		return formatFloat(round2(mant)) + "E" + strconv.Itoa(int(exp))
	}
	return formatFloat(round2(b))
}

// MarshalJSON implements json.Marshaler.
func (n Nanolamberts) MarshalJSON() ([]byte, error) {
	b := float64(n)
	if math.IsNaN(b) || math.IsInf(b, 0) {
		return nil, fmt.Errorf("limmag: brightness %v is not finite", b)
	}
	if b > 1000 {
		return json.Marshal(n.String())
	}
	return []byte(n.String()), nil
}

// UnmarshalJSON accepts both marshaled forms.
func (n *Nanolamberts) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		mant, exp, ok := strings.Cut(s, "E")
		if !ok {
			return fmt.Errorf("limmag: malformed brightness %q", s)
		}
		m, err := strconv.ParseFloat(mant, 64)
		if err != nil {
			return fmt.Errorf("limmag: malformed brightness %q: %w", s, err)
		}
		e, err := strconv.Atoi(exp)
		if err != nil {
			return fmt.Errorf("limmag: malformed brightness %q: %w", s, err)
		}
		*n = Nanolamberts(m * math.Pow(10, float64(e)))
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = Nanolamberts(f)
	return nil
}

func formatFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}

// roundTo rounds half up, as the displayed values always have been.
func roundTo(x, scale float64) float64 {
	return math.Floor(x*scale+0.5) / scale
}

func round1(x float64) float64 { return roundTo(x, 10) }
func round2(x float64) float64 { return roundTo(x, 100) }

func ptr(x float64) *float64 { return &x }

// formatLST renders sidereal hours as "2h52m59s".
func formatLST(hours float64) string {
	h := math.Floor(hours)
	m := (hours - h) * 60
	s := math.Floor((m-math.Floor(m))*60 + 0.5)
	return fmt.Sprintf("%dh%dm%ds", int(h), int(math.Floor(m)), int(s))
}
