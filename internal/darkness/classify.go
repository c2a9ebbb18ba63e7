package darkness

// Twilight is the phase of the day given by the Sun's altitude.
type Twilight string

const (
	TwilightDay          Twilight = "day"
	TwilightCivil        Twilight = "civil"
	TwilightNautical     Twilight = "nautical"
	TwilightAstronomical Twilight = "astronomical"
	TwilightNight        Twilight = "night"
)

// Classify returns the twilight phase for a solar altitude in degrees.
// Each boundary belongs to the darker phase.
func Classify(sunAlt float64) Twilight {
	switch {
	case sunAlt > 0:
		return TwilightDay
	case sunAlt > -6:
		return TwilightCivil
	case sunAlt > -12:
		return TwilightNautical
	case sunAlt > -18:
		return TwilightAstronomical
	default:
		return TwilightNight
	}
}

// Color is one step of the darkness chart scale.
type Color struct {
	Code  string `json:"code"`
	Hex   string `json:"hex"`
	Label string `json:"label"`
}

var scale = []struct {
	below float64
	color Color
}{
	{-3, Color{"daylight", "#ffffff", "Daylight"}},
	{-1, Color{"dusk", "#ffffaa", "Dusk"}},
	{1, Color{"twilight", "#aaffff", "Twilight"}},
	{3, Color{"bright_moon", "#aaddff", "Bright Moon"}},
	{4.5, Color{"partial_moon", "#5599dd", "Partial Moon"}},
	{5.5, Color{"dim_moon", "#2266aa", "Dim Moon"}},
}

var dark = Color{"dark", "#001144", "Dark Sky"}

// ColorCode maps a zenith limiting magnitude onto the chart scale.
func ColorCode(limMag float64) Color {
	for _, s := range scale {
		if limMag < s.below {
			return s.color
		}
	}
	return dark
}
