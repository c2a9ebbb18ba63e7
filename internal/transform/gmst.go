package transform

import "math"

// j2000 is the Julian Date of the J2000.0 epoch (January 1, 2000, 12:00:00 TT).
const j2000 = 2451545.0

const (
	secondsPerDay = 86400.0

	// siderealRate is the ratio of sidereal to solar time.
	siderealRate = 1.0027379093
)

// TimezoneOffset returns the whole-hour offset used to turn local civil time
// into UT. Longitude is west-positive, so a site at 111.6°W sits at -7.
// Daylight saving adds one hour.
//
// Rounding is half-up to match the form this model was calibrated with.
func TimezoneOffset(longitude float64, dst bool) int {
	tz := int(math.Floor(-longitude/15 + 0.5))
	if dst {
		tz++
	}
	return tz
}

// DecimalHours converts a wall-clock time into decimal hours.
func DecimalHours(hour, minute int, second float64) float64 {
	return float64(hour) + float64(minute)/60 + second/3600
}

// JulianDay converts a local civil date and decimal time of day into a Julian
// Date. tzone is the offset returned by TimezoneOffset.
//
// The Gregorian algorithm runs on the local date; the UT day is then
// recovered from the nearest midnight and the time-minus-zone value. When
// that value leaves [0, 24) the day boundary is rolled by one so the result
// tracks the UT date rather than the civil one.
func JulianDay(year, month, day int, dtime float64, tzone int) float64 {
	y := float64(year)
	m := float64(month)

	// Adjust year/month for Jan/Feb (treat as months 13/14 of previous year).
	if m <= 2 {
		y -= 1
		m += 12
	}

	a := math.Floor(y / 100)
	b := 2 - a + math.Floor(a/4)
	d := float64(day) + dtime/24

	jd := math.Floor(365.25*(y+4716)) + math.Floor(30.6001*(m+1)) + d + b - 1524.5
	jd -= float64(tzone) / 24

	ut := dtime - float64(tzone)
	jd0 := math.Floor(jd+0.5) - 0.5
	jd1 := jd0 + ut/24
	switch {
	case ut >= 24:
		jd1 -= 1
	case ut < 0:
		jd1 += 1
	}
	return jd1
}

// greenwichMidnight returns Greenwich mean sidereal time at 0h UT as a
// fraction of a day, using the IAU-82 polynomial (Vallado Eq 3-45):
//
//	θ₀ = 24110.54841 + 8640184.812866·T + 0.093104·T² − 6.2e-6·T³  [s]
//
// where T is Julian centuries of UT1 from J2000.0 to the midnight.
func greenwichMidnight(jdMidnight float64) float64 {
	t := (jdMidnight - j2000) / 36525.0
	sec := 24110.54841 +
		8640184.812866*t +
		0.093104*t*t -
		6.2e-6*t*t*t
	frac := sec / secondsPerDay
	return frac - math.Floor(frac)
}

// LocalSiderealTime returns local mean sidereal time in hours [0, 24) for a
// Julian Date and a west-positive longitude in degrees.
//
// The polynomial is evaluated at the nearest preceding UT midnight and
// advanced by the fractional day at the sidereal rate.
func LocalSiderealTime(jd, longitude float64) float64 {
	jdInt := math.Floor(jd)
	jdFrac := jd - jdInt

	var jdMid, ut float64
	if jdFrac < 0.5 {
		jdMid = jdInt - 0.5
		ut = jdFrac + 0.5
	} else {
		jdMid = jdInt + 0.5
		ut = jdFrac - 0.5
	}

	sid := greenwichMidnight(jdMid)
	sid += siderealRate*ut - longitude/360
	sid = (sid - math.Floor(sid)) * 24
	if sid < 0 {
		sid += 24
	}
	return sid
}
