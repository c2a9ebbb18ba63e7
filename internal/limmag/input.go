package limmag

import (
	"math"
	"time"

	"github.com/kirenia/clear-dark-sky/internal/transform"
	"github.com/kirenia/clear-dark-sky/internal/vision"
)

// Input is one observing situation. Longitude is west-positive; the date
// and time are the site's civil time, whose zone is derived from longitude
// (see transform.TimezoneOffset).
type Input struct {
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Elevation float64 `json:"elevation" validate:"gte=-500,lte=9000"` // meters

	Year   int     `json:"year" validate:"gte=1600,lte=2500"`
	Month  int     `json:"month" validate:"gte=1,lte=12"`
	Day    int     `json:"day" validate:"gte=1,lte=31"`
	Hour   int     `json:"hour" validate:"gte=0,lte=23"`
	Minute int     `json:"minute" validate:"gte=0,lte=59"`
	Second float64 `json:"second" validate:"gte=0,lt=60"`
	DST    bool    `json:"dst"`

	Temperature float64 `json:"temperature" validate:"gte=-100,lte=150"` // °F
	Humidity    float64 `json:"humidity" validate:"gte=0,lt=100"`        // percent

	Snellen    float64 `json:"snellen" validate:"gt=0,lte=4"`
	Experience float64 `json:"experience" validate:"gte=0,lte=10"`
	Age        float64 `json:"age" validate:"gt=0,lte=120"`

	AltStar float64 `json:"altStar" validate:"gte=-90,lte=90"` // degrees; clamped to [0, 90]
	AzStar  float64 `json:"azStar" validate:"gte=0,lte=360"`   // degrees from north through east
}

// Observer returns the vision parameters of the input.
func (in Input) Observer() vision.Observer {
	return vision.Observer{Snellen: in.Snellen, Experience: in.Experience, Age: in.Age}
}

// Zone is the fixed civil zone the input's clock fields are read in.
func (in Input) Zone() *time.Location {
	return Zone(in.Longitude, in.DST)
}

// Time returns the input's civil date and time as an instant.
func (in Input) Time() time.Time {
	sec, frac := math.Modf(in.Second)
	return time.Date(in.Year, time.Month(in.Month), in.Day, in.Hour, in.Minute,
		int(sec), int(math.Round(frac*1e9)), in.Zone())
}

// SetTime overwrites the clock fields with t expressed in the site's civil
// zone.
func (in *Input) SetTime(t time.Time) {
	c := CivilAt(t, in.Longitude, in.DST)
	in.Year = c.Year()
	in.Month = int(c.Month())
	in.Day = c.Day()
	in.Hour = c.Hour()
	in.Minute = c.Minute()
	in.Second = float64(c.Second()) + float64(c.Nanosecond())/1e9
}

// Zone returns the fixed-offset zone a site at longitude (west-positive)
// keeps its clocks in.
func Zone(longitude float64, dst bool) *time.Location {
	return time.FixedZone("", transform.TimezoneOffset(longitude, dst)*3600)
}

// CivilAt converts an instant into the site's civil time.
func CivilAt(t time.Time, longitude float64, dst bool) time.Time {
	return t.In(Zone(longitude, dst))
}
