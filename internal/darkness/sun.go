package darkness

import (
	"time"

	"github.com/nathan-osman/go-sunrise"

	"github.com/kirenia/clear-dark-sky/internal/limmag"
)

// SunEvents are the sunrise and sunset of one civil date. Both are nil
// during polar day or night.
type SunEvents struct {
	Date    string     `json:"date"` // YYYY-MM-DD at the site
	Sunrise *time.Time `json:"sunrise"`
	Sunset  *time.Time `json:"sunset"`
}

// sunEvents lists the events of every civil date from start to end
// inclusive. Both times are in the site's civil zone.
func sunEvents(req Request, start, end time.Time) []SunEvents {
	var out []SunEvents
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	for !day.After(end) {
		// go-sunrise takes east-positive longitude.
		rise, set := sunrise.SunriseSunset(req.Latitude, -req.Longitude, day.Year(), day.Month(), day.Day())
		out = append(out, SunEvents{
			Date:    day.Format(time.DateOnly),
			Sunrise: civil(rise, req),
			Sunset:  civil(set, req),
		})
		day = day.AddDate(0, 0, 1)
	}
	return out
}

func civil(t time.Time, req Request) *time.Time {
	if t.IsZero() {
		return nil
	}
	c := limmag.CivilAt(t, req.Longitude, req.DST)
	return &c
}
