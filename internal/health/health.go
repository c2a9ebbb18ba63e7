package health

import (
	"errors"
	"math"
	"net/http"

	"github.com/kirenia/clear-dark-sky/internal/limmag"
)

// Check reports whether a dependency of the service is usable.
type Check func() error

// Healthz returns 200 "ok\n" unconditionally.
func Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

// Readyz returns 200 "ready\n" when every check passes and 503 otherwise.
func Readyz(checks ...Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		for _, check := range checks {
			if err := check(); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte("not ready: " + err.Error() + "\n"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready\n"))
	}
}

var errNotFinite = errors.New("calculator returned a non-finite limiting magnitude")

// Calculator evaluates a fixed dark-site observation and fails unless the
// limiting magnitude is finite and plausible.
func Calculator() error {
	res := limmag.Calculate(limmag.Input{
		Longitude: 111.617, Latitude: 31.95, Elevation: 1925,
		Year: 2000, Month: 1, Day: 15, Hour: 19, Minute: 40,
		Temperature: 58, Humidity: 8,
		Snellen: 1, Experience: 6, Age: 25,
		AltStar: 90,
	})
	if math.IsNaN(res.LimMag) || math.IsInf(res.LimMag, 0) {
		return errNotFinite
	}
	if res.LimMag < 0 || res.LimMag > 10 {
		return errors.New("calculator result out of range")
	}
	return nil
}
