package darkness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		alt  float64
		want Twilight
	}{
		{30, TwilightDay},
		{0.01, TwilightDay},
		{0, TwilightCivil},
		{-5.99, TwilightCivil},
		{-6, TwilightNautical},
		{-12, TwilightAstronomical},
		{-17.9, TwilightAstronomical},
		{-18, TwilightNight},
		{-60, TwilightNight},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.alt), "alt=%v", tt.alt)
	}
}

func TestColorCode(t *testing.T) {
	tests := []struct {
		mag  float64
		want string
	}{
		{-10, "daylight"},
		{-3, "dusk"},
		{-1.01, "dusk"},
		{-1, "twilight"},
		{0.99, "twilight"},
		{1, "bright_moon"},
		{3, "partial_moon"},
		{4.49, "partial_moon"},
		{4.5, "dim_moon"},
		{5.5, "dark"},
		{7, "dark"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ColorCode(tt.mag).Code, "mag=%v", tt.mag)
	}

	dark := ColorCode(6)
	assert.Equal(t, "#001144", dark.Hex)
	assert.Equal(t, "Dark Sky", dark.Label)
	assert.Equal(t, "#ffffff", ColorCode(-5).Hex)
}
