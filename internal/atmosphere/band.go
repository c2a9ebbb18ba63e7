// Package atmosphere models atmospheric extinction of starlight: the
// extinction coefficient and its decomposition, and the airmass along a
// line of sight.
package atmosphere

// Band holds the photometric constants of one waveband. Only the visual
// (V) band is used by the limiting-magnitude model.
type Band struct {
	// Wavelength is the effective wavelength in microns.
	Wavelength float64
	// Ozone is the ozone absorption coefficient (mag/airmass).
	Ozone float64
	// WaterVapor is the water-vapor absorption coefficient (mag/airmass).
	WaterVapor float64
	// NightGlow is the zenith night-sky brightness in nanolamberts.
	NightGlow float64
}

// visual holds the V-band constants (Schaefer 1998). It is built once and
// only ever handed out by value.
var visual = Band{
	Wavelength: 0.55,
	Ozone:      0.031,
	WaterVapor: 0.031,
	NightGlow:  200,
}

// Visual returns a copy of the V-band constants.
func Visual() Band {
	return visual
}
