package redshift

import (
	"math"
)

// Temperature is a color temperature in kelvin.
type Temperature int

// Supported color temperature range.
const (
	MinTemperature     Temperature = 1000
	MaxTemperature     Temperature = 25000
	NeutralTemperature Temperature = 6500
)

// WhitePoint is the relative intensity of the red, green, and blue channels at
// full brightness, each between 0 and 1.
type WhitePoint [3]float64

// Neutral does not change the color of the display.
var Neutral = WhitePoint{1, 1, 1}

// Clamp returns w with each component limited to [0, 1]. NaN becomes 0.
func (w WhitePoint) Clamp() WhitePoint {
	for i, c := range w {
		switch {
		case !(c > 0):
			w[i] = 0
		case c > 1:
			w[i] = 1
		}
	}
	return w
}

// GetWhitePoint approximates the white point of a blackbody radiator at the
// specified temperature, scaled so [NeutralTemperature] is [Neutral]. It
// returns false if the temperature is out of range.
func GetWhitePoint(temp Temperature) (WhitePoint, bool) {
	if temp < MinTemperature || temp > MaxTemperature {
		return WhitePoint{}, false
	}
	var (
		w = blackbody(float64(temp))
		n = blackbody(float64(NeutralTemperature))
	)
	for i := range w {
		w[i] /= n[i]
	}
	return w.Clamp(), true
}

// TemperatureOf finds the temperature (to the nearest 100K) with the closest
// white point to w.
func TemperatureOf(w WhitePoint) Temperature {
	var (
		best     = NeutralTemperature
		bestDist = math.Inf(1)
	)
	for t := MinTemperature; t <= MaxTemperature; t += 100 {
		c, _ := GetWhitePoint(t)
		var d float64
		for i := range c {
			d += (c[i] - w[i]) * (c[i] - w[i])
		}
		if d < bestDist {
			best, bestDist = t, d
		}
	}
	return best
}

// blackbody is Tanner Helland's curve fit of the CIE 1964 10-degree color
// matching functions, returning unclamped components in [0, 255].
func blackbody(k float64) WhitePoint {
	var (
		t = k / 100
		w WhitePoint
	)
	if t <= 66 {
		w[0] = 255
		w[1] = 99.4708025861*math.Log(t) - 161.1195681661
	} else {
		w[0] = 329.698727446 * math.Pow(t-60, -0.1332047592)
		w[1] = 288.1221695283 * math.Pow(t-60, -0.0755148492)
	}
	switch {
	case t >= 66:
		w[2] = 255
	case t <= 19:
		w[2] = 0
	default:
		w[2] = 138.5177312231*math.Log(t-10) - 305.0447927307
	}
	for i, c := range w {
		w[i] = min(max(c, 0), 255)
	}
	return w
}
