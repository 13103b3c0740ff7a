package redshift

import (
	"math"
)

// RampSize is the number of entries per channel in a [Ramp].
const RampSize = 256

// Ramp is a 16-bit gamma ramp for the red, green, and blue channels, laid out
// the same way as the Windows GDI gamma ramp.
type Ramp [3][RampSize]uint16

// NewRamp generates a ramp for the specified white point and curve.
func NewRamp(white WhitePoint, curve Curve) *Ramp {
	r := new(Ramp)
	CurveRamp(r[0][:], r[1][:], r[2][:], white, curve)
	return r
}

// WhitePoint returns the white point described by the last entry of each
// channel.
func (r *Ramp) WhitePoint() WhitePoint {
	return WhitePoint{
		float64(r[0][RampSize-1]) / math.MaxUint16,
		float64(r[1][RampSize-1]) / math.MaxUint16,
		float64(r[2][RampSize-1]) / math.MaxUint16,
	}
}

// Curve describes the shape of a gamma ramp independently of the white point.
type Curve struct {
	Gamma    float64 // exponent applied to the input, 1 for linear
	Contrast float64 // scale applied to the input before the exponent
	Min      float64 // output at zero input
	Max      float64 // output at full input, before contrast
}

// Linear is the identity curve.
var Linear = Curve{Gamma: 1, Contrast: 1, Min: 0, Max: 1}

// At evaluates the curve at x, which should be between 0 and 1.
func (c Curve) At(x float64) float64 {
	v := x * c.Contrast
	if c.Gamma != 1 && v > 0 {
		v = math.Pow(v, c.Gamma)
	}
	return min(max(c.Min+(c.Max-c.Min)*v, 0), 1)
}

// CurveRamp computes a gamma ramp for the curve, scaled by white.
func CurveRamp[C ~uint8 | ~uint16 | ~uint32 | ~uint64](r, g, b []C, white WhitePoint, curve Curve) {
	white = white.Clamp()
	for ch, s := range [3][]C{r, g, b} {
		for index := range len(s) {
			var x float64
			if len(s) > 1 {
				x = float64(index) / float64(len(s)-1)
			}
			s[index] = C(math.Round(curve.At(x) * white[ch] * float64(^C(0))))
		}
	}
}
