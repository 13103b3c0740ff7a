package redshift

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxPathLength is the maximum length of a path generated by
// [WhitePoint.AppendPath].
const MaxPathLength = len("/?ct=1.000000,1.000000,1.000000")

// ErrInvalidCT is returned by [ParseCT] for values which are neither a white
// point nor a supported temperature.
var ErrInvalidCT = errors.New("invalid color temperature")

// AppendCT appends the ct query value for w, with each component clamped and
// formatted with exactly 6 decimal places.
func (w WhitePoint) AppendCT(b []byte) []byte {
	w = w.Clamp()
	for i, c := range w {
		if i != 0 {
			b = append(b, ',')
		}
		b = strconv.AppendFloat(b, c, 'f', 6, 64)
	}
	return b
}

// AppendPath appends the request path used to relay w to a coordinator. At
// most [MaxPathLength] bytes are appended.
func (w WhitePoint) AppendPath(b []byte) []byte {
	return w.AppendCT(append(b, "/?ct="...))
}

// String formats w as a ct value.
func (w WhitePoint) String() string {
	return string(w.AppendCT(nil))
}

// ParseCT parses a ct query value, which is either three comma-separated
// components between 0 and 1, or an integer temperature in kelvin.
func ParseCT(s string) (WhitePoint, error) {
	if r, rest, ok := strings.Cut(s, ","); ok {
		g, b, ok := strings.Cut(rest, ",")
		if !ok {
			return WhitePoint{}, fmt.Errorf("%w %q: expected three components", ErrInvalidCT, s)
		}
		var w WhitePoint
		for i, x := range [...]string{r, g, b} {
			v, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
			if err != nil {
				return WhitePoint{}, fmt.Errorf("%w %q: %w", ErrInvalidCT, s, err)
			}
			if !(v >= 0 && v <= 1) {
				return WhitePoint{}, fmt.Errorf("%w %q: component %d out of range", ErrInvalidCT, s, i)
			}
			w[i] = v
		}
		return w, nil
	}
	k, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return WhitePoint{}, fmt.Errorf("%w %q", ErrInvalidCT, s)
	}
	w, ok := GetWhitePoint(Temperature(k))
	if !ok {
		return WhitePoint{}, fmt.Errorf("%w %q: temperature out of range", ErrInvalidCT, s)
	}
	return w, nil
}
