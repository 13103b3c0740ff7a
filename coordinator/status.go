package coordinator

import (
	"strconv"
	"time"

	"github.com/pgaskin/gammahook/redshift"
	"github.com/tidwall/gjson"
)

// Status is a snapshot of the coordinator state.
type Status struct {
	White       redshift.WhitePoint
	Temperature redshift.Temperature // nearest to White
	Requested   redshift.WhitePoint
	Curve       redshift.Curve
	Phase       string
	Alive       bool
	Flashed     int64
	Smoked      int64
	Updated     time.Time
	Requests    uint64
	States      uint64
	Invalid     uint64
}

// Status gets the current status.
func (s *Server) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Status{
		White:       s.white[0],
		Temperature: redshift.TemperatureOf(s.white[0]),
		Requested:   s.white[1],
		Curve:       s.curve,
		Phase:       s.phase[0],
		Alive:       s.alive,
		Flashed:     s.flashed[0],
		Smoked:      s.smoked[0],
		Updated:     s.updated,
		Requests:    s.nCT,
		States:      s.nState,
		Invalid:     s.nInvalid,
	}
}

func (x Status) MarshalJSON() ([]byte, error) {
	return x.AppendJSON(nil), nil
}

func (x Status) AppendJSON(s []byte) []byte {
	s = append(s, `{"white":`...)
	s = appendWhite(s, x.White)
	s = append(s, `,"temperature":`...)
	s = strconv.AppendInt(s, int64(x.Temperature), 10)
	s = append(s, `,"requested":`...)
	s = appendWhite(s, x.Requested)
	s = append(s, `,"curve":{"gamma":`...)
	s = strconv.AppendFloat(s, x.Curve.Gamma, 'f', -1, 64)
	s = append(s, `,"contrast":`...)
	s = strconv.AppendFloat(s, x.Curve.Contrast, 'f', -1, 64)
	s = append(s, `,"min":`...)
	s = strconv.AppendFloat(s, x.Curve.Min, 'f', -1, 64)
	s = append(s, `,"max":`...)
	s = strconv.AppendFloat(s, x.Curve.Max, 'f', -1, 64)
	s = append(s, `},"phase":`...)
	s = strconv.AppendQuote(s, x.Phase)
	s = append(s, `,"alive":`...)
	s = strconv.AppendBool(s, x.Alive)
	s = append(s, `,"flashed":`...)
	s = strconv.AppendInt(s, x.Flashed, 10)
	s = append(s, `,"smoked":`...)
	s = strconv.AppendInt(s, x.Smoked, 10)
	if !x.Updated.IsZero() {
		s = append(s, `,"updated":"`...)
		s = x.Updated.UTC().AppendFormat(s, time.RFC3339Nano)
		s = append(s, '"')
	}
	s = append(s, `,"requests":`...)
	s = strconv.AppendUint(s, x.Requests, 10)
	s = append(s, `,"states":`...)
	s = strconv.AppendUint(s, x.States, 10)
	s = append(s, `,"invalid":`...)
	s = strconv.AppendUint(s, x.Invalid, 10)
	s = append(s, '}')
	return s
}

func appendWhite(s []byte, w redshift.WhitePoint) []byte {
	s = append(s, '[')
	for i, c := range w {
		if i != 0 {
			s = append(s, ',')
		}
		s = strconv.AppendFloat(s, c, 'f', 6, 64)
	}
	return append(s, ']')
}

// ParseStatus parses the output of [Status.AppendJSON] without any error
// checking.
func ParseStatus(b []byte) Status {
	var x Status
	gjson.ParseBytes(b).ForEach(func(key, value gjson.Result) bool {
		switch key.Str {
		case "white":
			x.White = parseWhite(value)
		case "temperature":
			x.Temperature = redshift.Temperature(value.Int())
		case "requested":
			x.Requested = parseWhite(value)
		case "curve":
			x.Curve = redshift.Curve{
				Gamma:    value.Get("gamma").Float(),
				Contrast: value.Get("contrast").Float(),
				Min:      value.Get("min").Float(),
				Max:      value.Get("max").Float(),
			}
		case "phase":
			x.Phase = value.Str
		case "alive":
			x.Alive = value.Bool()
		case "flashed":
			x.Flashed = value.Int()
		case "smoked":
			x.Smoked = value.Int()
		case "updated":
			x.Updated = value.Time()
		case "requests":
			x.Requests = value.Uint()
		case "states":
			x.States = value.Uint()
		case "invalid":
			x.Invalid = value.Uint()
		}
		return true
	})
	return x
}

func parseWhite(v gjson.Result) (w redshift.WhitePoint) {
	for i, c := range v.Array() {
		if i < len(w) {
			w[i] = c.Float()
		}
	}
	return w
}
