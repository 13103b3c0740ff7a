// Package coordinator implements the server which gamma hooks relay color
// temperature requests to. It decides what is actually applied to the
// displays, combining the requested color temperature with CS:GO game state
// integration updates to avoid being blinded by flashbangs and smoke.
package coordinator

import (
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/pgaskin/gammahook/redshift"
	"github.com/tidwall/gjson"
)

// Settings controls how the curve is computed.
type Settings struct {
	BlackFlash     bool                 // darken the screen while flashed
	BlackSmoke     bool                 // darken the screen while in smoke
	MonitorGamma   float64              // the in-game mat_monitorgamma
	MonitorGammaTV bool                 // the in-game mat_monitorgamma_tv_enabled
	Temperature    redshift.Temperature // initial temperature
}

// DefaultSettings matches the in-game defaults.
var DefaultSettings = Settings{
	BlackFlash:   true,
	BlackSmoke:   true,
	MonitorGamma: 2.2,
	Temperature:  redshift.NeutralTemperature,
}

// Server is a [http.Handler] accepting color temperature requests (GET) and
// game state updates (POST). It is safe for concurrent use.
type Server struct {
	mgr    redshift.Manager
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	settings Settings
	white    [2]redshift.WhitePoint // applied, requested
	phase    [2]string              // applied, received
	alive    bool
	flashed  [2]int64 // applied, received
	smoked   [2]int64 // applied, received
	curve    redshift.Curve
	updated  time.Time
	nCT      uint64
	nState   uint64
	nInvalid uint64
}

// New creates a new coordinator and applies the initial color ramp. If logger
// is nil, logs are discarded.
func New(mgr redshift.Manager, settings Settings, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		mgr:    mgr,
		logger: logger,
		now:    time.Now,
	}
	white, ok := redshift.GetWhitePoint(settings.Temperature)
	if !ok {
		white = redshift.Neutral
	}
	s.white = [2]redshift.WhitePoint{white, white}
	s.settings = settings

	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateLocked(true)
	return s
}

// Settings gets the current settings.
func (s *Server) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// SetSettings replaces the settings and re-applies the color ramp.
func (s *Server) SetSettings(settings Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings = settings
	s.updateLocked(true)
}

// Request sets the requested white point, the same way a relayed request from
// a hook does.
func (s *Server) Request(white redshift.WhitePoint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nCT++
	s.white[1] = white.Clamp()
	s.updateLocked(false)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/status" && r.Method == http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		w.Write(s.Status().AppendJSON(nil))

	case r.URL.Path != "/":
		http.NotFound(w, r)

	case r.Method == http.MethodGet:
		if ct := r.URL.Query().Get("ct"); ct != "" {
			white, err := redshift.ParseCT(ct)
			if err != nil {
				s.mu.Lock()
				s.nInvalid++
				s.mu.Unlock()
				s.logger.Debug("coordinator: ignoring invalid color temperature", "error", err)
			} else {
				s.Request(white)
			}
		}
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodPost:
		buf, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if !gjson.ValidBytes(buf) {
			s.mu.Lock()
			s.nInvalid++
			s.mu.Unlock()
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		s.gameState(gjson.ParseBytes(buf))
		w.WriteHeader(http.StatusOK)

	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// gameState handles a CS:GO game state integration update.
func (s *Server) gameState(state gjson.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nState++
	s.phase[1] = state.Get("round.phase").Str
	s.alive = state.Get("player.steamid").Str == state.Get("provider.steamid").Str
	s.flashed[1] = state.Get("player.state.flashed").Int()
	s.smoked[1] = state.Get("player.state.smoked").Int()
	s.updateLocked(false)
}

// updateLocked applies the color ramp if anything relevant changed. The
// requested white point is only adopted outside of live rounds (or while
// dead/spectating) so it doesn't change mid-fight.
func (s *Server) updateLocked(force bool) {
	update := force

	if s.phase[0] != s.phase[1] {
		update = true
		s.phase[0] = s.phase[1]
	}
	if !s.alive || (s.phase[0] != "live" && s.phase[0] != "over") {
		update = update || s.white[0] != s.white[1]
		s.white[0] = s.white[1]
	}
	if s.flashed[0] != s.flashed[1] {
		update = update || s.settings.BlackFlash
		s.flashed[0] = s.flashed[1]
	}
	if s.smoked[0] != s.smoked[1] {
		update = update || s.settings.BlackSmoke
		s.smoked[0] = s.smoked[1]
	}
	if !update {
		return
	}

	s.curve = s.curveLocked()
	s.updated = s.now()
	s.mgr.Set(s.white[0], s.curve)
	s.logger.Info("coordinator: applied color ramp",
		"white", s.white[0].String(),
		"phase", s.phase[0],
		"gamma", s.curve.Gamma,
		"contrast", s.curve.Contrast,
	)
}

func (s *Server) curveLocked() redshift.Curve {
	c := redshift.Linear
	if s.phase[0] != "" {
		mg := s.settings.MonitorGamma
		if !(mg > 0) {
			mg = DefaultSettings.MonitorGamma
		}
		if s.settings.MonitorGammaTV {
			c.Gamma = mg / 2.5
			c.Min, c.Max = 16.0/255, 235.0/255
		} else {
			c.Gamma = mg / 2.2
		}
	}
	var flashed, smoked float64
	if s.settings.BlackFlash {
		flashed = float64(min(max(s.flashed[0], 0), 255)) / 255
	}
	if s.settings.BlackSmoke {
		smoked = float64(min(max(s.smoked[0], 0), 255)) / 255
	}
	c.Contrast = (0.25 + 0.75*(1-smoked)) * (1 - flashed) / (1 + flashed)
	return c
}
