package coordinator

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pgaskin/gammahook/redshift"
)

type setCall struct {
	white redshift.WhitePoint
	curve redshift.Curve
}

type fakeManager struct {
	mu   sync.Mutex
	sets []setCall
}

func (m *fakeManager) Set(white redshift.WhitePoint, curve redshift.Curve) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets = append(m.sets, setCall{white, curve})
}

func (m *fakeManager) Close() {}

func (m *fakeManager) last(t *testing.T) setCall {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sets) == 0 {
		t.Fatalf("nothing was applied")
	}
	return m.sets[len(m.sets)-1]
}

func (m *fakeManager) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sets)
}

func do(t *testing.T, h http.Handler, method, target, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, target, r))
	return w.Result()
}

func gameState(phase string, alive bool, flashed, smoked int) string {
	player := "76561198000000001"
	if !alive {
		player = "76561198000000002"
	}
	var b strings.Builder
	b.WriteString(`{"provider":{"steamid":"76561198000000001"},`)
	if phase != "" {
		b.WriteString(`"round":{"phase":"` + phase + `"},`)
	}
	b.WriteString(`"player":{"steamid":"` + player + `","state":{"flashed":`)
	b.WriteString(strconv.Itoa(flashed))
	b.WriteString(`,"smoked":`)
	b.WriteString(strconv.Itoa(smoked))
	b.WriteString(`}}}`)
	return b.String()
}

func TestNew(t *testing.T) {
	mgr := new(fakeManager)
	New(mgr, DefaultSettings, nil)

	if n := mgr.count(); n != 1 {
		t.Fatalf("expected the initial ramp to be applied once, got %d", n)
	}
	if c := mgr.last(t); c.white != redshift.Neutral || c.curve != redshift.Linear {
		t.Errorf("unexpected initial ramp %v %+v", c.white, c.curve)
	}

	s := DefaultSettings
	s.Temperature = 3400
	New(mgr, s, nil)
	exp, _ := redshift.GetWhitePoint(3400)
	if c := mgr.last(t); c.white != exp {
		t.Errorf("initial temperature not applied: got %v, expected %v", c.white, exp)
	}
}

func TestColorTemperature(t *testing.T) {
	mgr := new(fakeManager)
	srv := New(mgr, DefaultSettings, nil)

	for _, c := range []struct {
		ct      string
		applied bool
		white   redshift.WhitePoint
	}{
		{"1.000000,0.500000,0.250000", true, redshift.WhitePoint{1, 0.5, 0.25}},
		{"1.000000,0.500000,0.250000", false, redshift.WhitePoint{1, 0.5, 0.25}},
		{"nope", false, redshift.WhitePoint{1, 0.5, 0.25}},
		{"1,2", false, redshift.WhitePoint{1, 0.5, 0.25}},
		{"1.000000,1.000000,1.000000", true, redshift.Neutral},
	} {
		n := mgr.count()
		if resp := do(t, srv, http.MethodGet, "/?ct="+c.ct, ""); resp.StatusCode != http.StatusOK {
			t.Errorf("%q: status %d", c.ct, resp.StatusCode)
		}
		if applied := mgr.count() != n; applied != c.applied {
			t.Errorf("%q: applied=%t, expected %t", c.ct, applied, c.applied)
		}
		if got := srv.Status().White; got != c.white {
			t.Errorf("%q: white point %v, expected %v", c.ct, got, c.white)
		}
	}

	st := srv.Status()
	if st.Requests != 3 {
		t.Errorf("expected 3 requests, got %d", st.Requests)
	}
	if st.Invalid != 2 {
		t.Errorf("expected 2 invalid requests, got %d", st.Invalid)
	}

	// a request without ct does nothing
	n := mgr.count()
	do(t, srv, http.MethodGet, "/", "")
	if mgr.count() != n {
		t.Errorf("empty request applied a ramp")
	}
}

func TestGameState(t *testing.T) {
	mgr := new(fakeManager)
	srv := New(mgr, DefaultSettings, nil)

	post := func(body string) {
		t.Helper()
		if resp := do(t, srv, http.MethodPost, "/", body); resp.StatusCode != http.StatusOK {
			t.Fatalf("post: status %d", resp.StatusCode)
		}
	}

	// phase change always applies
	n := mgr.count()
	post(gameState("live", true, 0, 0))
	if mgr.count() != n+1 {
		t.Fatalf("phase change not applied")
	}
	if c := mgr.last(t); c.curve.Gamma != 1 || c.curve.Contrast != 1 {
		t.Errorf("unexpected curve %+v", c.curve)
	}

	// requests are deferred while alive in a live round
	n = mgr.count()
	do(t, srv, http.MethodGet, "/?ct=3400", "")
	if mgr.count() != n {
		t.Errorf("request applied during live round")
	}
	exp, _ := redshift.GetWhitePoint(3400)
	if st := srv.Status(); st.White != redshift.Neutral || st.Requested != exp {
		t.Errorf("unexpected white points %v %v", st.White, st.Requested)
	}

	// flashed darkens
	post(gameState("live", true, 255, 0))
	if c := mgr.last(t); c.curve.Contrast != 0 || c.white != redshift.Neutral {
		t.Errorf("flash: unexpected ramp %v %+v", c.white, c.curve)
	}
	post(gameState("live", true, 0, 0))
	if c := mgr.last(t); c.curve.Contrast != 1 {
		t.Errorf("flash end: unexpected curve %+v", c.curve)
	}

	// smoke darkens to a quarter
	post(gameState("live", true, 0, 255))
	if c := mgr.last(t); c.curve.Contrast != 0.25 {
		t.Errorf("smoke: unexpected curve %+v", c.curve)
	}

	// dying adopts the deferred request
	post(gameState("live", false, 0, 255))
	if c := mgr.last(t); c.white != exp {
		t.Errorf("death: expected deferred white point %v, got %v", exp, c.white)
	}

	// nothing changed
	n = mgr.count()
	post(gameState("live", false, 0, 255))
	if mgr.count() != n {
		t.Errorf("identical state applied a ramp")
	}

	if st := srv.Status(); st.States != 6 || st.Phase != "live" || st.Alive || st.Smoked != 255 {
		t.Errorf("unexpected status %+v", st)
	}
}

func TestGameStateDisabled(t *testing.T) {
	mgr := new(fakeManager)
	srv := New(mgr, Settings{MonitorGamma: 2.2, Temperature: redshift.NeutralTemperature}, nil)

	do(t, srv, http.MethodPost, "/", gameState("freezetime", true, 0, 0))
	n := mgr.count()
	do(t, srv, http.MethodPost, "/", gameState("freezetime", true, 255, 255))
	if mgr.count() != n {
		t.Errorf("flash and smoke applied a ramp while disabled")
	}
	if c := srv.Status().Curve; c.Contrast != 1 {
		t.Errorf("unexpected contrast %v", c.Contrast)
	}
}

func TestSettings(t *testing.T) {
	mgr := new(fakeManager)
	srv := New(mgr, DefaultSettings, nil)
	do(t, srv, http.MethodPost, "/", gameState("live", true, 0, 0))

	for _, c := range []struct {
		gamma    float64
		tv       bool
		expGamma float64
		expMin   float64
		expMax   float64
	}{
		{2.2, false, 1, 0, 1},
		{4.4, false, 2, 0, 1},
		{2.5, true, 1, 16.0 / 255, 235.0 / 255},
		{0, false, 1, 0, 1},
	} {
		s := DefaultSettings
		s.MonitorGamma, s.MonitorGammaTV = c.gamma, c.tv

		n := mgr.count()
		srv.SetSettings(s)
		if srv.Settings() != s {
			t.Errorf("%v %t: settings not stored", c.gamma, c.tv)
		}
		if mgr.count() != n+1 {
			t.Errorf("%v %t: settings not applied", c.gamma, c.tv)
			continue
		}
		if cv := mgr.last(t).curve; cv.Gamma != c.expGamma || cv.Min != c.expMin || cv.Max != c.expMax {
			t.Errorf("%v %t: unexpected curve %+v", c.gamma, c.tv, cv)
		}
	}
}

func TestServeHTTP(t *testing.T) {
	mgr := new(fakeManager)
	srv := New(mgr, DefaultSettings, nil)

	for _, c := range []struct {
		method string
		target string
		body   string
		status int
	}{
		{http.MethodGet, "/", "", http.StatusOK},
		{http.MethodGet, "/status", "", http.StatusOK},
		{http.MethodGet, "/nope", "", http.StatusNotFound},
		{http.MethodPost, "/", "{", http.StatusBadRequest},
		{http.MethodPost, "/", "{}", http.StatusOK},
		{http.MethodPut, "/", "", http.StatusMethodNotAllowed},
		{http.MethodDelete, "/status", "", http.StatusNotFound},
	} {
		if resp := do(t, srv, c.method, c.target, c.body); resp.StatusCode != c.status {
			t.Errorf("%s %s: status %d, expected %d", c.method, c.target, resp.StatusCode, c.status)
		}
	}
}

func TestStatusJSON(t *testing.T) {
	mgr := new(fakeManager)
	srv := New(mgr, DefaultSettings, nil)
	srv.now = func() time.Time {
		return time.Date(2024, 6, 21, 12, 0, 0, 0, time.UTC)
	}
	do(t, srv, http.MethodPost, "/", gameState("over", true, 100, 0))
	do(t, srv, http.MethodGet, "/?ct=nope", "")

	resp := do(t, srv, http.MethodGet, "/status", "")
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("unexpected content type %q", ct)
	}
	buf, _ := io.ReadAll(resp.Body)

	got := ParseStatus(buf)
	exp := srv.Status()
	if got.Updated.Equal(exp.Updated) {
		got.Updated = exp.Updated
	}
	if got != exp {
		t.Errorf("status round trip:\n got %+v\n exp %+v\n raw %s", got, exp, buf)
	}
	if got.Temperature != redshift.NeutralTemperature || got.Phase != "over" || got.Flashed != 100 || got.Invalid != 1 {
		t.Errorf("unexpected status %s", buf)
	}
	if !strings.Contains(string(buf), `"updated":"2024-06-21T12:00:00Z"`) {
		t.Errorf("unexpected update time in %s", buf)
	}
}
