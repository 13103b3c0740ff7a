package main

import (
	"bytes"
	"io"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pgaskin/gammahook/coordinator"
	"github.com/pgaskin/gammahook/redshift"
)

type fakeManager struct {
	mu    sync.Mutex
	white redshift.WhitePoint
	n     int
}

func (m *fakeManager) Set(white redshift.WhitePoint, _ redshift.Curve) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.white = white
	m.n++
}

func (m *fakeManager) Close() {}

func (m *fakeManager) get() (redshift.WhitePoint, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.white, m.n
}

// startCoordinator starts a coordinator and returns a config file pointing to
// it.
func startCoordinator(t *testing.T) (*coordinator.Server, string) {
	t.Helper()

	srv := coordinator.New(new(fakeManager), coordinator.DefaultSettings, nil)
	hs := httptest.NewServer(srv)
	t.Cleanup(hs.Close)

	u, _ := url.Parse(hs.URL)
	return srv, writeConfig(t, "[server]\nhost = \""+u.Hostname()+"\"\nport = "+u.Port()+"\n")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.Execute()
	return out.String(), err
}

func TestRelayCommand(t *testing.T) {
	srv, path := startCoordinator(t)

	out, err := run(t, "-c", path, "relay", "3400", "1,0.5,0.25")
	if err != nil {
		t.Fatalf("relay: %v", err)
	}
	if n := strings.Count(out, "relayed "); n != 2 {
		t.Errorf("expected 2 relayed values, got %q", out)
	}

	exp, _ := redshift.ParseCT(redshift.NewRamp(redshift.WhitePoint{1, 0.5, 0.25}, redshift.Linear).WhitePoint().String())
	st := srv.Status()
	if st.Requests != 2 {
		t.Errorf("expected 2 requests, got %d", st.Requests)
	}
	if st.White != exp {
		t.Errorf("expected white point %v, got %v", exp, st.White)
	}

	for _, mode := range []string{"always-serialize", "fast-bypass"} {
		if _, err := run(t, "-c", path, "relay", "--mode", mode, "6500"); err != nil {
			t.Errorf("relay %s: %v", mode, err)
		}
	}
	if st := srv.Status(); st.Requests != 4 || st.White != redshift.Neutral {
		t.Errorf("unexpected status after relaying with modes: %+v", st)
	}

	if _, err := run(t, "-c", path, "relay", "hot"); err == nil {
		t.Errorf("expected error for invalid color temperature")
	}
	if _, err := run(t, "-c", path, "relay", "--mode", "sometimes", "6500"); err == nil {
		t.Errorf("expected error for invalid mode")
	}
}

func TestStatusCommand(t *testing.T) {
	srv, path := startCoordinator(t)
	srv.Request(redshift.WhitePoint{1, 0.5, 0.25})

	out, err := run(t, "-c", path, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, s := range []string{
		"white point:  1.000000,0.500000,0.250000",
		"round:        none",
		"updated:      now",
		"requests:     1 color temperature, 0 game state, 0 invalid",
	} {
		if !strings.Contains(out, s) {
			t.Errorf("expected %q in output:\n%s", s, out)
		}
	}

	out, err = run(t, "-c", path, "status", "--json")
	if err != nil {
		t.Fatalf("status --json: %v", err)
	}
	if st := coordinator.ParseStatus([]byte(out)); st.White != (redshift.WhitePoint{1, 0.5, 0.25}) {
		t.Errorf("unexpected json status %s", out)
	}
}

func TestStatusCommandUnavailable(t *testing.T) {
	hs := httptest.NewServer(nil)
	u, _ := url.Parse(hs.URL)
	hs.Close()

	path := writeConfig(t, "[server]\nhost = \""+u.Hostname()+"\"\nport = "+u.Port()+"\n")
	if _, err := run(t, "-c", path, "status"); err == nil {
		t.Errorf("expected error for unavailable coordinator")
	}
}

func TestRenderStatus(t *testing.T) {
	now := time.Date(2024, 6, 21, 12, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	renderStatus(&buf, coordinator.Status{
		White:       redshift.Neutral,
		Temperature: 6500,
		Requested:   redshift.WhitePoint{1, 0.5, 0.25},
		Curve:       redshift.Linear,
		Phase:       "live",
		Alive:       true,
		Flashed:     12,
		Updated:     now.Add(-3 * time.Minute),
		Requests:    1234,
	}, now)

	exp := "white point:  1.000000,1.000000,1.000000 (~6500K)\n" +
		"requested:    1.000000,0.500000,0.250000 (deferred)\n" +
		"curve:        gamma 1.000, contrast 1.000, range 0-255\n" +
		"round:        live (alive=true flashed=12 smoked=0)\n" +
		"updated:      3 minutes ago\n" +
		"requests:     1,234 color temperature, 0 game state, 0 invalid\n"
	if buf.String() != exp {
		t.Errorf("unexpected output:\n%s\nexpected:\n%s", buf.String(), exp)
	}
}

func TestConfigCommand(t *testing.T) {
	path := writeConfig(t, "[server]\nport = 4000\n")

	out, err := run(t, "-c", path, "config")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if !strings.HasPrefix(out, "# "+path+"\n") {
		t.Errorf("expected path header, got %q", out)
	}
	if !strings.Contains(out, "port = 4000") {
		t.Errorf("expected configured port in output:\n%s", out)
	}

	missing := path + ".missing"
	out, err = run(t, "-c", missing, "config")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if !strings.Contains(out, "not found") || !strings.Contains(out, "port = 3000") {
		t.Errorf("expected defaults:\n%s", out)
	}
}

func TestAcquireLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gammarelayd.lock")

	lock, err := acquireLock(path)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer lock.Unlock()

	if _, err := acquireLock(path); err == nil {
		t.Errorf("expected second lock to fail")
	}
}
