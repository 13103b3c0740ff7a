package redshift

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	gammaRelayName  = "rs.wl-gammarelay"
	gammaRelayPath  = "/"
	gammaRelayIface = "rs.wl.gammarelay"
)

// relayManager sets the color temperature using wl-gammarelay over the session
// bus, for wayland compositors where only one client may own the gamma control
// for an output. wl-gammarelay only accepts a temperature, brightness, and
// gamma, so the white point is rounded to the nearest temperature and the curve
// is reduced to its brightness and exponent.
type relayManager struct {
	conn   *dbus.Conn
	obj    dbus.BusObject
	errch  chan error
	logger *slog.Logger

	mu sync.Mutex
}

// NewGammaRelay connects to wl-gammarelay on the session bus. If the bus
// connection is lost, the chan will return the error. If logger is not nil, it
// is used for debug logs from this package.
func NewGammaRelay(logger *slog.Logger) (Manager, <-chan error, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, nil, fmt.Errorf("connect to session bus: %w", err)
	}

	var owner string
	if err := conn.BusObject().Call("org.freedesktop.DBus.GetNameOwner", 0, gammaRelayName).Store(&owner); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("find %s (is wl-gammarelay running?): %w", gammaRelayName, err)
	}

	e := make(chan error, 1)
	m := &relayManager{
		conn:   conn,
		obj:    conn.Object(gammaRelayName, gammaRelayPath),
		errch:  e,
		logger: logger,
	}

	go func() {
		<-conn.Context().Done()
		e <- fmt.Errorf("session bus: %w", conn.Context().Err())
	}()

	logger.Debug("gammarelay: connected", "owner", owner)
	return m, e, nil
}

func (m *relayManager) Close() {
	m.conn.Close()
}

func (m *relayManager) Set(white WhitePoint, curve Curve) {
	m.mu.Lock()
	defer m.mu.Unlock()

	temp := TemperatureOf(white)
	for _, p := range []struct {
		name  string
		value any
	}{
		{"Temperature", uint16(temp)},
		{"Brightness", curve.At(1)},
		{"Gamma", curve.Gamma},
	} {
		if err := m.obj.Call("org.freedesktop.DBus.Properties.Set", 0, gammaRelayIface, p.name, dbus.MakeVariant(p.value)).Err; err != nil {
			m.logger.Warn("gammarelay: failed to set property", "property", p.name, "error", err)
		}
	}
	m.logger.Debug("gammarelay: applied color ramp", "white", white.String(), "temperature", temp)
}
