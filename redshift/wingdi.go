package redshift

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// gdiRetries is the number of attempts made to set the ramp of a display, as
// SetDeviceGammaRamp sometimes fails transiently while a display is changing
// modes.
const gdiRetries = 10

// errNoGammaRamp is returned for displays which don't support gamma ramps.
var errNoGammaRamp = errors.New("display does not support gamma ramps")

// gdiDisplays sets gamma ramps on Windows display devices.
type gdiDisplays interface {
	// Displays returns the names of the display devices attached to the
	// desktop (e.g., \\.\DISPLAY1).
	Displays() ([]string, error)

	// SetGammaRamp sets the gamma ramp of the named display.
	SetGammaRamp(name string, ramp *Ramp) error
}

// gdiManager sets the color ramp of every display attached to the desktop
// using GDI. Displays are enumerated on every Set, so displays attached later
// get the ramp the next time it changes.
type gdiManager struct {
	dev    gdiDisplays
	logger *slog.Logger

	mu  sync.Mutex
	cur *setting
}

func newGDIManager(dev gdiDisplays, logger *slog.Logger) *gdiManager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &gdiManager{dev: dev, logger: logger}
}

func (m *gdiManager) Set(white WhitePoint, curve Curve) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cur = &setting{white, curve}
	if n, err := m.apply(NewRamp(white, curve)); err != nil {
		m.logger.Error("wingdi: failed to enumerate displays", "error", err)
	} else {
		m.logger.Debug("wingdi: applied color ramp", "white", white.String(), "displays", n)
	}
}

// Close restores a neutral linear ramp.
func (m *gdiManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cur == nil {
		return
	}
	m.cur = nil
	if _, err := m.apply(NewRamp(Neutral, Linear)); err != nil {
		m.logger.Warn("wingdi: failed to restore color ramp", "error", err)
	}
}

// apply sets ramp on every display, returning the number of displays it was
// applied to.
func (m *gdiManager) apply(ramp *Ramp) (int, error) {
	names, err := m.dev.Displays()
	if err != nil {
		return 0, err
	}
	var n int
	for _, name := range names {
		if err := m.setDisplay(name, ramp); err != nil {
			m.logger.Warn("wingdi: failed to set color ramp", "display", name, "error", err)
			continue
		}
		n++
	}
	return n, nil
}

func (m *gdiManager) setDisplay(name string, ramp *Ramp) error {
	var err error
	for range gdiRetries {
		if err = m.dev.SetGammaRamp(name, ramp); err == nil || errors.Is(err, errNoGammaRamp) {
			return err
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", gdiRetries, err)
}
