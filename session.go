package gammahook

import (
	"errors"
	"fmt"
	"unicode/utf16"

	"github.com/google/uuid"
)

// MaxHostLength is the maximum length of a coordinator host name in UTF-16
// code units. A name of exactly this length fills [Param] without a NUL.
const MaxHostLength = paramNameLen

// ErrHostTooLong is returned when the host name doesn't fit in [Param].
var ErrHostTooLong = errors.New("host name too long")

// SessionConfig is the address of a coordinator.
type SessionConfig struct {
	Host string
	Port uint16
}

// Validate checks whether c can be used for a session.
func (c SessionConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("empty host")
	}
	if n := len(utf16.Encode([]rune(c.Host))); n > MaxHostLength {
		return fmt.Errorf("%w (%d > %d)", ErrHostTooLong, n, MaxHostLength)
	}
	if c.Port == 0 {
		return fmt.Errorf("invalid port 0")
	}
	return nil
}

// Start replaces the current session, if any, with a new one for cfg. It
// returns true if a connection is now open.
func (h *Hook) Start(cfg SessionConfig) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.stopLocked() {
		h.logger.Warn("gammahook: failed to stop previous session")
		return false
	}
	if h.closed {
		return false
	}
	if err := cfg.Validate(); err != nil {
		h.logger.Warn("gammahook: invalid session config", "error", err)
		return false
	}

	if h.transport == nil {
		h.cfg = cfg
		t, err := h.dial(h.timeouts)
		if err != nil {
			h.logger.Warn("gammahook: failed to open transport", "error", err)
		} else {
			h.transport = t
		}
	}
	if h.transport != nil && h.conn == nil {
		c, err := h.transport.Connect(h.cfg.Host, h.cfg.Port)
		if err != nil {
			h.logger.Warn("gammahook: failed to connect", "host", h.cfg.Host, "port", h.cfg.Port, "error", err)
		} else {
			h.conn = c
		}
	}

	h.running = h.conn != nil
	if h.running {
		h.id = uuid.New()
		h.logger.Debug("gammahook: started session", "session", h.id, "host", h.cfg.Host, "port", h.cfg.Port)
	}
	return h.running
}

// Stop closes the current session, if any. It returns true if nothing is left
// open. If closing the connection or transport fails, it is left open, and
// Stop can be called again.
func (h *Hook) Stop() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.stopLocked()
}

func (h *Hook) stopLocked() bool {
	if h.conn != nil {
		if err := h.conn.Close(); err != nil {
			h.logger.Warn("gammahook: failed to close connection", "session", h.id, "error", err)
		} else {
			h.conn = nil
		}
	}
	if h.conn == nil && h.transport != nil {
		if err := h.transport.Close(); err != nil {
			h.logger.Warn("gammahook: failed to close transport", "session", h.id, "error", err)
		} else {
			h.transport = nil
		}
	}

	ok := h.conn == nil && h.transport == nil
	if h.running && ok {
		h.logger.Debug("gammahook: stopped session", "session", h.id)
	}
	h.running = !ok
	return ok
}

// Running returns true if a session is running.
func (h *Hook) Running() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.running
}

// Config returns the configuration of the running session.
func (h *Hook) Config() (SessionConfig, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.cfg, h.running
}
