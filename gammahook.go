// Package gammahook replaces a process's calls to SetDeviceGammaRamp, relaying
// the requested color temperature to a coordinator over HTTP instead of
// changing the display directly.
//
// Only one gamma ramp can be active on a display at a time, so multiple
// programs (e.g., f.lux and a game) setting it will fight with each other. With
// the hook installed into one of them, the coordinator gets to decide what is
// actually applied.
//
// The hook runs inside another program's process, so it never fails a call
// because the coordinator is unavailable, never panics, and never blocks for
// longer than the configured [Timeouts].
package gammahook

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Mode controls how calls are serialized.
type Mode int

const (
	// FastBypass forwards calls which will not be relayed without taking the
	// lock, and rate-limits relayed calls to one per [MinRelayInterval].
	FastBypass Mode = iota

	// AlwaysSerialize takes the lock for every call, and forwards calls to the
	// original primitive while no session is running.
	AlwaysSerialize
)

// MinRelayInterval is the minimum time a relayed call takes in [FastBypass]
// mode.
const MinRelayInterval = 5 * time.Millisecond

func (m Mode) String() string {
	switch m {
	case FastBypass:
		return "fast-bypass"
	case AlwaysSerialize:
		return "always-serialize"
	default:
		return "Mode(" + fmt.Sprint(int(m)) + ")"
	}
}

// ParseMode parses the output of [Mode.String].
func ParseMode(s string) (Mode, error) {
	switch s {
	case "fast-bypass", "":
		return FastBypass, nil
	case "always-serialize":
		return AlwaysSerialize, nil
	default:
		return 0, fmt.Errorf("unknown hook mode %q", s)
	}
}

// Options configures a [Hook].
type Options struct {
	// Platform provides the original primitive. Required.
	Platform Platform

	// Mode controls how calls are serialized.
	Mode Mode

	// Dialer opens the transport for a session. If nil, DialHTTP is used.
	Dialer Dialer

	// Timeouts for the transport. If zero, DefaultTimeouts is used.
	Timeouts Timeouts

	// NoWait doesn't wait for the coordinator to respond before returning.
	NoWait bool

	// Logger is used for debug logs. If nil, logs are discarded.
	Logger *slog.Logger
}

// Hook is the replacement for SetDeviceGammaRamp. It is safe for concurrent
// use.
type Hook struct {
	platform Platform
	mode     Mode
	dial     Dialer
	timeouts Timeouts
	wait     bool
	logger   *slog.Logger
	sleep    func(time.Duration)

	mu        sync.Mutex
	closed    bool
	running   bool
	cfg       SessionConfig
	id        uuid.UUID
	transport Transport
	conn      Connection
}

// New creates a new hook with no running session.
func New(opts Options) (*Hook, error) {
	if opts.Platform == nil {
		return nil, ErrNoPlatform
	}
	switch opts.Mode {
	case FastBypass, AlwaysSerialize:
	default:
		return nil, fmt.Errorf("invalid mode %s", opts.Mode)
	}
	h := &Hook{
		platform: opts.Platform,
		mode:     opts.Mode,
		dial:     opts.Dialer,
		timeouts: opts.Timeouts,
		wait:     !opts.NoWait,
		logger:   opts.Logger,
		sleep:    time.Sleep,
	}
	if h.dial == nil {
		h.dial = DialHTTP
	}
	if h.timeouts == (Timeouts{}) {
		h.timeouts = DefaultTimeouts
	}
	if h.logger == nil {
		h.logger = slog.New(slog.DiscardHandler)
	}
	return h, nil
}

// Mode returns the serialization mode.
func (h *Hook) Mode() Mode {
	return h.mode
}

// Close stops the session. After Close, Start always fails, and calls are
// handled as if no session were running. If the session could not be fully
// released, Close can be called again.
func (h *Hook) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	if !h.stopLocked() {
		return errors.New("gammahook: failed to release session")
	}
	return nil
}
