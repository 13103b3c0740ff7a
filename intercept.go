package gammahook

import (
	"time"

	"github.com/pgaskin/gammahook/redshift"
)

// SetDeviceGammaRamp has the same contract as the Win32 function with the same
// name. Calls for real displays are relayed to the coordinator (if a session
// is running) and always succeed. Other calls are passed through to the
// original primitive.
func (h *Hook) SetDeviceGammaRamp(hdc HDC, ramp *redshift.Ramp) bool {
	switch h.mode {
	case AlwaysSerialize:
		return h.serialized(hdc, ramp)
	default:
		return h.bypass(hdc, ramp)
	}
}

func (h *Hook) bypass(hdc HDC, ramp *redshift.Ramp) bool {
	start := time.Now()

	if ramp == nil {
		h.platform.SetLastError(ErrorInvalidParameter)
		return false
	}
	if !h.platform.IsDisplayDC(hdc) {
		return h.platform.SetDeviceGammaRamp(hdc, ramp)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.relayLocked(ramp)

	if d := MinRelayInterval - time.Since(start); d > 0 {
		h.sleep(d)
	}
	return true
}

func (h *Hook) serialized(hdc HDC, ramp *redshift.Ramp) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ramp == nil {
		h.platform.SetLastError(ErrorInvalidParameter)
		return false
	}
	if !h.running || !h.platform.IsDisplayDC(hdc) {
		return h.platform.SetDeviceGammaRamp(hdc, ramp)
	}

	h.relayLocked(ramp)
	return true
}

// relayLocked sends the white point of ramp to the coordinator if connected.
// Errors are logged and otherwise ignored.
func (h *Hook) relayLocked(ramp *redshift.Ramp) {
	if h.conn == nil {
		return
	}

	var buf [redshift.MaxPathLength]byte
	path := ramp.WhitePoint().AppendPath(buf[:0])

	req, err := h.conn.Send(string(path))
	if err != nil {
		h.logger.Debug("gammahook: failed to send request", "session", h.id, "path", string(path), "error", err)
		return
	}
	if h.wait {
		if err := req.Wait(); err != nil {
			h.logger.Debug("gammahook: request failed", "session", h.id, "path", string(path), "error", err)
		}
	}
	if err := req.Close(); err != nil {
		h.logger.Debug("gammahook: failed to close request", "session", h.id, "error", err)
	}
}
