package gammahook

import (
	"errors"

	"github.com/pgaskin/gammahook/redshift"
)

// HDC is a handle to a device context.
type HDC uintptr

// ErrorInvalidParameter is the Win32 ERROR_INVALID_PARAMETER code.
const ErrorInvalidParameter uint32 = 87

// ErrNoPlatform is returned by [New] if no [Platform] was provided.
var ErrNoPlatform = errors.New("no platform")

// Platform provides the original primitive which the hook replaces. It must be
// safe for concurrent use.
type Platform interface {
	// IsDisplayDC returns true if hdc refers to a device context for a real
	// display (as opposed to a memory device context, metafile, printer, or an
	// invalid handle).
	IsDisplayDC(hdc HDC) bool

	// SetDeviceGammaRamp calls the original unhooked primitive.
	SetDeviceGammaRamp(hdc HDC, ramp *redshift.Ramp) bool

	// SetLastError sets the calling thread's last error the same way the
	// original primitive does.
	SetLastError(code uint32)
}
