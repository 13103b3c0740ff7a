package main

import (
	"github.com/pgaskin/gammahook"
	"github.com/pgaskin/gammahook/redshift"
)

// errorProcNotFound is ERROR_PROC_NOT_FOUND.
const errorProcNotFound uint32 = 127

// exports holds the state behind the exported functions. Every method fails
// closed, and never panics.
type exports struct {
	hook         *gammahook.Hook
	setLastError func(uint32) // nil if GdiSetLastError couldn't be resolved
}

func (e *exports) setDeviceGammaRamp(hdc uintptr, ramp *redshift.Ramp) (ok int32) {
	defer func() {
		if recover() != nil {
			ok = 0
		}
	}()
	if e.hook == nil {
		if e.setLastError != nil {
			e.setLastError(errorProcNotFound)
		}
		return 0
	}
	return boolToInt(e.hook.SetDeviceGammaRamp(gammahook.HDC(hdc), ramp))
}

func (e *exports) start(param []byte) (ok uint32) {
	defer func() {
		if recover() != nil {
			ok = 0
		}
	}()
	if e.hook == nil || param == nil {
		return 0
	}
	p, err := gammahook.ParseParam(param)
	if err != nil {
		return 0
	}
	return uint32(boolToInt(e.hook.Start(p.Config())))
}

func (e *exports) stop() (ok uint32) {
	defer func() {
		if recover() != nil {
			ok = 0
		}
	}()
	if e.hook == nil {
		return 0
	}
	return uint32(boolToInt(e.hook.Stop()))
}

// detach releases the session for good. Later calls to start fail, and
// setDeviceGammaRamp passes through.
func (e *exports) detach() (ok uint32) {
	defer func() {
		if recover() != nil {
			ok = 0
		}
	}()
	if e.hook == nil {
		return 0
	}
	if err := e.hook.Close(); err != nil {
		return 0
	}
	return 1
}

func boolToInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

func main() {}
