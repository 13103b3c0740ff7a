//go:build windows

package gammahook

import (
	"fmt"
	"unsafe"

	"github.com/pgaskin/gammahook/redshift"
	"golang.org/x/sys/windows"
)

const _OBJ_DC = 1

type systemPlatform struct {
	getObjectType           *windows.LazyProc
	gdiSetLastError         *windows.LazyProc
	ntGdiSetDeviceGammaRamp *windows.LazyProc
}

// SystemPlatform resolves the real primitives. The gdi32 SetDeviceGammaRamp
// export is the function being hooked, so the original is called through the
// win32u syscall stub it wraps.
func SystemPlatform() (Platform, error) {
	var (
		gdi32  = windows.NewLazySystemDLL("gdi32.dll")
		win32u = windows.NewLazySystemDLL("win32u.dll")
	)
	p := &systemPlatform{
		getObjectType:           gdi32.NewProc("GetObjectType"),
		gdiSetLastError:         gdi32.NewProc("GdiSetLastError"),
		ntGdiSetDeviceGammaRamp: win32u.NewProc("NtGdiSetDeviceGammaRamp"),
	}
	for _, proc := range []*windows.LazyProc{
		p.getObjectType,
		p.gdiSetLastError,
		p.ntGdiSetDeviceGammaRamp,
	} {
		if err := proc.Find(); err != nil {
			return nil, fmt.Errorf("resolve %s: %w", proc.Name, err)
		}
	}
	return p, nil
}

func (p *systemPlatform) IsDisplayDC(hdc HDC) bool {
	r, _, _ := p.getObjectType.Call(uintptr(hdc))
	return r == _OBJ_DC
}

func (p *systemPlatform) SetDeviceGammaRamp(hdc HDC, ramp *redshift.Ramp) bool {
	r, _, _ := p.ntGdiSetDeviceGammaRamp.Call(uintptr(hdc), uintptr(unsafe.Pointer(ramp)))
	return r != 0
}

func (p *systemPlatform) SetLastError(code uint32) {
	p.gdiSetLastError.Call(uintptr(code))
}
