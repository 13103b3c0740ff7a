package redshift

import (
	"errors"
	"fmt"
	"log/slog"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")
	gdi32  = windows.NewLazySystemDLL("gdi32.dll")

	procEnumDisplayDevicesW = user32.NewProc("EnumDisplayDevicesW")
	procCreateDCW           = gdi32.NewProc("CreateDCW")
	procDeleteDC            = gdi32.NewProc("DeleteDC")
	procGetDeviceCaps       = gdi32.NewProc("GetDeviceCaps")
	procSetDeviceGammaRamp  = gdi32.NewProc("SetDeviceGammaRamp")
)

const (
	displayDeviceAttachedToDesktop = 0x1
	colorMgmtCaps                  = 121 // COLORMGMTCAPS
	cmGammaRamp                    = 0x2 // CM_GAMMA_RAMP
)

// displayDevice is DISPLAY_DEVICEW.
type displayDevice struct {
	cb           uint32
	DeviceName   [32]uint16
	DeviceString [128]uint16
	StateFlags   uint32
	DeviceID     [128]uint16
	DeviceKey    [128]uint16
}

// NewWinGDI creates a [Manager] which sets the gamma ramp of every display
// attached to the desktop using GDI. The chan never returns an error. If
// logger is not nil, it is used for debug logs from this package.
func NewWinGDI(logger *slog.Logger) (Manager, <-chan error, error) {
	for _, proc := range []*windows.LazyProc{
		procEnumDisplayDevicesW,
		procCreateDCW,
		procDeleteDC,
		procGetDeviceCaps,
		procSetDeviceGammaRamp,
	} {
		if err := proc.Find(); err != nil {
			return nil, nil, fmt.Errorf("load %s: %w", proc.Name, err)
		}
	}

	var dev sysDisplays
	names, err := dev.Displays()
	if err != nil {
		return nil, nil, err
	}
	if len(names) == 0 {
		return nil, nil, errors.New("no displays attached to the desktop")
	}

	m := newGDIManager(dev, logger)
	m.logger.Debug("wingdi: found displays", "displays", names)
	return m, make(chan error), nil
}

type sysDisplays struct{}

func (sysDisplays) Displays() ([]string, error) {
	var names []string
	for i := uint32(0); ; i++ {
		var dd displayDevice
		dd.cb = uint32(unsafe.Sizeof(dd))
		if r, _, _ := procEnumDisplayDevicesW.Call(0, uintptr(i), uintptr(unsafe.Pointer(&dd)), 0); r == 0 {
			break
		}
		if dd.StateFlags&displayDeviceAttachedToDesktop != 0 {
			names = append(names, windows.UTF16ToString(dd.DeviceName[:]))
		}
	}
	return names, nil
}

func (sysDisplays) SetGammaRamp(name string, ramp *Ramp) error {
	p, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return err
	}
	hdc, _, err := procCreateDCW.Call(0, uintptr(unsafe.Pointer(p)), 0, 0)
	if hdc == 0 {
		return fmt.Errorf("create dc: %w", err)
	}
	defer procDeleteDC.Call(hdc)

	if caps, _, _ := procGetDeviceCaps.Call(hdc, colorMgmtCaps); caps&cmGammaRamp == 0 {
		return errNoGammaRamp
	}
	if r, _, err := procSetDeviceGammaRamp.Call(hdc, uintptr(unsafe.Pointer(ramp))); r == 0 {
		return fmt.Errorf("set device gamma ramp: %w", err)
	}
	return nil
}
