//go:build windows && cgo

// Command hookdll builds the gamma hook as a DLL (go build -buildmode=c-shared)
// for injection into another process.
//
// The injector replaces gdi32!SetDeviceGammaRamp with Hook, then calls
// HookStart in a remote thread with a pointer to the 34-byte HookParam. HookStop
// ends the session and may be followed by another HookStart. HookDetach ends
// it for good and must be called before unloading.
//
// Environment variables:
//
//	GAMMAHOOK_MODE  fast-bypass (default) or always-serialize
//	GAMMAHOOK_LOG   file to append debug logs to
package main

import "C"

import (
	"log/slog"
	"os"
	"unsafe"

	"github.com/pgaskin/gammahook"
	"github.com/pgaskin/gammahook/redshift"
	"golang.org/x/sys/windows"
)

var dll exports

func init() {
	logger := slog.New(slog.DiscardHandler)
	if fn := os.Getenv("GAMMAHOOK_LOG"); fn != "" {
		if f, err := os.OpenFile(fn, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644); err == nil {
			logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			})).With("pid", os.Getpid())
		}
	}

	// resolved separately so Hook can still report a failed init
	if proc := windows.NewLazySystemDLL("gdi32.dll").NewProc("GdiSetLastError"); proc.Find() == nil {
		dll.setLastError = func(code uint32) {
			proc.Call(uintptr(code))
		}
	}

	mode, err := gammahook.ParseMode(os.Getenv("GAMMAHOOK_MODE"))
	if err != nil {
		logger.Warn("hookdll: using default mode", "error", err)
		mode = gammahook.FastBypass
	}

	platform, err := gammahook.SystemPlatform()
	if err != nil {
		logger.Error("hookdll: failed to load platform", "error", err)
		return
	}

	h, err := gammahook.New(gammahook.Options{
		Platform: platform,
		Mode:     mode,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("hookdll: failed to create hook", "error", err)
		return
	}
	dll.hook = h
	logger.Debug("hookdll: loaded", "mode", mode.String())
}

// Hook replaces SetDeviceGammaRamp.
//
//export Hook
func Hook(hdc uintptr, ramp unsafe.Pointer) int32 {
	return dll.setDeviceGammaRamp(hdc, (*redshift.Ramp)(ramp))
}

// HookStart starts a session using the HookParam at param. It has the
// signature of a thread start routine.
//
//export HookStart
func HookStart(param unsafe.Pointer) uint32 {
	if param == nil {
		return 0
	}
	return dll.start(unsafe.Slice((*byte)(param), gammahook.ParamSize))
}

// HookStop stops the session. It has the signature of a thread start routine,
// and the parameter is ignored.
//
//export HookStop
func HookStop(param unsafe.Pointer) uint32 {
	return dll.stop()
}

// HookDetach stops the session and prevents new ones. It has the signature of
// a thread start routine, and the parameter is ignored.
//
//export HookDetach
func HookDetach(param unsafe.Pointer) uint32 {
	return dll.detach()
}
